package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bistro-analytics-api/pkg/models"
)

func TestSegmentCustomer(t *testing.T) {
	cases := []struct {
		name        string
		recencyDays int
		frequency   int
		want        string
	}{
		{"frequent and recent", 10, 8, SegmentVIP},
		{"vip at recency boundary", 30, 5, SegmentVIP},
		{"loyal just past active window", 10, 3, SegmentLoyal},
		{"loyal misses vip by one order", 30, 4, SegmentLoyal},
		{"promising outside active window", 31, 5, SegmentPromising},
		{"promising at warm boundary", 60, 2, SegmentPromising},
		{"at-risk frequent but gone", 91, 3, SegmentAtRisk},
		{"lost infrequent and gone", 91, 1, SegmentLost},
		{"lost low frequency long gone", 120, 2, SegmentLost},
		{"new single recent order", 10, 1, SegmentNew},
		{"new in warm window low frequency", 61, 2, SegmentNew},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SegmentCustomer(tc.recencyDays, tc.frequency))
		})
	}
}

func TestSegmentCustomerTotality(t *testing.T) {
	// Every plausible input must land in exactly one of the six labels.
	valid := map[string]bool{
		SegmentVIP: true, SegmentLoyal: true, SegmentPromising: true,
		SegmentAtRisk: true, SegmentLost: true, SegmentNew: true,
	}
	for recency := 0; recency <= 200; recency += 5 {
		for frequency := 0; frequency <= 12; frequency++ {
			seg := SegmentCustomer(recency, frequency)
			assert.True(t, valid[seg], "recency=%d frequency=%d yielded %q", recency, frequency, seg)
		}
	}
}

func TestMarginTier(t *testing.T) {
	cases := []struct {
		name   string
		margin models.NullableFloat
		want   string
	}{
		{"deep loss", models.Float(-10), TierCritical},
		{"just below critical line", models.Float(19.999), TierCritical},
		{"at critical line", models.Float(20), TierWarning},
		{"just below healthy line", models.Float(29.999), TierWarning},
		{"at healthy line", models.Float(30), TierHealthy},
		{"comfortable", models.Float(55), TierHealthy},
		{"undefined margin unclassified", models.NullableFloat{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MarginTier(tc.margin))
		})
	}
}

func TestCompletionTier(t *testing.T) {
	assert.Equal(t, TierExcellent, CompletionTier(models.Float(90)))
	assert.Equal(t, TierExcellent, CompletionTier(models.Float(100)))
	assert.Equal(t, TierGood, CompletionTier(models.Float(89.999)))
	assert.Equal(t, TierGood, CompletionTier(models.Float(80)))
	assert.Equal(t, TierPoor, CompletionTier(models.Float(79.999)))
	assert.Equal(t, "", CompletionTier(models.NullableFloat{}))
}

func TestCapacityLevel(t *testing.T) {
	assert.Equal(t, CapacityLow, CapacityLevel(0))
	assert.Equal(t, CapacityLow, CapacityLevel(4))
	assert.Equal(t, CapacityNormal, CapacityLevel(5))
	assert.Equal(t, CapacityNormal, CapacityLevel(9))
	assert.Equal(t, CapacityHigh, CapacityLevel(10))
	assert.Equal(t, CapacityHigh, CapacityLevel(19))
	assert.Equal(t, CapacityOverload, CapacityLevel(20))
	assert.Equal(t, CapacityOverload, CapacityLevel(100))
}

func TestVolumeCategory(t *testing.T) {
	// Mean of 100 orders/hour: High from 150, Medium from 100, Low below.
	assert.Equal(t, VolumeHigh, VolumeCategory(150, 100))
	assert.Equal(t, VolumeMedium, VolumeCategory(149, 100))
	assert.Equal(t, VolumeMedium, VolumeCategory(100, 100))
	assert.Equal(t, VolumeLow, VolumeCategory(99, 100))
}

func TestFrequencyBucketLabel(t *testing.T) {
	assert.Equal(t, "1 order", FrequencyBucketLabel(1))
	assert.Equal(t, "2-3 orders", FrequencyBucketLabel(2))
	assert.Equal(t, "2-3 orders", FrequencyBucketLabel(3))
	assert.Equal(t, "4-6 orders", FrequencyBucketLabel(6))
	assert.Equal(t, "7-10 orders", FrequencyBucketLabel(10))
	assert.Equal(t, "11+ orders", FrequencyBucketLabel(11))
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Sunday", models.WeekdayName(1))
	assert.Equal(t, "Saturday", models.WeekdayName(7))
	assert.Equal(t, "", models.WeekdayName(0))
	assert.Equal(t, "", models.WeekdayName(8))
}

func TestSeverityForDeviation(t *testing.T) {
	assert.Equal(t, models.SeverityWarning, severityForDeviation(20))
	assert.Equal(t, models.SeverityWarning, severityForDeviation(49.9))
	assert.Equal(t, models.SeverityCritical, severityForDeviation(50))
	assert.Equal(t, models.SeverityCritical, severityForDeviation(120))
}
