package services

import (
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// Classification labels. Each taxonomy below is a closed set; the rule
// tables are evaluated top-down and the first match wins, so every in-range
// numeric input maps to exactly one label and none of these functions can
// fail.
const (
	SegmentVIP       = "VIP"
	SegmentLoyal     = "Loyal"
	SegmentPromising = "Promising"
	SegmentAtRisk    = "At-Risk"
	SegmentLost      = "Lost"
	SegmentNew       = "New"

	TierCritical = "Critical"
	TierWarning  = "Warning"
	TierHealthy  = "Healthy"

	TierExcellent = "Excellent"
	TierGood      = "Good"
	TierPoor      = "Poor"

	CapacityOverload = "Overload"
	CapacityHigh     = "High"
	CapacityNormal   = "Normal"
	CapacityLow      = "Low"

	VolumeHigh   = "High"
	VolumeMedium = "Medium"
	VolumeLow    = "Low"
)

type rfmRule struct {
	matches func(recencyDays, frequency int) bool
	segment string
}

// Order matters: VIP and Loyal must be tried before Promising, and At-Risk
// before Lost, or frequent-but-inactive customers would be swallowed by the
// broader rules.
var rfmRules = []rfmRule{
	{func(r, f int) bool { return r <= models.RFMRecencyActive && f >= models.RFMFrequencyVIP }, SegmentVIP},
	{func(r, f int) bool { return r <= models.RFMRecencyActive && f >= models.RFMFrequencyLoyal }, SegmentLoyal},
	{func(r, f int) bool { return r <= models.RFMRecencyWarm && f >= models.RFMFrequencyPromise }, SegmentPromising},
	{func(r, f int) bool { return r > models.RFMRecencyLost && f >= models.RFMFrequencyLoyal }, SegmentAtRisk},
	{func(r, f int) bool { return r > models.RFMRecencyLost }, SegmentLost},
}

// SegmentCustomer maps recency (days since last completed order) and
// frequency (completed order count) to an RFM segment.
func SegmentCustomer(recencyDays, frequency int) string {
	for _, rule := range rfmRules {
		if rule.matches(recencyDays, frequency) {
			return rule.segment
		}
	}
	return SegmentNew
}

// MarginTier classifies a profit margin percentage. An undefined margin
// (zero revenue) is not classifiable and yields the empty string, never
// Critical.
func MarginTier(margin models.NullableFloat) string {
	if !margin.Valid {
		return ""
	}
	switch {
	case margin.Float64 < models.MarginCriticalBelow:
		return TierCritical
	case margin.Float64 < models.MarginHealthyFrom:
		return TierWarning
	default:
		return TierHealthy
	}
}

// CompletionTier classifies a completion rate percentage; undefined rates
// (no orders) are not classifiable.
func CompletionTier(rate models.NullableFloat) string {
	if !rate.Valid {
		return ""
	}
	switch {
	case rate.Float64 >= models.CompletionExcellentFrom:
		return TierExcellent
	case rate.Float64 >= models.CompletionGoodFrom:
		return TierGood
	default:
		return TierPoor
	}
}

// CapacityLevel classifies an orders-per-hour count into an operational
// load tier.
func CapacityLevel(ordersPerHour int) string {
	switch {
	case ordersPerHour >= models.CapacityOverloadFrom:
		return CapacityOverload
	case ordersPerHour >= models.CapacityHighFrom:
		return CapacityHigh
	case ordersPerHour >= models.CapacityNormalFrom:
		return CapacityNormal
	default:
		return CapacityLow
	}
}

// VolumeCategory grades an hourly order count against the mean hourly count
// of the same result set. The mean is computed once by the caller and passed
// in; it is never recomputed per row.
func VolumeCategory(count int, meanHourly float64) string {
	c := float64(count)
	switch {
	case c >= models.PeakHourHighMultiplier*meanHourly:
		return VolumeHigh
	case c >= meanHourly:
		return VolumeMedium
	default:
		return VolumeLow
	}
}

// FrequencyBucketLabel buckets a completed-order count for the purchase
// frequency report.
func FrequencyBucketLabel(orders int) string {
	switch {
	case orders <= 1:
		return "1 order"
	case orders <= 3:
		return "2-3 orders"
	case orders <= 6:
		return "4-6 orders"
	case orders <= 10:
		return "7-10 orders"
	default:
		return "11+ orders"
	}
}

// RetentionBucketLabel buckets the span in days between a customer's first
// and last order.
func RetentionBucketLabel(spanDays int) string {
	switch {
	case spanDays < 30:
		return "<30d"
	case spanDays <= 90:
		return "30-90d"
	case spanDays <= 180:
		return "91-180d"
	default:
		return "180+d"
	}
}

// LTVSegmentLabel buckets a customer's lifetime spend.
func LTVSegmentLabel(totalSpent float64) string {
	switch {
	case totalSpent < 100:
		return "Low (< 100)"
	case totalSpent <= 500:
		return "Medium (100-500)"
	case totalSpent <= 1000:
		return "High (500-1000)"
	default:
		return "Premium (> 1000)"
	}
}

// frequencyBucketOrder fixes the report ordering of frequency buckets.
var frequencyBucketOrder = map[string]int{
	"1 order":     0,
	"2-3 orders":  1,
	"4-6 orders":  2,
	"7-10 orders": 3,
	"11+ orders":  4,
}

// retentionBucketOrder fixes the report ordering of retention buckets.
var retentionBucketOrder = map[string]int{
	"<30d":    0,
	"30-90d":  1,
	"91-180d": 2,
	"180+d":   3,
}

// ltvSegmentOrder fixes the report ordering of LTV segments.
var ltvSegmentOrder = map[string]int{
	"Premium (> 1000)": 0,
	"High (500-1000)":  1,
	"Medium (100-500)": 2,
	"Low (< 100)":      3,
}

func bucketRank(order map[string]int, label string) int {
	if r, ok := order[label]; ok {
		return r
	}
	return len(order)
}

// severityForDeviation grades a positive deviation percentage.
func severityForDeviation(deviationPercent float64) models.Severity {
	if deviationPercent >= 50 {
		return models.SeverityCritical
	}
	return models.SeverityWarning
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
