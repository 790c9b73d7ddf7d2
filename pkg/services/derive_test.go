package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bistro-analytics-api/pkg/models"
)

// fixedDerivator pins the reference clock so recency math is deterministic.
func fixedDerivator(now time.Time) *Derivator {
	return &Derivator{Now: func() time.Time { return now }}
}

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestRatioUndefinedOnZeroDenominator(t *testing.T) {
	assert.False(t, models.Ratio(10, 0, 100).Valid)

	r := models.Ratio(25, 100, 100)
	assert.True(t, r.Valid)
	assert.InDelta(t, 25.0, r.Float64, 1e-9)
}

func TestMarginPercent(t *testing.T) {
	m := MarginPercent(200, 150)
	assert.True(t, m.Valid)
	assert.InDelta(t, 25.0, m.Float64, 1e-9)

	assert.False(t, MarginPercent(0, 50).Valid)
}

func TestCompletionRate(t *testing.T) {
	r := CompletionRate(9, 10)
	assert.True(t, r.Valid)
	assert.InDelta(t, 90.0, r.Float64, 1e-9)

	assert.False(t, CompletionRate(0, 0).Valid)
}

func TestRecencyDays(t *testing.T) {
	d := fixedDerivator(testNow)
	assert.Equal(t, 10, d.RecencyDays(testNow.AddDate(0, 0, -10)))
	assert.Equal(t, 0, d.RecencyDays(testNow))
}

func TestEnrichCustomers(t *testing.T) {
	d := fixedDerivator(testNow)
	rows := []models.CustomerStats{
		{CustomerID: 1, Frequency: 6, LastPurchase: testNow.AddDate(0, 0, -5)},
		{CustomerID: 2, Frequency: 1, LastPurchase: testNow.AddDate(0, 0, -120)},
	}
	d.EnrichCustomers(rows)

	assert.Equal(t, 5, rows[0].RecencyDays)
	assert.Equal(t, SegmentVIP, rows[0].Segment)
	assert.Equal(t, 120, rows[1].RecencyDays)
	assert.Equal(t, SegmentLost, rows[1].Segment)
}

func TestEnrichCustomersIdempotent(t *testing.T) {
	d := fixedDerivator(testNow)
	rows := []models.CustomerStats{
		{CustomerID: 1, Frequency: 4, LastPurchase: testNow.AddDate(0, 0, -20)},
	}
	d.EnrichCustomers(rows)
	first := rows[0]
	d.EnrichCustomers(rows)

	assert.Equal(t, first, rows[0])
}

func TestChurnRisk(t *testing.T) {
	d := fixedDerivator(testNow)
	rows := []models.CustomerStats{
		{CustomerID: 1, Frequency: 5, TotalSpent: 900, LastPurchase: testNow.AddDate(0, 0, -70)},
		{CustomerID: 2, Frequency: 5, TotalSpent: 300, LastPurchase: testNow.AddDate(0, 0, -100)},
		// Active, must not appear.
		{CustomerID: 3, Frequency: 8, TotalSpent: 2000, LastPurchase: testNow.AddDate(0, 0, -10)},
		// Inactive but never built a habit.
		{CustomerID: 4, Frequency: 2, TotalSpent: 80, LastPurchase: testNow.AddDate(0, 0, -200)},
		// Exactly at the inactivity threshold stays out; strictly past counts.
		{CustomerID: 5, Frequency: 4, TotalSpent: 500, LastPurchase: testNow.AddDate(0, 0, -60)},
	}
	out := d.ChurnRisk(rows)

	assert.Len(t, out, 2)
	assert.Equal(t, 1, out[0].CustomerID)
	assert.Equal(t, 2, out[1].CustomerID)
}

func TestChurnRiskCap(t *testing.T) {
	d := fixedDerivator(testNow)
	rows := make([]models.CustomerStats, 0, 15)
	for i := 0; i < 15; i++ {
		rows = append(rows, models.CustomerStats{
			CustomerID:   i + 1,
			Frequency:    4,
			TotalSpent:   float64(1000 - i),
			LastPurchase: testNow.AddDate(0, 0, -100),
		})
	}
	out := d.ChurnRisk(rows)
	assert.Len(t, out, models.ChurnRiskListLimit)
	assert.Equal(t, 1, out[0].CustomerID)
}

func TestEnrichDeliveryCells(t *testing.T) {
	cells := []models.DeliveryTimeCell{
		{Weekday: 6, Hour: 19, AvgMinutes: 60},
		{Weekday: 2, Hour: 14, AvgMinutes: 30},
		{Weekday: 3, Hour: 12, AvgMinutes: 30},
	}
	baseline := EnrichDeliveryCells(cells)

	assert.InDelta(t, 40.0, baseline, 1e-9)
	assert.Equal(t, "Friday", cells[0].WeekdayName)
	assert.True(t, cells[0].DeviationPercent.Valid)
	assert.InDelta(t, 50.0, cells[0].DeviationPercent.Float64, 1e-9)
	assert.InDelta(t, -25.0, cells[1].DeviationPercent.Float64, 1e-9)
}

func TestEnrichDeliveryCellsBaselineStable(t *testing.T) {
	cells := []models.DeliveryTimeCell{
		{Weekday: 1, Hour: 12, AvgMinutes: 20},
		{Weekday: 1, Hour: 20, AvgMinutes: 40},
	}
	first := EnrichDeliveryCells(cells)
	second := EnrichDeliveryCells(cells)

	assert.Equal(t, first, second)
	assert.Equal(t, 0.0, EnrichDeliveryCells(nil))
}

func TestEnrichStoreEfficiency(t *testing.T) {
	rows := []models.StoreEfficiency{
		{StoreName: "B", TotalOrders: 100, CompletedOrders: 85, CancelledOrders: 15, Revenue: 5000},
		{StoreName: "A", TotalOrders: 100, CompletedOrders: 95, CancelledOrders: 5, Revenue: 3000},
		{StoreName: "C", TotalOrders: 0},
	}
	EnrichStoreEfficiency(rows)

	// Ordered by completion rate desc; rows with no orders sink to the end.
	assert.Equal(t, "A", rows[0].StoreName)
	assert.Equal(t, TierExcellent, rows[0].CompletionTier)
	assert.Equal(t, "B", rows[1].StoreName)
	assert.Equal(t, TierGood, rows[1].CompletionTier)
	assert.Equal(t, "C", rows[2].StoreName)
	assert.False(t, rows[2].CompletionRate.Valid)
	assert.Equal(t, "", rows[2].CompletionTier)
}

func TestEnrichPeakHours(t *testing.T) {
	rows := []models.PeakHour{
		{Hour: 12, OrderCount: 300},
		{Hour: 15, OrderCount: 100},
		{Hour: 20, OrderCount: 200},
	}
	mean := EnrichPeakHours(rows)

	assert.InDelta(t, 200.0, mean, 1e-9)
	assert.Equal(t, VolumeHigh, rows[0].VolumeCategory)
	assert.Equal(t, VolumeLow, rows[1].VolumeCategory)
	assert.Equal(t, VolumeMedium, rows[2].VolumeCategory)
}

func TestBucketFrequency(t *testing.T) {
	rows := []models.CustomerStats{
		{Frequency: 1, TotalSpent: 50},
		{Frequency: 1, TotalSpent: 70},
		{Frequency: 3, TotalSpent: 200},
		{Frequency: 12, TotalSpent: 1500},
	}
	buckets := BucketFrequency(rows)

	assert.Len(t, buckets, 3)
	assert.Equal(t, "1 order", buckets[0].Bucket)
	assert.Equal(t, 2, buckets[0].CustomerCount)
	assert.InDelta(t, 120.0, buckets[0].Revenue, 1e-9)
	assert.InDelta(t, 60.0, buckets[0].AvgLifetime.Float64, 1e-9)
	assert.Equal(t, "2-3 orders", buckets[1].Bucket)
	assert.Equal(t, "11+ orders", buckets[2].Bucket)
}

func TestBucketNewVsReturning(t *testing.T) {
	rows := []models.CustomerStats{
		{Frequency: 1, TotalSpent: 40},
		{Frequency: 2, TotalSpent: 100},
		{Frequency: 9, TotalSpent: 800},
	}
	out := BucketNewVsReturning(rows)

	assert.Len(t, out, 2)
	assert.Equal(t, "New", out[0].CustomerType)
	assert.Equal(t, 1, out[0].Count)
	assert.Equal(t, "Returning", out[1].CustomerType)
	assert.Equal(t, 2, out[1].Count)
	assert.InDelta(t, 900.0, out[1].Revenue, 1e-9)
}

func TestBucketLTVOrder(t *testing.T) {
	rows := []models.CustomerStats{
		{TotalSpent: 50},
		{TotalSpent: 300},
		{TotalSpent: 2000},
	}
	out := BucketLTV(rows)

	assert.Len(t, out, 3)
	assert.Equal(t, "Premium (> 1000)", out[0].Segment)
	assert.Equal(t, "Medium (100-500)", out[1].Segment)
	assert.Equal(t, "Low (< 100)", out[2].Segment)
}

func TestBucketRetention(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.CustomerSpan{
		{CustomerID: 1, FirstPurchase: base, LastPurchase: base.AddDate(0, 0, 10), TotalSpent: 100},
		{CustomerID: 2, FirstPurchase: base, LastPurchase: base.AddDate(0, 0, 200), TotalSpent: 900},
	}
	out := BucketRetention(rows)

	assert.Len(t, out, 2)
	assert.Equal(t, "<30d", out[0].Bucket)
	assert.Equal(t, "180+d", out[1].Bucket)
}

func TestCompareRevenue(t *testing.T) {
	cmp := CompareRevenue(
		models.RevenueSummary{TotalRevenue: 1200, TotalSales: 60},
		models.RevenueSummary{TotalRevenue: 1000, TotalSales: 50},
	)

	assert.True(t, cmp.RevenueGrowth.Valid)
	assert.InDelta(t, 20.0, cmp.RevenueGrowth.Float64, 1e-9)
	assert.InDelta(t, 20.0, cmp.SalesGrowth.Float64, 1e-9)

	// No previous-period activity leaves growth undefined, never infinite.
	cmp = CompareRevenue(models.RevenueSummary{TotalRevenue: 500, TotalSales: 10}, models.RevenueSummary{})
	assert.False(t, cmp.RevenueGrowth.Valid)
	assert.False(t, cmp.SalesGrowth.Valid)
}
