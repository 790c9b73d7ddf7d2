package services

import (
	"sort"
	"time"

	"bistro-analytics-api/pkg/models"
)

// Derivator computes secondary metrics that cannot be expressed as plain
// sums or averages. The reference clock is injectable so recency-dependent
// output is deterministic under test.
type Derivator struct {
	Now func() time.Time
}

func NewDerivator() *Derivator {
	return &Derivator{Now: time.Now}
}

// MarginPercent computes (revenue-cost)/revenue*100, undefined when revenue
// is zero.
func MarginPercent(revenue, cost float64) models.NullableFloat {
	return models.Ratio(revenue-cost, revenue, 100)
}

// CompletionRate is completed/total*100, undefined when total is zero.
func CompletionRate(completed, total int) models.NullableFloat {
	return models.Ratio(float64(completed), float64(total), 100)
}

// CancellationRate is cancelled/total*100, undefined when total is zero.
func CancellationRate(cancelled, total int) models.NullableFloat {
	return models.Ratio(float64(cancelled), float64(total), 100)
}

// DeviationPercent is (observed-baseline)/baseline*100, undefined when the
// baseline is zero.
func DeviationPercent(observed, baseline float64) models.NullableFloat {
	return models.Ratio(observed-baseline, baseline, 100)
}

// RecencyDays is the whole number of days between last activity and now.
func (d *Derivator) RecencyDays(last time.Time) int {
	return int(d.Now().Sub(last).Hours() / 24)
}

// EnrichCustomers fills recency and RFM segment on each row. Rows are not
// reordered; callers own the sort.
func (d *Derivator) EnrichCustomers(rows []models.CustomerStats) {
	for i := range rows {
		rows[i].RecencyDays = d.RecencyDays(rows[i].LastPurchase)
		rows[i].Segment = SegmentCustomer(rows[i].RecencyDays, rows[i].Frequency)
	}
}

// ChurnRisk filters customers with an established habit (>= ChurnMinOrders
// completed orders) that have gone quiet past the inactivity threshold.
// Result ordered by total spent desc, then recency desc, capped at
// ChurnRiskListLimit, matching the churn report contract.
func (d *Derivator) ChurnRisk(rows []models.CustomerStats) []models.CustomerStats {
	out := make([]models.CustomerStats, 0)
	for _, r := range rows {
		recency := d.RecencyDays(r.LastPurchase)
		if r.Frequency >= models.ChurnMinOrders && recency > models.ChurnInactiveDays {
			r.RecencyDays = recency
			r.Segment = SegmentCustomer(recency, r.Frequency)
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalSpent != out[j].TotalSpent {
			return out[i].TotalSpent > out[j].TotalSpent
		}
		return out[i].RecencyDays > out[j].RecencyDays
	})
	if len(out) > models.ChurnRiskListLimit {
		out = out[:models.ChurnRiskListLimit]
	}
	return out
}

// EnrichMargins fills the margin tier on each product row. Undefined margins
// stay unclassified.
func EnrichMargins(rows []models.ProductMargin) {
	for i := range rows {
		rows[i].MarginTier = MarginTier(rows[i].MarginPercent)
	}
}

// EnrichDeliveryCells computes each cell's deviation against the overall
// average of the full candidate set. The baseline is computed exactly once
// here and shared across rows; recomputing it after dropping outliers would
// move the baseline and break idempotence.
func EnrichDeliveryCells(cells []models.DeliveryTimeCell) float64 {
	if len(cells) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cells {
		sum += c.AvgMinutes
	}
	baseline := sum / float64(len(cells))
	for i := range cells {
		cells[i].WeekdayName = models.WeekdayName(cells[i].Weekday)
		cells[i].DeviationPercent = DeviationPercent(cells[i].AvgMinutes, baseline)
	}
	return baseline
}

// EnrichStoreEfficiency derives completion/cancellation rates and the
// completion tier, then applies the report order: completion rate desc,
// revenue desc.
func EnrichStoreEfficiency(rows []models.StoreEfficiency) {
	for i := range rows {
		rows[i].CompletionRate = CompletionRate(rows[i].CompletedOrders, rows[i].TotalOrders)
		rows[i].CancellationRate = CancellationRate(rows[i].CancelledOrders, rows[i].TotalOrders)
		rows[i].CompletionTier = CompletionTier(rows[i].CompletionRate)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].CompletionRate, rows[j].CompletionRate
		if ri.Valid != rj.Valid {
			return ri.Valid
		}
		if ri.Valid && ri.Float64 != rj.Float64 {
			return ri.Float64 > rj.Float64
		}
		return rows[i].Revenue > rows[j].Revenue
	})
}

// EnrichChannelPerformance derives the completion rate and tier per channel.
// Rows keep the row source's revenue-desc order.
func EnrichChannelPerformance(rows []models.ChannelPerformance) {
	for i := range rows {
		rows[i].CompletionRate = CompletionRate(rows[i].CompletedOrders, rows[i].TotalOrders)
		rows[i].CompletionTier = CompletionTier(rows[i].CompletionRate)
	}
}

// EnrichPeakHours grades every hour against the mean hourly order count,
// computed once over the full set.
func EnrichPeakHours(rows []models.PeakHour) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total int
	for _, r := range rows {
		total += r.OrderCount
	}
	mean := float64(total) / float64(len(rows))
	for i := range rows {
		rows[i].VolumeCategory = VolumeCategory(rows[i].OrderCount, mean)
	}
	return mean
}

// EnrichCapacity labels each store×hour cell with its load tier.
func EnrichCapacity(rows []models.CapacityCell) {
	for i := range rows {
		rows[i].CapacityLevel = CapacityLevel(rows[i].OrdersPerHour)
	}
}

// BucketFrequency groups per-customer aggregates into purchase-frequency
// buckets, ordered 1 → 11+.
func BucketFrequency(rows []models.CustomerStats) []models.FrequencyBucket {
	byLabel := make(map[string]*models.FrequencyBucket)
	for _, r := range rows {
		label := FrequencyBucketLabel(r.Frequency)
		b, ok := byLabel[label]
		if !ok {
			b = &models.FrequencyBucket{Bucket: label}
			byLabel[label] = b
		}
		b.CustomerCount++
		b.Revenue += r.TotalSpent
	}
	out := make([]models.FrequencyBucket, 0, len(byLabel))
	for _, b := range byLabel {
		b.AvgLifetime = models.Ratio(b.Revenue, float64(b.CustomerCount), 1)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return bucketRank(frequencyBucketOrder, out[i].Bucket) < bucketRank(frequencyBucketOrder, out[j].Bucket)
	})
	return out
}

// BucketRetention groups customer first-to-last order spans into retention
// buckets.
func BucketRetention(rows []models.CustomerSpan) []models.RetentionBucket {
	byLabel := make(map[string]*models.RetentionBucket)
	for _, r := range rows {
		span := int(r.LastPurchase.Sub(r.FirstPurchase).Hours() / 24)
		label := RetentionBucketLabel(span)
		b, ok := byLabel[label]
		if !ok {
			b = &models.RetentionBucket{Bucket: label}
			byLabel[label] = b
		}
		b.CustomerCount++
		b.Revenue += r.TotalSpent
	}
	out := make([]models.RetentionBucket, 0, len(byLabel))
	for _, b := range byLabel {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return bucketRank(retentionBucketOrder, out[i].Bucket) < bucketRank(retentionBucketOrder, out[j].Bucket)
	})
	return out
}

// BucketNewVsReturning splits customers into first-time and repeat buyers.
func BucketNewVsReturning(rows []models.CustomerStats) []models.NewVsReturning {
	newCustomers := models.NewVsReturning{CustomerType: "New"}
	returning := models.NewVsReturning{CustomerType: "Returning"}
	for _, r := range rows {
		if r.Frequency <= 1 {
			newCustomers.Count++
			newCustomers.Revenue += r.TotalSpent
		} else {
			returning.Count++
			returning.Revenue += r.TotalSpent
		}
	}
	return []models.NewVsReturning{newCustomers, returning}
}

// BucketLTV groups customers into lifetime-value segments, highest first.
func BucketLTV(rows []models.CustomerStats) []models.LTVSegment {
	byLabel := make(map[string]*models.LTVSegment)
	for _, r := range rows {
		label := LTVSegmentLabel(r.TotalSpent)
		b, ok := byLabel[label]
		if !ok {
			b = &models.LTVSegment{Segment: label}
			byLabel[label] = b
		}
		b.CustomerCount++
		b.Revenue += r.TotalSpent
	}
	out := make([]models.LTVSegment, 0, len(byLabel))
	for _, b := range byLabel {
		b.AvgLTV = models.Ratio(b.Revenue, float64(b.CustomerCount), 1)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return bucketRank(ltvSegmentOrder, out[i].Segment) < bucketRank(ltvSegmentOrder, out[j].Segment)
	})
	return out
}

// CompareRevenue derives growth percentages for a current-vs-previous pair.
func CompareRevenue(current, previous models.RevenueSummary) models.Comparison {
	return models.Comparison{
		Current:       current,
		Previous:      previous,
		RevenueGrowth: models.Ratio(current.TotalRevenue-previous.TotalRevenue, previous.TotalRevenue, 100),
		SalesGrowth:   models.Ratio(float64(current.TotalSales-previous.TotalSales), float64(previous.TotalSales), 100),
	}
}
