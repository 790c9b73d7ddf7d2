package services

import (
	"fmt"
	"sort"

	"bistro-analytics-api/pkg/models"
)

// AnalyzeTicketTrend flags stores and channels whose completed-order average
// ticket sits below the low-performer ratio of their own group's average.
// Each group type is measured against its own baseline; mixing store and
// channel tickets in one average would punish whichever side skews cheaper.
func AnalyzeTicketTrend(groups []models.TicketGroup) []models.Insight {
	baselines := make(map[models.TicketGroupType]float64)
	counts := make(map[models.TicketGroupType]int)
	for _, g := range groups {
		if !g.AvgTicket.Valid {
			continue
		}
		baselines[g.Type] += g.AvgTicket.Float64
		counts[g.Type]++
	}
	for t, n := range counts {
		baselines[t] /= float64(n)
	}

	insights := make([]models.Insight, 0)
	var storeHits, channelHits int
	for _, g := range groups {
		baseline, ok := baselines[g.Type]
		if !ok || !g.AvgTicket.Valid {
			continue
		}
		threshold := baseline * models.LowPerformerRatio
		if g.AvgTicket.Float64 >= threshold {
			continue
		}
		if g.Type == models.TicketGroupStore {
			storeHits++
		} else {
			channelHits++
		}
		dev := DeviationPercent(g.AvgTicket.Float64, baseline)
		insights = append(insights, models.Insight{
			Subject:          g.Name,
			Baseline:         baseline,
			Observed:         g.AvgTicket.Float64,
			DeviationPercent: dev.Float64,
			Severity:         severityForDeviation(-dev.Float64),
			Narrative: fmt.Sprintf("%s averages %.2f per order, %s below the %s average of %.2f",
				g.Name, g.AvgTicket.Float64, formatPercent(-dev.Float64), g.Type, baseline),
		})
	}
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].DeviationPercent < insights[j].DeviationPercent
	})
	if len(counts) > 0 {
		insights = append(insights, ticketTrendSummary(storeHits, channelHits))
	}
	return insights
}

// ticketTrendSummary names the side with more low performers; stores win ties
// only when they have strictly more hits.
func ticketTrendSummary(storeHits, channelHits int) models.Insight {
	var narrative string
	switch {
	case storeHits > channelHits:
		narrative = fmt.Sprintf("ticket weakness is concentrated in %d store(s)", storeHits)
	case channelHits > 0:
		narrative = fmt.Sprintf("ticket weakness is concentrated in %d channel(s)", channelHits)
	default:
		narrative = "average ticket is balanced across stores and channels"
	}
	return models.Insight{
		Subject:   "average ticket",
		Severity:  models.SeverityInfo,
		Narrative: narrative,
	}
}

// AnalyzeDeliveryDegradation returns the weekday×hour cells whose average
// delivery time exceeds the degraded-ratio multiple of the overall baseline,
// worst first, capped at three. The baseline must come from the same call
// that enriched the cells so both report the same reference.
func AnalyzeDeliveryDegradation(cells []models.DeliveryTimeCell, baseline float64) []models.Insight {
	if baseline == 0 {
		return nil
	}
	threshold := baseline * models.DeliveryDegradedRatio
	degraded := make([]models.DeliveryTimeCell, 0)
	for _, c := range cells {
		if c.AvgMinutes > threshold {
			degraded = append(degraded, c)
		}
	}
	sort.SliceStable(degraded, func(i, j int) bool {
		return degraded[i].AvgMinutes > degraded[j].AvgMinutes
	})
	if len(degraded) > 3 {
		degraded = degraded[:3]
	}

	insights := make([]models.Insight, 0, len(degraded))
	for _, c := range degraded {
		dev := DeviationPercent(c.AvgMinutes, baseline)
		insights = append(insights, models.Insight{
			Subject:          fmt.Sprintf("%s %02d:00", models.WeekdayName(c.Weekday), c.Hour),
			Baseline:         baseline,
			Observed:         c.AvgMinutes,
			DeviationPercent: dev.Float64,
			Severity:         severityForDeviation(dev.Float64),
			Narrative: fmt.Sprintf("deliveries on %s at %02d:00 average %.1f min, %s above the overall %.1f min",
				models.WeekdayName(c.Weekday), c.Hour, c.AvgMinutes, formatPercent(dev.Float64), baseline),
		})
	}
	return insights
}

// LowMarginSummary reports how many ranked products fall in each margin tier.
// Rows must already carry their tier.
func LowMarginSummary(rows []models.ProductMargin) *models.Insight {
	if len(rows) == 0 {
		return nil
	}
	var critical, warning int
	for _, r := range rows {
		switch r.MarginTier {
		case TierCritical:
			critical++
		case TierWarning:
			warning++
		}
	}
	if critical == 0 && warning == 0 {
		return nil
	}
	severity := models.SeverityWarning
	if critical > 0 {
		severity = models.SeverityCritical
	}
	return &models.Insight{
		Subject:   "product margins",
		Observed:  float64(critical + warning),
		Severity:  severity,
		Narrative: fmt.Sprintf("%d product(s) below %.0f%% margin, %d more under %.0f%%", critical, models.MarginCriticalBelow, warning, models.MarginHealthyFrom),
	}
}

// DescribeTopCombination narrates the single best-selling product for a
// channel×weekday×hour slice. Returns nil when the slice is empty.
func DescribeTopCombination(rows []models.ProductDayHour) *models.Insight {
	if len(rows) == 0 {
		return nil
	}
	top := rows[0]
	return &models.Insight{
		Subject:  top.ProductName,
		Observed: float64(top.TimesSold),
		Severity: models.SeverityInfo,
		Narrative: fmt.Sprintf("%s leads on %s via %s at %02d:00 with %d sales",
			top.ProductName, models.WeekdayName(top.Weekday), top.ChannelName, top.Hour, top.TimesSold),
	}
}
