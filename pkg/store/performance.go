package store

import (
	"context"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// StoreEfficiency returns raw per-store order counts and completed-only
// money. Rates and tiers are derived upstream from the counts.
func (s *Store) StoreEfficiency(ctx context.Context, f models.QueryFilter) ([]models.StoreEfficiency, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			st.id AS store_id,
			st.name AS store_name,
			st.city,
			COUNT(s.id) AS total_orders,
			SUM(CASE WHEN s.sale_status_desc = 'COMPLETED' THEN 1 ELSE 0 END) AS completed_orders,
			SUM(CASE WHEN s.sale_status_desc = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled_orders,
			AVG(CASE WHEN s.delivery_seconds IS NOT NULL AND s.sale_status_desc = 'COMPLETED' THEN s.delivery_seconds / 60.0 ELSE NULL END) AS avg_delivery_time,
			COALESCE(SUM(%s), 0) AS total_revenue,
			AVG(%s) AS avg_ticket
		FROM stores st
		INNER JOIN sales s ON s.store_id = st.id
		%s
		GROUP BY st.id, st.name, st.city`, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("store efficiency: %w", err)
	}
	defer rows.Close()

	out := make([]models.StoreEfficiency, 0)
	for rows.Next() {
		var r models.StoreEfficiency
		if err := rows.Scan(&r.StoreID, &r.StoreName, &r.City, &r.TotalOrders, &r.CompletedOrders, &r.CancelledOrders, &r.AvgDeliveryMinutes, &r.Revenue, &r.AvgTicket); err != nil {
			return nil, fmt.Errorf("store efficiency: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ChannelPerformance(ctx context.Context, f models.QueryFilter) ([]models.ChannelPerformance, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			ch.id AS channel_id,
			ch.name AS channel_name,
			COUNT(s.id) AS total_orders,
			SUM(CASE WHEN s.sale_status_desc = 'COMPLETED' THEN 1 ELSE 0 END) AS completed_orders,
			COALESCE(SUM(%s), 0) AS total_revenue,
			AVG(%s) AS avg_ticket,
			AVG(CASE WHEN s.delivery_seconds IS NOT NULL AND s.sale_status_desc = 'COMPLETED' THEN s.delivery_seconds / 60.0 ELSE NULL END) AS avg_delivery_time
		FROM channels ch
		INNER JOIN sales s ON s.channel_id = ch.id
		%s
		GROUP BY ch.id, ch.name
		ORDER BY total_revenue DESC`, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("channel performance: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChannelPerformance, 0)
	for rows.Next() {
		var r models.ChannelPerformance
		if err := rows.Scan(&r.ChannelID, &r.ChannelName, &r.TotalOrders, &r.CompletedOrders, &r.Revenue, &r.AvgTicket, &r.AvgDeliveryMinutes); err != nil {
			return nil, fmt.Errorf("channel performance: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PeakHours returns the hourly order volume; the volume grade against the
// mean is attached upstream.
func (s *Store) PeakHours(ctx context.Context, f models.QueryFilter) ([]models.PeakHour, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			HOUR(s.created_at) AS hour,
			COUNT(*) AS order_count,
			COALESCE(SUM(%s), 0) AS revenue,
			AVG(CASE WHEN s.delivery_seconds IS NOT NULL AND s.sale_status_desc = 'COMPLETED' THEN s.delivery_seconds / 60.0 ELSE NULL END) AS avg_delivery_time
		FROM sales s
		%s
		GROUP BY hour
		ORDER BY hour`, completedAmount, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("peak hours: %w", err)
	}
	defer rows.Close()

	out := make([]models.PeakHour, 0)
	for rows.Next() {
		var r models.PeakHour
		if err := rows.Scan(&r.Hour, &r.OrderCount, &r.Revenue, &r.AvgDeliveryMinutes); err != nil {
			return nil, fmt.Errorf("peak hours: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CapacityCells measures order load per store and hour.
func (s *Store) CapacityCells(ctx context.Context, f models.QueryFilter) ([]models.CapacityCell, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			st.id AS store_id,
			st.name AS store_name,
			HOUR(s.created_at) AS hour,
			COUNT(*) AS orders_per_hour,
			AVG(CASE WHEN s.delivery_seconds IS NOT NULL THEN s.delivery_seconds / 60.0 ELSE NULL END) AS avg_delivery_time
		FROM sales s
		INNER JOIN stores st ON st.id = s.store_id
		%s
		GROUP BY st.id, st.name, hour
		HAVING orders_per_hour > 0
		ORDER BY st.name, hour`, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("capacity cells: %w", err)
	}
	defer rows.Close()

	out := make([]models.CapacityCell, 0)
	for rows.Next() {
		var r models.CapacityCell
		if err := rows.Scan(&r.StoreID, &r.StoreName, &r.Hour, &r.OrdersPerHour, &r.AvgDeliveryMinutes); err != nil {
			return nil, fmt.Errorf("capacity cells: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TicketGroups returns per-store and per-channel completed-only average
// tickets in a single pass for the ticket comparison.
func (s *Store) TicketGroups(ctx context.Context, f models.QueryFilter) ([]models.TicketGroup, error) {
	storePred := salePredicate(f, "s")
	channelPred := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT 'store' AS type, st.name AS name, AVG(%s) AS avg_ticket, COUNT(s.id) AS order_count
		FROM sales s
		INNER JOIN stores st ON st.id = s.store_id
		%s
		GROUP BY st.id, st.name
		UNION ALL
		SELECT 'channel' AS type, ch.name AS name, AVG(%s) AS avg_ticket, COUNT(s.id) AS order_count
		FROM sales s
		INNER JOIN channels ch ON ch.id = s.channel_id
		%s
		GROUP BY ch.id, ch.name
		ORDER BY type, avg_ticket DESC`,
		completedTicket, storePred.where(), completedTicket, channelPred.where())

	rows, err := s.db.QueryContext(ctx, query, append(storePred.args, channelPred.args...)...)
	if err != nil {
		return nil, fmt.Errorf("ticket groups: %w", err)
	}
	defer rows.Close()

	out := make([]models.TicketGroup, 0)
	for rows.Next() {
		var r models.TicketGroup
		if err := rows.Scan(&r.Type, &r.Name, &r.AvgTicket, &r.OrderCount); err != nil {
			return nil, fmt.Errorf("ticket groups: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ProductionTime(ctx context.Context, f models.QueryFilter) (models.OperationalTime, error) {
	return s.operationalTime(ctx, f, "production_seconds")
}

func (s *Store) DeliveryTime(ctx context.Context, f models.QueryFilter) (models.OperationalTime, error) {
	return s.operationalTime(ctx, f, "delivery_seconds")
}

func (s *Store) operationalTime(ctx context.Context, f models.QueryFilter, column string) (models.OperationalTime, error) {
	p := salePredicate(f, "s").
		add("s." + column + " IS NOT NULL").
		add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			AVG(s.%[1]s / 60.0) AS avg_minutes,
			MIN(s.%[1]s / 60.0) AS min_minutes,
			MAX(s.%[1]s / 60.0) AS max_minutes
		FROM sales s
		%[2]s`, column, p.where())

	var out models.OperationalTime
	err := s.db.QueryRowContext(ctx, query, p.args...).
		Scan(&out.AvgMinutes, &out.MinMinutes, &out.MaxMinutes)
	if err != nil {
		return models.OperationalTime{}, fmt.Errorf("%s summary: %w", column, err)
	}
	return out, nil
}

// CancellationReasons breaks cancelled orders down by reason. The share is
// computed against the filtered cancelled total.
func (s *Store) CancellationReasons(ctx context.Context, f models.QueryFilter) ([]models.CancellationReason, error) {
	unfiltered := f
	unfiltered.Status = ""
	p := salePredicate(unfiltered, "s").
		add("s.sale_status_desc = 'CANCELLED'").
		add("s.cancellation_reason IS NOT NULL")
	query := fmt.Sprintf(`
		SELECT
			s.cancellation_reason,
			COUNT(*) AS cancellation_count,
			AVG(s.total_amount) AS avg_order_value
		FROM sales s
		%s
		GROUP BY s.cancellation_reason
		ORDER BY cancellation_count DESC`, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("cancellation reasons: %w", err)
	}
	defer rows.Close()

	out := make([]models.CancellationReason, 0)
	var total int
	for rows.Next() {
		var r models.CancellationReason
		if err := rows.Scan(&r.Reason, &r.Count, &r.AvgOrderValue); err != nil {
			return nil, fmt.Errorf("cancellation reasons: %w", err)
		}
		total += r.Count
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Percentage = models.Ratio(float64(out[i].Count), float64(total), 100)
	}
	return out, nil
}
