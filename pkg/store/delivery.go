package store

import (
	"context"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// deliveryTimeCellsQuery carries the sample floor as its last argument so
// the exclusion stays assertable without a database.
func deliveryTimeCellsQuery(f models.QueryFilter) (string, []any) {
	p := salePredicate(f, "s").
		add("s.delivery_seconds IS NOT NULL").
		add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			DAYOFWEEK(s.created_at) AS weekday,
			HOUR(s.created_at) AS hour,
			COUNT(*) AS delivery_count,
			AVG(s.delivery_seconds / 60.0) AS avg_delivery_minutes,
			MIN(s.delivery_seconds / 60.0) AS min_delivery_minutes,
			MAX(s.delivery_seconds / 60.0) AS max_delivery_minutes
		FROM sales s
		%s
		GROUP BY weekday, hour
		HAVING delivery_count >= ?
		ORDER BY weekday, hour`, p.where())
	return query, append(p.args, models.MinDeliverySamplesPerCell)
}

// DeliveryTimeCells groups delivery times by weekday and hour. Cells below
// the sample floor are dropped at the source; a two-delivery cell is noise,
// not a pattern.
func (s *Store) DeliveryTimeCells(ctx context.Context, f models.QueryFilter) ([]models.DeliveryTimeCell, error) {
	query, args := deliveryTimeCellsQuery(f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("delivery time cells: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeliveryTimeCell, 0)
	for rows.Next() {
		var r models.DeliveryTimeCell
		if err := rows.Scan(&r.Weekday, &r.Hour, &r.DeliveryCount, &r.AvgMinutes, &r.MinMinutes, &r.MaxMinutes); err != nil {
			return nil, fmt.Errorf("delivery time cells: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeliveryByRegion summarizes delivery times per city and neighborhood,
// slowest regions first. Regions need a larger sample floor than
// weekday×hour cells.
func (s *Store) DeliveryByRegion(ctx context.Context, f models.QueryFilter) ([]models.RegionDelivery, error) {
	p := salePredicate(f, "s").
		add("s.delivery_seconds IS NOT NULL").
		add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			da.city,
			da.neighborhood,
			COUNT(*) AS delivery_count,
			AVG(s.delivery_seconds / 60.0) AS avg_delivery_minutes,
			MIN(s.delivery_seconds / 60.0) AS min_delivery_minutes,
			MAX(s.delivery_seconds / 60.0) AS max_delivery_minutes,
			COALESCE(STDDEV(s.delivery_seconds / 60.0), 0) AS std_delivery_minutes
		FROM sales s
		INNER JOIN delivery_addresses da ON da.sale_id = s.id
		%s
		GROUP BY da.city, da.neighborhood
		HAVING delivery_count >= ?
		ORDER BY avg_delivery_minutes DESC
		LIMIT ?`, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, models.MinDeliverySamplesRegion, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("delivery by region: %w", err)
	}
	defer rows.Close()

	out := make([]models.RegionDelivery, 0)
	for rows.Next() {
		var r models.RegionDelivery
		if err := rows.Scan(&r.City, &r.Neighborhood, &r.DeliveryCount, &r.AvgMinutes, &r.MinMinutes, &r.MaxMinutes, &r.StdDevMinutes); err != nil {
			return nil, fmt.Errorf("delivery by region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NeighborhoodVolumes ranks neighborhoods by delivery count.
func (s *Store) NeighborhoodVolumes(ctx context.Context, f models.QueryFilter) ([]models.NeighborhoodVolume, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			da.city,
			da.neighborhood,
			COUNT(*) AS delivery_count,
			COALESCE(SUM(%s), 0) AS total_revenue
		FROM delivery_addresses da
		INNER JOIN sales s ON da.sale_id = s.id
		%s
		GROUP BY da.city, da.neighborhood
		ORDER BY delivery_count DESC
		LIMIT ?`, completedAmount, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("neighborhood volumes: %w", err)
	}
	defer rows.Close()

	out := make([]models.NeighborhoodVolume, 0)
	for rows.Next() {
		var r models.NeighborhoodVolume
		if err := rows.Scan(&r.City, &r.Neighborhood, &r.DeliveryCount, &r.Revenue); err != nil {
			return nil, fmt.Errorf("neighborhood volumes: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeliveryStats is the overall delivery scorecard.
func (s *Store) DeliveryStats(ctx context.Context, f models.QueryFilter) (models.DeliveryStats, error) {
	p := salePredicate(f, "s").add("s.delivery_seconds IS NOT NULL")
	query := fmt.Sprintf(`
		SELECT
			COUNT(DISTINCT s.id) AS total_deliveries,
			AVG(s.delivery_seconds / 60.0) AS avg_delivery_minutes,
			AVG(s.delivery_fee) AS avg_delivery_fee,
			AVG(ds.courier_fee) AS avg_courier_fee,
			COALESCE(SUM(s.delivery_fee), 0) AS total_delivery_revenue
		FROM sales s
		LEFT JOIN delivery_sales ds ON s.id = ds.sale_id
		%s`, p.where())

	var out models.DeliveryStats
	err := s.db.QueryRowContext(ctx, query, p.args...).
		Scan(&out.TotalDeliveries, &out.AvgMinutes, &out.AvgDeliveryFee, &out.AvgCourierFee, &out.DeliveryRevenue)
	if err != nil {
		return models.DeliveryStats{}, fmt.Errorf("delivery stats: %w", err)
	}
	return out, nil
}

// CourierPerformance compares courier types, busiest first.
func (s *Store) CourierPerformance(ctx context.Context, f models.QueryFilter) ([]models.CourierPerformance, error) {
	p := salePredicate(f, "s").add("s.delivery_seconds IS NOT NULL")
	query := fmt.Sprintf(`
		SELECT
			ds.courier_type,
			COUNT(*) AS total_deliveries,
			AVG(s.delivery_seconds / 60.0) AS avg_delivery_minutes,
			AVG(s.delivery_fee) AS avg_delivery_fee,
			AVG(ds.courier_fee) AS avg_courier_fee
		FROM delivery_sales ds
		INNER JOIN sales s ON ds.sale_id = s.id
		%s
		GROUP BY ds.courier_type
		ORDER BY total_deliveries DESC`, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("courier performance: %w", err)
	}
	defer rows.Close()

	out := make([]models.CourierPerformance, 0)
	for rows.Next() {
		var r models.CourierPerformance
		if err := rows.Scan(&r.CourierType, &r.TotalDeliveries, &r.AvgMinutes, &r.AvgDeliveryFee, &r.AvgCourierFee); err != nil {
			return nil, fmt.Errorf("courier performance: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
