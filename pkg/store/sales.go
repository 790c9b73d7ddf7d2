package store

import (
	"context"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// completedAmount sums money from completed orders only; cancelled orders
// never contribute revenue no matter what status filter is active.
const (
	completedAmount = "CASE WHEN s.sale_status_desc = 'COMPLETED' THEN s.total_amount ELSE 0 END"
	completedTicket = "CASE WHEN s.sale_status_desc = 'COMPLETED' THEN s.total_amount ELSE NULL END"
)

// revenueSummaryQuery is split out so the money semantics stay assertable
// without a database: the count spans every order in the filter while
// revenue and ticket come from completed orders only.
func revenueSummaryQuery(f models.QueryFilter) (string, []any) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(%s), 0) AS total_revenue,
			COUNT(*) AS total_sales,
			AVG(%s) AS avg_ticket
		FROM sales s
		%s`, completedAmount, completedTicket, p.where())
	return query, p.args
}

func (s *Store) RevenueSummary(ctx context.Context, f models.QueryFilter) (models.RevenueSummary, error) {
	query, args := revenueSummaryQuery(f)

	var out models.RevenueSummary
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&out.TotalRevenue, &out.TotalSales, &out.AvgTicket)
	if err != nil {
		return models.RevenueSummary{}, fmt.Errorf("revenue summary: %w", err)
	}
	return out, nil
}

// periodFormats maps granularity names to MySQL DATE_FORMAT patterns. The
// pattern is interpolated, never user input.
var periodFormats = map[string]string{
	"hour":  "%Y-%m-%d %H:00",
	"day":   "%Y-%m-%d",
	"week":  "%Y-%u",
	"month": "%Y-%m",
}

func (s *Store) SalesByPeriod(ctx context.Context, f models.QueryFilter, granularity string) ([]models.PeriodSales, error) {
	format, ok := periodFormats[granularity]
	if !ok {
		format = periodFormats["day"]
	}

	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			DATE_FORMAT(s.created_at, '%s') AS period,
			COUNT(*) AS order_count,
			SUM(CASE WHEN s.sale_status_desc = 'COMPLETED' THEN 1 ELSE 0 END) AS completed_count,
			SUM(CASE WHEN s.sale_status_desc = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled_count,
			COALESCE(SUM(%s), 0) AS revenue,
			AVG(%s) AS avg_ticket
		FROM sales s
		%s
		GROUP BY period
		ORDER BY period`, format, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("sales by period: %w", err)
	}
	defer rows.Close()

	out := make([]models.PeriodSales, 0)
	for rows.Next() {
		var r models.PeriodSales
		if err := rows.Scan(&r.Period, &r.OrderCount, &r.CompletedCount, &r.CancelledCount, &r.Revenue, &r.AvgTicket); err != nil {
			return nil, fmt.Errorf("sales by period: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SalesByHour(ctx context.Context, f models.QueryFilter) ([]models.HourlySales, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			HOUR(s.created_at) AS hour,
			COUNT(*) AS order_count,
			COALESCE(SUM(%s), 0) AS revenue,
			AVG(%s) AS avg_ticket
		FROM sales s
		%s
		GROUP BY hour
		ORDER BY hour`, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("sales by hour: %w", err)
	}
	defer rows.Close()

	out := make([]models.HourlySales, 0)
	for rows.Next() {
		var r models.HourlySales
		if err := rows.Scan(&r.Hour, &r.OrderCount, &r.Revenue, &r.AvgTicket); err != nil {
			return nil, fmt.Errorf("sales by hour: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SalesByWeekday(ctx context.Context, f models.QueryFilter) ([]models.WeekdaySales, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			DAYOFWEEK(s.created_at) AS weekday,
			COUNT(*) AS order_count,
			COALESCE(SUM(%s), 0) AS revenue,
			AVG(%s) AS avg_ticket
		FROM sales s
		%s
		GROUP BY weekday
		ORDER BY weekday`, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("sales by weekday: %w", err)
	}
	defer rows.Close()

	out := make([]models.WeekdaySales, 0)
	for rows.Next() {
		var r models.WeekdaySales
		if err := rows.Scan(&r.Weekday, &r.OrderCount, &r.Revenue, &r.AvgTicket); err != nil {
			return nil, fmt.Errorf("sales by weekday: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SalesByStore(ctx context.Context, f models.QueryFilter) ([]models.StoreSales, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			st.id AS store_id,
			st.name AS store_name,
			st.city,
			COUNT(s.id) AS order_count,
			COALESCE(SUM(%s), 0) AS revenue,
			AVG(%s) AS avg_ticket
		FROM sales s
		INNER JOIN stores st ON s.store_id = st.id
		%s
		GROUP BY st.id, st.name, st.city
		ORDER BY revenue DESC`, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("sales by store: %w", err)
	}
	defer rows.Close()

	out := make([]models.StoreSales, 0)
	for rows.Next() {
		var r models.StoreSales
		if err := rows.Scan(&r.StoreID, &r.StoreName, &r.City, &r.OrderCount, &r.Revenue, &r.AvgTicket); err != nil {
			return nil, fmt.Errorf("sales by store: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SalesByChannel(ctx context.Context, f models.QueryFilter) ([]models.ChannelSales, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			c.id AS channel_id,
			c.name AS channel_name,
			c.type AS channel_type,
			COUNT(s.id) AS order_count,
			COALESCE(SUM(%s), 0) AS revenue,
			AVG(%s) AS avg_ticket
		FROM sales s
		INNER JOIN channels c ON s.channel_id = c.id
		%s
		GROUP BY c.id, c.name, c.type
		ORDER BY revenue DESC`, completedAmount, completedTicket, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("sales by channel: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChannelSales, 0)
	for rows.Next() {
		var r models.ChannelSales
		if err := rows.Scan(&r.ChannelID, &r.ChannelName, &r.ChannelType, &r.OrderCount, &r.Revenue, &r.AvgTicket); err != nil {
			return nil, fmt.Errorf("sales by channel: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SalesByCategory(ctx context.Context, f models.QueryFilter) ([]models.CategorySales, error) {
	p := salePredicate(f, "s").add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			c.name AS category_name,
			COUNT(DISTINCT p.id) AS product_count,
			COUNT(ps.id) AS times_sold,
			COALESCE(SUM(ps.total_price), 0) AS revenue
		FROM categories c
		LEFT JOIN products p ON c.id = p.category_id
		LEFT JOIN product_sales ps ON p.id = ps.product_id
		LEFT JOIN sales s ON ps.sale_id = s.id
		WHERE c.type = 'P' %s
		GROUP BY c.id, c.name
		HAVING revenue > 0
		ORDER BY revenue DESC`, p.and())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("sales by category: %w", err)
	}
	defer rows.Close()

	out := make([]models.CategorySales, 0)
	for rows.Next() {
		var r models.CategorySales
		if err := rows.Scan(&r.CategoryName, &r.ProductCount, &r.TimesSold, &r.Revenue); err != nil {
			return nil, fmt.Errorf("sales by category: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StatusDistribution counts orders per status over the filtered set; the
// status filter itself is ignored so the split always shows the whole
// picture. Percentages are derived from the counts.
func (s *Store) StatusDistribution(ctx context.Context, f models.QueryFilter) ([]models.StatusShare, error) {
	unfiltered := f
	unfiltered.Status = ""
	p := salePredicate(unfiltered, "s")
	query := fmt.Sprintf(`
		SELECT s.sale_status_desc, COUNT(*) AS count
		FROM sales s
		%s
		GROUP BY s.sale_status_desc
		ORDER BY count DESC`, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	defer rows.Close()

	out := make([]models.StatusShare, 0)
	var total int
	for rows.Next() {
		var r models.StatusShare
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, fmt.Errorf("status distribution: %w", err)
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

// SaleRecords returns raw order rows for export, newest first.
func (s *Store) SaleRecords(ctx context.Context, f models.QueryFilter, limit int) ([]models.SaleRecord, error) {
	p := salePredicate(f, "s")
	query := fmt.Sprintf(`
		SELECT
			s.id,
			s.created_at,
			COALESCE(c.customer_name, '') AS customer_name,
			st.name AS store_name,
			ch.name AS channel_name,
			s.sale_status_desc,
			s.total_amount,
			COALESCE(s.delivery_fee, 0) AS delivery_fee
		FROM sales s
		LEFT JOIN customers c ON s.customer_id = c.id
		INNER JOIN stores st ON s.store_id = st.id
		INNER JOIN channels ch ON s.channel_id = ch.id
		%s
		ORDER BY s.created_at DESC
		LIMIT ?`, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("sale records: %w", err)
	}
	defer rows.Close()

	out := make([]models.SaleRecord, 0)
	for rows.Next() {
		var r models.SaleRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.CustomerName, &r.StoreName, &r.ChannelName, &r.Status, &r.TotalAmount, &r.DeliveryFee); err != nil {
			return nil, fmt.Errorf("sale records: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
