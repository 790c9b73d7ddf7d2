package store

import (
	"context"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// productPredicate is the sale predicate plus the category filter, which
// lives on the products table.
func productPredicate(f models.QueryFilter) *predicate {
	p := salePredicate(f, "s")
	if f.CategoryID != 0 {
		p.add("p.category_id = ?", f.CategoryID)
	}
	return p
}

func (s *Store) TopProducts(ctx context.Context, f models.QueryFilter) ([]models.ProductSales, error) {
	p := productPredicate(f).add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			p.id,
			p.name AS product_name,
			COALESCE(c.name, '') AS category_name,
			COUNT(ps.id) AS times_sold,
			COALESCE(SUM(ps.quantity), 0) AS total_quantity,
			COALESCE(SUM(ps.total_price), 0) AS total_revenue,
			AVG(ps.base_price) AS avg_price
		FROM products p
		INNER JOIN product_sales ps ON p.id = ps.product_id
		INNER JOIN sales s ON ps.sale_id = s.id
		LEFT JOIN categories c ON p.category_id = c.id
		%s
		GROUP BY p.id, p.name, c.name
		ORDER BY total_revenue DESC
		LIMIT ?`, p.where())

	return s.scanProductSales(ctx, "top products", query, append(p.args, f.Limit)...)
}

// LowPerformingProducts lists products that sold fewer times than the
// ranking floor, least sold first.
func (s *Store) LowPerformingProducts(ctx context.Context, f models.QueryFilter) ([]models.ProductSales, error) {
	p := productPredicate(f).add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			p.id,
			p.name AS product_name,
			COALESCE(c.name, '') AS category_name,
			COUNT(ps.id) AS times_sold,
			COALESCE(SUM(ps.quantity), 0) AS total_quantity,
			COALESCE(SUM(ps.total_price), 0) AS total_revenue,
			AVG(ps.base_price) AS avg_price
		FROM products p
		LEFT JOIN product_sales ps ON p.id = ps.product_id
		LEFT JOIN sales s ON ps.sale_id = s.id %s
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.deleted_at IS NULL
		GROUP BY p.id, p.name, c.name
		HAVING times_sold < ?
		ORDER BY times_sold ASC, total_revenue ASC
		LIMIT ?`, p.and())

	return s.scanProductSales(ctx, "low performing products", query,
		append(p.args, models.MinSalesForMarginRanking, f.Limit)...)
}

func (s *Store) scanProductSales(ctx context.Context, op, query string, args ...any) ([]models.ProductSales, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.ProductSales, 0)
	for rows.Next() {
		var r models.ProductSales
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.CategoryName, &r.TimesSold, &r.Quantity, &r.Revenue, &r.AvgPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProductMargins returns revenue and cost per product for the margin
// ranking. Products below the sample floor are excluded so a single lucky
// or broken sale cannot dominate the ranking. Lowest margin first.
func (s *Store) ProductMargins(ctx context.Context, f models.QueryFilter) ([]models.ProductMargin, error) {
	p := productPredicate(f).add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			p.id,
			p.name AS product_name,
			COALESCE(c.name, '') AS category_name,
			COUNT(ps.id) AS times_sold,
			COALESCE(SUM(ps.total_price), 0) AS revenue,
			COALESCE(SUM(ps.cost_price * ps.quantity), 0) AS cost
		FROM products p
		INNER JOIN product_sales ps ON p.id = ps.product_id
		INNER JOIN sales s ON ps.sale_id = s.id
		LEFT JOIN categories c ON p.category_id = c.id
		%s
		GROUP BY p.id, p.name, c.name
		HAVING times_sold >= ?
		ORDER BY (revenue - cost) / NULLIF(revenue, 0) ASC
		LIMIT ?`, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, models.MinSalesForMarginRanking, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("product margins: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProductMargin, 0)
	for rows.Next() {
		var r models.ProductMargin
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.CategoryName, &r.TimesSold, &r.Revenue, &r.Cost); err != nil {
			return nil, fmt.Errorf("product margins: %w", err)
		}
		r.MarginPercent = models.Ratio(r.Revenue-r.Cost, r.Revenue, 100)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProductsByDayHour ranks products inside channel×weekday×hour cells.
func (s *Store) ProductsByDayHour(ctx context.Context, f models.QueryFilter) ([]models.ProductDayHour, error) {
	p := productPredicate(f).add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			p.name AS product_name,
			ch.name AS channel_name,
			DAYOFWEEK(s.created_at) AS weekday,
			HOUR(s.created_at) AS hour,
			COUNT(ps.id) AS times_sold,
			COALESCE(SUM(ps.quantity), 0) AS total_quantity,
			COALESCE(SUM(ps.total_price), 0) AS revenue
		FROM product_sales ps
		INNER JOIN products p ON ps.product_id = p.id
		INNER JOIN sales s ON ps.sale_id = s.id
		INNER JOIN channels ch ON s.channel_id = ch.id
		%s
		GROUP BY p.id, p.name, ch.id, ch.name, weekday, hour
		ORDER BY times_sold DESC
		LIMIT ?`, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("products by day hour: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProductDayHour, 0)
	for rows.Next() {
		var r models.ProductDayHour
		if err := rows.Scan(&r.ProductName, &r.ChannelName, &r.Weekday, &r.Hour, &r.TimesSold, &r.Quantity, &r.Revenue); err != nil {
			return nil, fmt.Errorf("products by day hour: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopItems ranks add-on items by how often they are attached to a sale.
func (s *Store) TopItems(ctx context.Context, f models.QueryFilter) ([]models.ItemStats, error) {
	p := salePredicate(f, "s").add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			i.name AS item_name,
			COALESCE(c.name, '') AS category_name,
			COUNT(ips.id) AS times_added,
			COALESCE(SUM(ips.additional_price), 0) AS revenue_generated,
			AVG(ips.additional_price) AS avg_price
		FROM items i
		INNER JOIN item_product_sales ips ON i.id = ips.item_id
		INNER JOIN product_sales ps ON ips.product_sale_id = ps.id
		INNER JOIN sales s ON ps.sale_id = s.id
		LEFT JOIN categories c ON i.category_id = c.id
		%s
		GROUP BY i.id, i.name, c.name
		ORDER BY times_added DESC
		LIMIT ?`, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("top items: %w", err)
	}
	defer rows.Close()

	out := make([]models.ItemStats, 0)
	for rows.Next() {
		var r models.ItemStats
		if err := rows.Scan(&r.ItemName, &r.CategoryName, &r.TimesAdded, &r.Revenue, &r.AvgPrice); err != nil {
			return nil, fmt.Errorf("top items: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CustomizedProducts ranks products by how often sales of them carry at
// least one add-on item.
func (s *Store) CustomizedProducts(ctx context.Context, f models.QueryFilter) ([]models.CustomizedProduct, error) {
	p := productPredicate(f).add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			p.name AS product_name,
			COUNT(DISTINCT ips.id) AS customization_count,
			COUNT(DISTINCT ps.id) AS times_sold
		FROM products p
		INNER JOIN product_sales ps ON p.id = ps.product_id
		LEFT JOIN item_product_sales ips ON ps.id = ips.product_sale_id
		INNER JOIN sales s ON ps.sale_id = s.id
		%s
		GROUP BY p.id, p.name
		HAVING customization_count > 0
		ORDER BY customization_count / times_sold DESC
		LIMIT ?`, p.where())

	rows, err := s.db.QueryContext(ctx, query, append(p.args, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("customized products: %w", err)
	}
	defer rows.Close()

	out := make([]models.CustomizedProduct, 0)
	for rows.Next() {
		var r models.CustomizedProduct
		if err := rows.Scan(&r.ProductName, &r.CustomizationCount, &r.TimesSold); err != nil {
			return nil, fmt.Errorf("customized products: %w", err)
		}
		r.CustomizationRate = models.Ratio(float64(r.CustomizationCount), float64(r.TimesSold), 100)
		out = append(out, r)
	}
	return out, rows.Err()
}
