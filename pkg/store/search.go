package store

import (
	"context"
	"database/sql"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// Search queries take a sanitized term and page through LIMIT/OFFSET. Sale
// aggregates joined here count completed orders only, so search hits carry
// the same numbers as the report endpoints.

func searchPattern(term string) string {
	return "%" + term + "%"
}

func searchOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// SearchProducts matches product names, alphabetical. Products without
// completed sales still appear with zero counts.
func (s *Store) SearchProducts(ctx context.Context, term string, page, limit int) ([]models.ProductSales, error) {
	query := `
		SELECT
			p.id,
			p.name AS product_name,
			COALESCE(c.name, '') AS category_name,
			COUNT(ps.id) AS times_sold,
			COALESCE(SUM(ps.quantity), 0) AS total_quantity,
			COALESCE(SUM(ps.total_price), 0) AS total_revenue,
			AVG(ps.base_price) AS avg_price
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		LEFT JOIN product_sales ps ON p.id = ps.product_id
		LEFT JOIN sales s ON ps.sale_id = s.id AND s.sale_status_desc = 'COMPLETED'
		WHERE p.name LIKE ? AND p.deleted_at IS NULL
		GROUP BY p.id, p.name, c.name
		ORDER BY p.name
		LIMIT ? OFFSET ?`

	return s.scanProductSales(ctx, "search products", query,
		searchPattern(term), limit, searchOffset(page, limit))
}

// SearchCustomers matches customer names and emails, biggest spenders first.
func (s *Store) SearchCustomers(ctx context.Context, term string, page, limit int) ([]models.CustomerStats, error) {
	query := `
		SELECT
			c.id AS customer_id,
			c.customer_name,
			COALESCE(c.email, '') AS email,
			COUNT(s.id) AS total_purchases,
			COALESCE(SUM(s.total_amount), 0) AS total_spent,
			AVG(s.total_amount) AS avg_ticket,
			MAX(s.created_at) AS last_purchase
		FROM customers c
		LEFT JOIN sales s ON c.id = s.customer_id AND s.sale_status_desc = 'COMPLETED'
		WHERE (c.customer_name LIKE ? OR COALESCE(c.email, '') LIKE ?)
		GROUP BY c.id, c.customer_name, c.email
		ORDER BY total_spent DESC
		LIMIT ? OFFSET ?`

	pattern := searchPattern(term)
	rows, err := s.db.QueryContext(ctx, query, pattern, pattern, limit, searchOffset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	out := make([]models.CustomerStats, 0)
	for rows.Next() {
		var r models.CustomerStats
		var lastPurchase sql.NullTime
		if err := rows.Scan(&r.CustomerID, &r.CustomerName, &r.Email, &r.Frequency, &r.TotalSpent, &r.AvgTicket, &lastPurchase); err != nil {
			return nil, fmt.Errorf("search customers: %w", err)
		}
		r.LastPurchase = lastPurchase.Time
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchSales matches orders by customer name, newest first.
func (s *Store) SearchSales(ctx context.Context, term string, page, limit int) ([]models.SaleRecord, error) {
	query := `
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
		WHERE COALESCE(c.customer_name, '') LIKE ?
		ORDER BY s.created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, searchPattern(term), limit, searchOffset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("search sales: %w", err)
	}
	defer rows.Close()

	out := make([]models.SaleRecord, 0)
	for rows.Next() {
		var r models.SaleRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.CustomerName, &r.StoreName, &r.ChannelName, &r.Status, &r.TotalAmount, &r.DeliveryFee); err != nil {
			return nil, fmt.Errorf("search sales: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
