package store

import (
	"context"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

// CustomerStats aggregates completed orders per customer, biggest spenders
// first. Limit 0 returns the whole population; segment distributions need
// every customer, not a ranked page.
func (s *Store) CustomerStats(ctx context.Context, f models.QueryFilter) ([]models.CustomerStats, error) {
	p := salePredicate(f, "s").add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			c.id AS customer_id,
			c.customer_name,
			COALESCE(c.email, '') AS email,
			COUNT(s.id) AS total_purchases,
			COALESCE(SUM(s.total_amount), 0) AS total_spent,
			AVG(s.total_amount) AS avg_ticket,
			MAX(s.created_at) AS last_purchase
		FROM customers c
		INNER JOIN sales s ON c.id = s.customer_id
		%s
		GROUP BY c.id, c.customer_name, c.email
		ORDER BY total_spent DESC`, p.where())

	args := p.args
	if f.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customer stats: %w", err)
	}
	defer rows.Close()

	out := make([]models.CustomerStats, 0)
	for rows.Next() {
		var r models.CustomerStats
		if err := rows.Scan(&r.CustomerID, &r.CustomerName, &r.Email, &r.Frequency, &r.TotalSpent, &r.AvgTicket, &r.LastPurchase); err != nil {
			return nil, fmt.Errorf("customer stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CustomerSpans returns each customer's first-to-last completed-order
// window for retention bucketing.
func (s *Store) CustomerSpans(ctx context.Context, f models.QueryFilter) ([]models.CustomerSpan, error) {
	p := salePredicate(f, "s").add("s.sale_status_desc = 'COMPLETED'")
	query := fmt.Sprintf(`
		SELECT
			c.id AS customer_id,
			MIN(s.created_at) AS first_purchase,
			MAX(s.created_at) AS last_purchase,
			COUNT(s.id) AS frequency,
			COALESCE(SUM(s.total_amount), 0) AS total_spent
		FROM customers c
		INNER JOIN sales s ON c.id = s.customer_id
		%s
		GROUP BY c.id`, p.where())

	rows, err := s.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("customer spans: %w", err)
	}
	defer rows.Close()

	out := make([]models.CustomerSpan, 0)
	for rows.Next() {
		var r models.CustomerSpan
		if err := rows.Scan(&r.CustomerID, &r.FirstPurchase, &r.LastPurchase, &r.Frequency, &r.TotalSpent); err != nil {
			return nil, fmt.Errorf("customer spans: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
