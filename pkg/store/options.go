package store

import (
	"context"
	"fmt"

	"bistro-analytics-api/pkg/models"
)

func (s *Store) Stores(ctx context.Context) ([]models.FilterOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, city FROM stores WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store options: %w", err)
	}
	defer rows.Close()

	out := make([]models.FilterOption, 0)
	for rows.Next() {
		var o models.FilterOption
		if err := rows.Scan(&o.ID, &o.Name, &o.City); err != nil {
			return nil, fmt.Errorf("store options: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) Channels(ctx context.Context) ([]models.FilterOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("channel options: %w", err)
	}
	defer rows.Close()

	out := make([]models.FilterOption, 0)
	for rows.Next() {
		var o models.FilterOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Type); err != nil {
			return nil, fmt.Errorf("channel options: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]models.FilterOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT id, name FROM categories WHERE type = 'P' AND deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("category options: %w", err)
	}
	defer rows.Close()

	out := make([]models.FilterOption, 0)
	for rows.Next() {
		var o models.FilterOption
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, fmt.Errorf("category options: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
