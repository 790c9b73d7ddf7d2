package store

import (
	"strings"

	"bistro-analytics-api/pkg/models"
)

// predicate accumulates filter conditions against the sales table. Every
// query method starts from the normalized filter and may add its own fixed
// conditions before rendering.
type predicate struct {
	conds []string
	args  []any
}

// salePredicate renders the filter fields that live on the sales table.
// The category filter is not included; it belongs to product joins and is
// applied by the queries that have one.
func salePredicate(f models.QueryFilter, alias string) *predicate {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	p := &predicate{}
	if !f.StartDate.IsZero() {
		p.add(col("created_at")+" >= ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		p.add(col("created_at")+" <= ?", f.EndDate)
	}
	if f.StoreID != 0 {
		p.add(col("store_id")+" = ?", f.StoreID)
	}
	if f.ChannelID != 0 {
		p.add(col("channel_id")+" = ?", f.ChannelID)
	}
	if f.CustomerID != 0 {
		p.add(col("customer_id")+" = ?", f.CustomerID)
	}
	if f.Weekday != models.Absent {
		p.add("DAYOFWEEK("+col("created_at")+") = ?", f.Weekday)
	}
	if f.Hour != models.Absent {
		p.add("HOUR("+col("created_at")+") = ?", f.Hour)
	}
	if f.Status != "" {
		p.add(col("sale_status_desc")+" = ?", f.Status)
	}
	return p
}

func (p *predicate) add(cond string, args ...any) *predicate {
	p.conds = append(p.conds, cond)
	p.args = append(p.args, args...)
	return p
}

// where renders "WHERE a AND b", or "" with no conditions.
func (p *predicate) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.conds, " AND ")
}

// and renders "AND a AND b" for appending to an existing WHERE.
func (p *predicate) and() string {
	if len(p.conds) == 0 {
		return ""
	}
	return "AND " + strings.Join(p.conds, " AND ")
}
