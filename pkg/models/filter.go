package models

import "time"

// Sale status values as stored in sales.sale_status_desc.
const (
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Absent marks an integer filter field that was not supplied. Zero cannot be
// used as the sentinel because hour 0 and weekday filters are legitimate.
const Absent = -1

// QueryFilter is the canonical, immutable filter for a single request.
// It is built once by services.NormalizeFilter and passed down unchanged to
// every aggregation call; nothing mutates it after construction.
type QueryFilter struct {
	StartDate  time.Time // zero = absent; inclusive from 00:00:00
	EndDate    time.Time // zero = absent; inclusive through 23:59:59
	StoreID    int       // 0 = absent
	ChannelID  int       // 0 = absent
	CategoryID int       // 0 = absent
	CustomerID int       // 0 = absent
	Weekday    int       // 1..7, 1 = Sunday; Absent when not set
	Hour       int       // 0..23; Absent when not set
	Status     string    // "" = absent
	Limit      int
}

// HasDateRange reports whether both date bounds are set.
func (f QueryFilter) HasDateRange() bool {
	return !f.StartDate.IsZero() && !f.EndDate.IsZero()
}

// PreviousPeriod returns a filter shifted to the window of equal length
// immediately before [StartDate, EndDate]. Used for period-over-period
// comparison; returns ok=false when the filter has no complete date range.
func (f QueryFilter) PreviousPeriod() (QueryFilter, bool) {
	if !f.HasDateRange() {
		return QueryFilter{}, false
	}
	span := f.EndDate.Sub(f.StartDate)
	prev := f
	prev.EndDate = f.StartDate.Add(-time.Second)
	prev.StartDate = prev.EndDate.Add(-span)
	return prev, true
}

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// WeekdayName maps the 1-indexed weekday convention (1 = Sunday, matching
// MySQL DAYOFWEEK) to a display name. Every caller goes through this helper
// so the indexing convention lives in exactly one place.
func WeekdayName(weekday int) string {
	if weekday < 1 || weekday > 7 {
		return ""
	}
	return weekdayNames[weekday-1]
}
