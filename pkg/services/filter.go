package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bistro-analytics-api/pkg/models"
)

const dateLayout = "2006-01-02"

var (
	scriptPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// SanitizeSearchTerm strips markup from a raw search term before it becomes
// a LIKE pattern. Script blocks go with their content, other tags leave
// their text behind.
func SanitizeSearchTerm(term string) string {
	term = scriptPattern.ReplaceAllString(term, "")
	term = tagPattern.ReplaceAllString(term, "")
	return strings.TrimSpace(term)
}

// NormalizeFilter validates and canonicalizes raw query parameters into an
// immutable QueryFilter. All fields are optional. Numeric fields with
// non-numeric input are treated as absent rather than rejected; that keeps
// filter composition forgiving for the UI. Out-of-range weekday/hour values
// are likewise dropped to absent, so a weekday=0 can never reach a query.
//
// defaultLimit varies per caller (top-N listings use 20, the dashboard
// product ranking 10), so it is a parameter rather than a constant here.
func NormalizeFilter(params url.Values, defaultLimit int) (models.QueryFilter, error) {
	f := models.QueryFilter{
		Weekday: models.Absent,
		Hour:    models.Absent,
		Limit:   defaultLimit,
	}

	if raw := params.Get("startDate"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return models.QueryFilter{}, &FilterError{Field: "startDate", Reason: "expected YYYY-MM-DD"}
		}
		f.StartDate = t // midnight, inclusive
	}
	if raw := params.Get("endDate"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return models.QueryFilter{}, &FilterError{Field: "endDate", Reason: "expected YYYY-MM-DD"}
		}
		// Inclusive through the last second of the day.
		f.EndDate = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	if f.HasDateRange() && f.StartDate.After(f.EndDate) {
		return models.QueryFilter{}, &FilterError{Field: "startDate", Reason: "startDate after endDate"}
	}

	f.StoreID = intParam(params, "storeId")
	f.ChannelID = intParam(params, "channelId")
	f.CategoryID = intParam(params, "categoryId")
	f.CustomerID = intParam(params, "customerId")

	if v, ok := boundedParam(params, "weekday", 1, 7); ok {
		f.Weekday = v
	}
	if v, ok := boundedParam(params, "hour", 0, 23); ok {
		f.Hour = v
	}

	switch status := strings.ToUpper(params.Get("status")); status {
	case "", "ALL":
		// no status restriction
	default:
		f.Status = status
	}

	if v := intParam(params, "limit"); v > 0 {
		f.Limit = v
	}
	if f.Limit <= 0 {
		f.Limit = models.DefaultTopLimit
	}
	if f.Limit > models.MaxLimit {
		f.Limit = models.MaxLimit
	}

	return f, nil
}

// intParam parses a positive integer parameter; anything else counts as
// absent (0).
func intParam(params url.Values, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(params.Get(key)))
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// boundedParam parses an integer and reports ok only inside [lo, hi].
func boundedParam(params url.Values, key string, lo, hi int) (int, bool) {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}
