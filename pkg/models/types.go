package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NullableFloat is a float64 with an explicit undefined state. It exists so
// zero-denominator metrics (margin with no revenue, average over an empty
// group) surface as null instead of a silently wrong 0 or a NaN that leaks
// into a classification.
type NullableFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps a defined value.
func Float(v float64) NullableFloat {
	return NullableFloat{Float64: v, Valid: true}
}

// Ratio returns numerator/denominator*scale, undefined when denominator is 0.
func Ratio(numerator, denominator, scale float64) NullableFloat {
	if denominator == 0 {
		return NullableFloat{}
	}
	return Float(numerator / denominator * scale)
}

func (n NullableFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullableFloat{}
		return nil
	}
	n.Valid = true
	return json.Unmarshal(data, &n.Float64)
}

// Scan implements sql.Scanner so NULL aggregates land as undefined.
func (n *NullableFloat) Scan(value any) error {
	if value == nil {
		*n = NullableFloat{}
		return nil
	}
	switch v := value.(type) {
	case float64:
		*n = Float(v)
	case int64:
		*n = Float(float64(v))
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(v), "%g", &f); err != nil {
			return fmt.Errorf("scan NullableFloat from %q: %w", v, err)
		}
		*n = Float(f)
	default:
		return fmt.Errorf("scan NullableFloat: unsupported type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (n NullableFloat) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// RevenueSummary aggregates completed-only money over the whole filtered set.
// TotalSales counts all statuses.
type RevenueSummary struct {
	TotalRevenue float64       `json:"total_revenue"`
	TotalSales   int           `json:"total_sales"`
	AvgTicket    NullableFloat `json:"avg_ticket"`
}

// Comparison holds current vs previous period revenue with growth rates.
type Comparison struct {
	Current       RevenueSummary `json:"current"`
	Previous      RevenueSummary `json:"previous"`
	RevenueGrowth NullableFloat  `json:"revenue_growth_percent"`
	SalesGrowth   NullableFloat  `json:"sales_growth_percent"`
}

// PeriodSales is one calendar bucket (day, week or month).
type PeriodSales struct {
	Period         string        `json:"period"`
	OrderCount     int           `json:"order_count"`
	CompletedCount int           `json:"completed_count"`
	CancelledCount int           `json:"cancelled_count"`
	Revenue        float64       `json:"revenue"`
	AvgTicket      NullableFloat `json:"avg_ticket"`
}

// HourlySales is the hour-of-day distribution.
type HourlySales struct {
	Hour       int           `json:"hour"`
	OrderCount int           `json:"order_count"`
	Revenue    float64       `json:"revenue"`
	AvgTicket  NullableFloat `json:"avg_ticket"`
}

// WeekdaySales is the weekday distribution; Weekday is 1..7, 1 = Sunday.
type WeekdaySales struct {
	Weekday     int           `json:"weekday"`
	WeekdayName string        `json:"weekday_name"`
	OrderCount  int           `json:"order_count"`
	Revenue     float64       `json:"revenue"`
	AvgTicket   NullableFloat `json:"avg_ticket"`
}

type StoreSales struct {
	StoreID    int           `json:"store_id"`
	StoreName  string        `json:"store_name"`
	City       string        `json:"city"`
	OrderCount int           `json:"order_count"`
	Revenue    float64       `json:"revenue"`
	AvgTicket  NullableFloat `json:"avg_ticket"`
}

type ChannelSales struct {
	ChannelID   int           `json:"channel_id"`
	ChannelName string        `json:"channel_name"`
	ChannelType string        `json:"channel_type"`
	OrderCount  int           `json:"order_count"`
	Revenue     float64       `json:"revenue"`
	AvgTicket   NullableFloat `json:"avg_ticket"`
}

type CategorySales struct {
	CategoryName string  `json:"category_name"`
	ProductCount int     `json:"product_count"`
	TimesSold    int     `json:"times_sold"`
	Revenue      float64 `json:"revenue"`
}

// ProductSales is a product ranking row (top sellers, low performers).
type ProductSales struct {
	ProductID    int           `json:"product_id"`
	ProductName  string        `json:"product_name"`
	CategoryName string        `json:"category_name"`
	TimesSold    int           `json:"times_sold"`
	Quantity     int           `json:"total_quantity"`
	Revenue      float64       `json:"total_revenue"`
	AvgPrice     NullableFloat `json:"avg_price"`
}

// ProductMargin is a product with derived margin and its tier.
type ProductMargin struct {
	ProductID     int           `json:"product_id"`
	ProductName   string        `json:"product_name"`
	CategoryName  string        `json:"category_name"`
	TimesSold     int           `json:"times_sold"`
	Revenue       float64       `json:"revenue"`
	Cost          float64       `json:"cost"`
	MarginPercent NullableFloat `json:"profit_margin_percent"`
	MarginTier    string        `json:"margin_tier,omitempty"`
}

// ProductDayHour answers "what sells most on channel X, weekday Y at hour Z".
type ProductDayHour struct {
	ProductName string  `json:"product_name"`
	ChannelName string  `json:"channel_name"`
	Weekday     int     `json:"weekday"`
	Hour        int     `json:"hour"`
	TimesSold   int     `json:"times_sold"`
	Quantity    int     `json:"total_quantity"`
	Revenue     float64 `json:"revenue"`
}

// ItemStats is an add-on item ranking row.
type ItemStats struct {
	ItemName     string        `json:"item_name"`
	CategoryName string        `json:"category_name"`
	TimesAdded   int           `json:"times_added"`
	Revenue      float64       `json:"revenue_generated"`
	AvgPrice     NullableFloat `json:"avg_price"`
}

type CustomizedProduct struct {
	ProductName        string        `json:"product_name"`
	CustomizationCount int           `json:"customization_count"`
	TimesSold          int           `json:"times_sold"`
	CustomizationRate  NullableFloat `json:"customization_rate"`
}

// CustomerStats carries the raw facts for one customer plus the derived RFM
// fields filled in by the derivator and classifier.
type CustomerStats struct {
	CustomerID   int           `json:"customer_id"`
	CustomerName string        `json:"customer_name"`
	Email        string        `json:"email"`
	Frequency    int           `json:"total_purchases"`
	TotalSpent   float64       `json:"total_spent"`
	AvgTicket    NullableFloat `json:"avg_ticket"`
	LastPurchase time.Time     `json:"last_purchase"`
	RecencyDays  int           `json:"recency_days"`
	Segment      string        `json:"segment,omitempty"`
}

type FrequencyBucket struct {
	Bucket        string        `json:"segment"`
	CustomerCount int           `json:"customer_count"`
	Revenue       float64       `json:"total_revenue"`
	AvgLifetime   NullableFloat `json:"avg_lifetime_value"`
}

type RetentionBucket struct {
	Bucket        string  `json:"bucket"`
	CustomerCount int     `json:"customer_count"`
	Revenue       float64 `json:"total_revenue"`
}

type NewVsReturning struct {
	CustomerType string  `json:"customer_type"`
	Count        int     `json:"count"`
	Revenue      float64 `json:"revenue"`
}

type LTVSegment struct {
	Segment       string        `json:"ltv_segment"`
	CustomerCount int           `json:"customer_count"`
	AvgLTV        NullableFloat `json:"avg_ltv"`
	Revenue       float64       `json:"total_revenue"`
}

// DeliveryTimeCell is one weekday×hour delivery-time group. Cells below the
// minimum sample floor never leave the row source.
type DeliveryTimeCell struct {
	Weekday          int           `json:"weekday"`
	WeekdayName      string        `json:"weekday_name"`
	Hour             int           `json:"hour"`
	DeliveryCount    int           `json:"delivery_count"`
	AvgMinutes       float64       `json:"avg_delivery_minutes"`
	MinMinutes       float64       `json:"min_delivery_minutes"`
	MaxMinutes       float64       `json:"max_delivery_minutes"`
	DeviationPercent NullableFloat `json:"deviation_percent,omitempty"`
}

type RegionDelivery struct {
	City          string  `json:"city"`
	Neighborhood  string  `json:"neighborhood"`
	DeliveryCount int     `json:"delivery_count"`
	AvgMinutes    float64 `json:"avg_delivery_minutes"`
	MinMinutes    float64 `json:"min_delivery_minutes"`
	MaxMinutes    float64 `json:"max_delivery_minutes"`
	StdDevMinutes float64 `json:"std_delivery_minutes"`
}

type NeighborhoodVolume struct {
	City          string  `json:"city"`
	Neighborhood  string  `json:"neighborhood"`
	DeliveryCount int     `json:"delivery_count"`
	Revenue       float64 `json:"total_revenue"`
}

type DeliveryStats struct {
	TotalDeliveries int           `json:"total_deliveries"`
	AvgMinutes      NullableFloat `json:"avg_delivery_minutes"`
	AvgDeliveryFee  NullableFloat `json:"avg_delivery_fee"`
	AvgCourierFee   NullableFloat `json:"avg_courier_fee"`
	DeliveryRevenue float64       `json:"total_delivery_revenue"`
}

type CourierPerformance struct {
	CourierType     string        `json:"courier_type"`
	TotalDeliveries int           `json:"total_deliveries"`
	AvgMinutes      NullableFloat `json:"avg_delivery_minutes"`
	AvgDeliveryFee  NullableFloat `json:"avg_delivery_fee"`
	AvgCourierFee   NullableFloat `json:"avg_courier_fee"`
}

// OperationalTime is an avg/min/max summary of production or delivery time.
type OperationalTime struct {
	AvgMinutes NullableFloat `json:"avg_minutes"`
	MinMinutes NullableFloat `json:"min_minutes"`
	MaxMinutes NullableFloat `json:"max_minutes"`
}

// StoreEfficiency is the per-store operations scorecard.
type StoreEfficiency struct {
	StoreID            int           `json:"store_id"`
	StoreName          string        `json:"store_name"`
	City               string        `json:"city"`
	TotalOrders        int           `json:"total_orders"`
	CompletedOrders    int           `json:"completed_orders"`
	CancelledOrders    int           `json:"cancelled_orders"`
	CompletionRate     NullableFloat `json:"completion_rate"`
	CancellationRate   NullableFloat `json:"cancellation_rate"`
	AvgDeliveryMinutes NullableFloat `json:"avg_delivery_time"`
	Revenue            float64       `json:"total_revenue"`
	AvgTicket          NullableFloat `json:"avg_ticket"`
	CompletionTier     string        `json:"completion_tier,omitempty"`
}

type ChannelPerformance struct {
	ChannelID          int           `json:"channel_id"`
	ChannelName        string        `json:"channel_name"`
	TotalOrders        int           `json:"total_orders"`
	CompletedOrders    int           `json:"completed_orders"`
	CompletionRate     NullableFloat `json:"completion_rate"`
	Revenue            float64       `json:"total_revenue"`
	AvgTicket          NullableFloat `json:"avg_ticket"`
	AvgDeliveryMinutes NullableFloat `json:"avg_delivery_time"`
	CompletionTier     string        `json:"completion_tier,omitempty"`
}

// PeakHour is the hourly order volume with its category relative to the mean.
type PeakHour struct {
	Hour               int           `json:"hour"`
	OrderCount         int           `json:"order_count"`
	Revenue            float64       `json:"revenue"`
	AvgDeliveryMinutes NullableFloat `json:"avg_delivery_time"`
	VolumeCategory     string        `json:"volume_category,omitempty"`
}

// CapacityCell is one store×hour load measurement.
type CapacityCell struct {
	StoreID            int           `json:"store_id"`
	StoreName          string        `json:"store_name"`
	Hour               int           `json:"hour"`
	OrdersPerHour      int           `json:"orders_per_hour"`
	AvgDeliveryMinutes NullableFloat `json:"avg_delivery_time"`
	CapacityLevel      string        `json:"capacity_level,omitempty"`
}

// TicketGroupType distinguishes the two sides of the ticket comparison.
type TicketGroupType string

const (
	TicketGroupStore   TicketGroupType = "store"
	TicketGroupChannel TicketGroupType = "channel"
)

// TicketGroup is one store or channel with its completed-only average ticket.
type TicketGroup struct {
	Type       TicketGroupType `json:"type"`
	Name       string          `json:"name"`
	AvgTicket  NullableFloat   `json:"avg_ticket"`
	OrderCount int             `json:"order_count"`
}

type CancellationReason struct {
	Reason        string        `json:"cancellation_reason"`
	Count         int           `json:"cancellation_count"`
	Percentage    NullableFloat `json:"percentage"`
	AvgOrderValue NullableFloat `json:"avg_order_value"`
}

// FilterOption is one selectable value exposed to the filter UI.
type FilterOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	City string `json:"city,omitempty"`
}

// Severity grades how far an insight subject deviates from its baseline.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Insight is a structured finding: subject vs baseline with a narrative.
// Generated per request and consumed immediately; never persisted.
type Insight struct {
	Subject          string   `json:"subject"`
	Baseline         float64  `json:"baseline"`
	Observed         float64  `json:"observed"`
	DeviationPercent float64  `json:"deviation_percent"`
	Severity         Severity `json:"severity"`
	Narrative        string   `json:"narrative"`
}
