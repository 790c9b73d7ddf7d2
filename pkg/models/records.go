package models

import "time"

// StatusShare is one order status with its share of the filtered set.
type StatusShare struct {
	Status     string        `json:"status"`
	Count      int           `json:"count"`
	Percentage NullableFloat `json:"percentage"`
}

// SaleRecord is one raw order row for the export surface.
type SaleRecord struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	CustomerName string    `json:"customer_name"`
	StoreName    string    `json:"store_name"`
	ChannelName  string    `json:"channel_name"`
	Status       string    `json:"status"`
	TotalAmount  float64   `json:"total_amount"`
	DeliveryFee  float64   `json:"delivery_fee"`
}

// CustomerSpan is the first-to-last purchase window of one customer, used
// for retention bucketing.
type CustomerSpan struct {
	CustomerID    int       `json:"customer_id"`
	FirstPurchase time.Time `json:"first_purchase"`
	LastPurchase  time.Time `json:"last_purchase"`
	Frequency     int       `json:"frequency"`
	TotalSpent    float64   `json:"total_spent"`
}
