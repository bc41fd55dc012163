package models

import "time"

// Order is a single-line order submitted for pricing.
// Field values are not checked here; the processor validates them on use.
type Order struct {
	ProductID  string  `json:"product_id"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	CustomerID string  `json:"customer_id"`
}

// ProcessingResult is what the processor returns for an accepted order.
type ProcessingResult struct {
	OrderID          string   `json:"orderId"`
	OriginalTotal    float64  `json:"originalTotal"`
	FinalTotal       float64  `json:"finalTotal"`
	TotalDiscount    string   `json:"totalDiscount"` // e.g. "25.0%"
	DiscountRate     float64  `json:"discountRate"`
	AppliedDiscounts []string `json:"appliedDiscounts"`
	CustomerBalance  float64  `json:"customerBalance"`
	IsVIPCustomer    bool     `json:"isVipCustomer"`
}

// Receipt is the archived form of a processed order.
type Receipt struct {
	ProcessingResult
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unitPrice"`
	CustomerID string    `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CustomerAccount is the loyalty state of one customer.
type CustomerAccount struct {
	CustomerID string  `json:"customerId"`
	Balance    float64 `json:"balance"`
	VIP        bool    `json:"vip"`
}

// OrderProcessedEvent is published after every processed order.
type OrderProcessedEvent struct {
	OrderID          string    `json:"orderId"`
	CustomerID       string    `json:"customerId"`
	ProductID        string    `json:"productId"`
	FinalTotal       float64   `json:"finalTotal"`
	AppliedDiscounts []string  `json:"appliedDiscounts"`
	CustomerBalance  float64   `json:"customerBalance"`
	VIPPromoted      bool      `json:"vipPromoted"`
	ProcessedAt      time.Time `json:"processedAt"`
}
