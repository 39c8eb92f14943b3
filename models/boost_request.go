package models

import "time"

// BoostRequestStatus defines the set of allowed statuses for a BoostRequest.
type BoostRequestStatus string

const (
	BoostRequestStatusPending  BoostRequestStatus = "pending"
	BoostRequestStatusApproved BoostRequestStatus = "approved"
	BoostRequestStatusRejected BoostRequestStatus = "rejected"
)

// BoostRequest is a user-initiated request to raise their monthly
// itinerary quota. Only one pending request may exist per user.
type BoostRequest struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	CreatedAt  time.Time          `json:"created_at"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
	Quantity   int                `json:"quantity"`
	TotalPrice float64            `json:"total_price"`
	Status     BoostRequestStatus `json:"status"`
}

// BoostPriceTable maps the fixed accepted quantities to their price in EUR.
var BoostPriceTable = map[int]float64{
	5:  5.00,
	10: 9.00,
	15: 12.00,
	20: 15.00,
}
