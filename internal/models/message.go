package models

import (
	"fmt"
	"time"
)

// OrderPlacedMessage is published after the backend accepted an order, for
// downstream fulfillment displays.
type OrderPlacedMessage struct {
	OrderID      string             `json:"order_id"`
	LocationID   string             `json:"location_id"`
	State        string             `json:"state"`
	CustomerName string             `json:"customer_name,omitempty"`
	Note         string             `json:"note,omitempty"`
	LineItems    []ResolvedLineItem `json:"line_items"`
	TotalMoney   *Money             `json:"total_money,omitempty"`
	CallID       string             `json:"call_id,omitempty"`
	PlacedAt     time.Time          `json:"placed_at"`
}

// NewOrderPlacedMessage creates an OrderPlacedMessage from a submitted intent.
func NewOrderPlacedMessage(intent *OrderIntent, success *SubmissionSuccess, locationID, callID string) *OrderPlacedMessage {
	return &OrderPlacedMessage{
		OrderID:      success.ExternalOrderID,
		LocationID:   locationID,
		State:        success.Status,
		CustomerName: intent.CustomerName,
		Note:         intent.Note,
		LineItems:    intent.LineItems,
		TotalMoney:   success.TotalMoney,
		CallID:       callID,
		PlacedAt:     time.Now().UTC(),
	}
}

// GenerateRoutingKey generates a routing key for order-placed messages
func GenerateRoutingKey(locationID string) string {
	return fmt.Sprintf("orders.placed.%s", locationID)
}
