package models

import (
	"fmt"
	"strings"
)

// ModifierRequest is a customization the caller asked for. CatalogObjectID is
// authoritative; Name is only used for logs and spoken text.
type ModifierRequest struct {
	CatalogObjectID string `json:"catalog_object_id" validate:"required"`
	Name            string `json:"name,omitempty"`
}

// OrderItemRequest is one requested line as it arrived in the tool call.
// Quantity stays a string until the resolver parses it.
type OrderItemRequest struct {
	ItemID    string            `json:"item_id" validate:"required"`
	Quantity  string            `json:"quantity"`
	Modifiers []ModifierRequest `json:"modifiers,omitempty" validate:"dive"`
	Name      string            `json:"name,omitempty"`
}

// PlaceOrderRequest is the argument set of a place_order tool call.
type PlaceOrderRequest struct {
	Items               []OrderItemRequest `json:"items" validate:"dive"`
	CustomerName        string             `json:"customer_name,omitempty" validate:"max=100"`
	SpecialInstructions string             `json:"special_instructions,omitempty" validate:"max=500"`
}

// ResolvedModifier is a modifier verified against the parent item's lists.
type ResolvedModifier struct {
	CatalogObjectID string `json:"catalog_object_id"`
	ModifierListID  string `json:"modifier_list_id"`
	Name            string `json:"name"`
}

// ResolvedLineItem is an orderable line backed by a real catalog variation.
type ResolvedLineItem struct {
	CatalogVariationID string             `json:"catalog_variation_id"`
	DisplayName        string             `json:"display_name"`
	UnitQuantity       int                `json:"unit_quantity"`
	ResolvedModifiers  []ResolvedModifier `json:"resolved_modifiers,omitempty"`
}

// Describe renders the line the way it is read back to the caller,
// e.g. "2 Burger with no onions and extra cheese".
func (li ResolvedLineItem) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", li.UnitQuantity, li.DisplayName)
	if len(li.ResolvedModifiers) > 0 {
		names := make([]string, 0, len(li.ResolvedModifiers))
		for _, m := range li.ResolvedModifiers {
			names = append(names, m.Name)
		}
		b.WriteString(" with ")
		b.WriteString(JoinSpoken(names))
	}
	return b.String()
}

// OrderIntent is the ordered, non-empty set of lines to submit.
type OrderIntent struct {
	LineItems      []ResolvedLineItem `json:"line_items"`
	CustomerName   string             `json:"customer_name,omitempty"`
	Note           string             `json:"note,omitempty"`
	IdempotencyKey string             `json:"idempotency_key"`
}

// SubmissionSuccess carries the backend-assigned order id.
type SubmissionSuccess struct {
	ExternalOrderID string `json:"external_order_id"`
	Status          string `json:"status"`
	TotalMoney      *Money `json:"total_money,omitempty"`
}

// SubmissionFailure is the classified reason a submission did not succeed.
type SubmissionFailure struct {
	Kind    SubmissionKind `json:"kind"`
	Message string         `json:"message"`
}

// SubmissionResult holds exactly one of Success or Failure.
type SubmissionResult struct {
	Success *SubmissionSuccess `json:"success,omitempty"`
	Failure *SubmissionFailure `json:"failure,omitempty"`
}

// OK reports whether the submission succeeded.
func (r SubmissionResult) OK() bool {
	return r.Success != nil
}

// AgentResponse is what goes back to the orchestration platform.
type AgentResponse struct {
	SpokenMessage string `json:"spoken_message"`
	Success       bool   `json:"success"`
}

// JoinSpoken joins words the way they are spoken: "a", "a and b", "a, b and c".
func JoinSpoken(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

// OrderSubmission is the backend-neutral order-creation request.
type OrderSubmission struct {
	IdempotencyKey string
	LocationID     string
	State          string
	ReferenceID    string
	Note           string
	LineItems      []SubmissionLineItem
}

// SubmissionLineItem is one line of an OrderSubmission.
type SubmissionLineItem struct {
	CatalogObjectID string
	Quantity        string
	ModifierIDs     []string
}

// CreatedOrder is what the backend returns for an accepted order.
type CreatedOrder struct {
	ID         string
	State      string
	TotalMoney *Money
}

// OrderSummary is a compact view of an existing backend order.
type OrderSummary struct {
	OrderID     string             `json:"order_id"`
	State       string             `json:"state"`
	CreatedAt   string             `json:"created_at"`
	TotalMoney  *Money             `json:"total_money,omitempty"`
	ReferenceID string             `json:"reference_id,omitempty"`
	Note        string             `json:"note,omitempty"`
	LineItems   []OrderSummaryLine `json:"line_items"`
}

// OrderSummaryLine is one line of an OrderSummary.
type OrderSummaryLine struct {
	Name            string `json:"name"`
	Quantity        string `json:"quantity"`
	CatalogObjectID string `json:"catalog_object_id,omitempty"`
	BasePrice       *Money `json:"base_price,omitempty"`
}
