package square

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/isaac-anthony/mano/internal/models"
)

type orderModifier struct {
	CatalogObjectID string `json:"catalog_object_id"`
}

type orderLineItem struct {
	Quantity        string          `json:"quantity"`
	CatalogObjectID string          `json:"catalog_object_id,omitempty"`
	Name            string          `json:"name,omitempty"`
	Modifiers       []orderModifier `json:"modifiers,omitempty"`
	BasePriceMoney  *money          `json:"base_price_money,omitempty"`
}

type order struct {
	ID          string          `json:"id,omitempty"`
	LocationID  string          `json:"location_id"`
	ReferenceID string          `json:"reference_id,omitempty"`
	State       string          `json:"state,omitempty"`
	Note        string          `json:"note,omitempty"`
	LineItems   []orderLineItem `json:"line_items"`
	TotalMoney  *money          `json:"total_money,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

type createOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Order          order  `json:"order"`
}

type createOrderResponse struct {
	Order *order `json:"order"`
}

// CreateOrder submits one order. Every failure is returned as a classified
// *models.SubmissionError. A transport timeout is reported as
// TransientNetworkFailure even though Square may have stored the order.
func (c *Client) CreateOrder(ctx context.Context, sub models.OrderSubmission) (*models.CreatedOrder, error) {
	req := createOrderRequest{
		IdempotencyKey: sub.IdempotencyKey,
		Order: order{
			LocationID:  sub.LocationID,
			ReferenceID: sub.ReferenceID,
			State:       sub.State,
			Note:        sub.Note,
		},
	}
	for _, li := range sub.LineItems {
		line := orderLineItem{
			Quantity:        li.Quantity,
			CatalogObjectID: li.CatalogObjectID,
		}
		for _, id := range li.ModifierIDs {
			line.Modifiers = append(line.Modifiers, orderModifier{CatalogObjectID: id})
		}
		req.Order.LineItems = append(req.Order.LineItems, line)
	}

	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/orders", req, &resp); err != nil {
		return nil, Classify(err)
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return nil, &models.SubmissionError{Kind: models.UnknownFailure, Message: "response carried no order"}
	}

	return &models.CreatedOrder{
		ID:         resp.Order.ID,
		State:      resp.Order.State,
		TotalMoney: resp.Order.TotalMoney.toModel(),
	}, nil
}

// Classify maps a client error onto the submission failure taxonomy.
func Classify(err error) *models.SubmissionError {
	var se *models.SubmissionError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.hasCategory("AUTHENTICATION_ERROR"):
			return &models.SubmissionError{Kind: models.AuthFailure, Message: "credential rejected", Err: err}
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusBadGateway,
			apiErr.StatusCode == http.StatusServiceUnavailable,
			apiErr.StatusCode == http.StatusGatewayTimeout,
			apiErr.hasCategory("RATE_LIMIT_ERROR"):
			return &models.SubmissionError{Kind: models.TransientNetworkFailure, Message: "backend temporarily unavailable", Err: err}
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			msg := "order rejected"
			if len(apiErr.Errors) > 0 && apiErr.Errors[0].Detail != "" {
				msg = apiErr.Errors[0].Detail
			}
			return &models.SubmissionError{Kind: models.RemoteValidationFailure, Message: msg, Err: err}
		default:
			return &models.SubmissionError{Kind: models.UnknownFailure, Message: "unexpected backend response", Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &models.SubmissionError{Kind: models.TransientNetworkFailure, Message: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &models.SubmissionError{Kind: models.TransientNetworkFailure, Message: "network error", Err: err}
	}

	return &models.SubmissionError{Kind: models.UnknownFailure, Message: "unclassified error", Err: err}
}

type searchOrdersRequest struct {
	LocationIDs []string         `json:"location_ids"`
	Query       searchOrderQuery `json:"query"`
	Limit       int              `json:"limit"`
}

type searchOrderQuery struct {
	Filter struct {
		StateFilter struct {
			States []string `json:"states"`
		} `json:"state_filter"`
	} `json:"filter"`
	Sort struct {
		SortField string `json:"sort_field"`
		SortOrder string `json:"sort_order"`
	} `json:"sort"`
}

type searchOrdersResponse struct {
	Orders []order `json:"orders"`
}

// SearchRecentOrders returns the newest orders at a location.
func (c *Client) SearchRecentOrders(ctx context.Context, locationID string, limit int) ([]models.OrderSummary, error) {
	req := searchOrdersRequest{LocationIDs: []string{locationID}, Limit: limit}
	req.Query.Filter.StateFilter.States = []string{"OPEN", "COMPLETED", "CANCELED", "DRAFT"}
	req.Query.Sort.SortField = "CREATED_AT"
	req.Query.Sort.SortOrder = "DESC"

	var resp searchOrdersResponse
	if err := c.do(ctx, http.MethodPost, "/v2/orders/search", req, &resp); err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}

	summaries := make([]models.OrderSummary, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		s := models.OrderSummary{
			OrderID:     o.ID,
			State:       o.State,
			CreatedAt:   o.CreatedAt,
			TotalMoney:  o.TotalMoney.toModel(),
			ReferenceID: o.ReferenceID,
			Note:        o.Note,
			LineItems:   []models.OrderSummaryLine{},
		}
		for _, li := range o.LineItems {
			name := li.Name
			if name == "" {
				name = "Unknown Item"
			}
			s.LineItems = append(s.LineItems, models.OrderSummaryLine{
				Name:            name,
				Quantity:        li.Quantity,
				CatalogObjectID: li.CatalogObjectID,
				BasePrice:       li.BasePriceMoney.toModel(),
			})
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
