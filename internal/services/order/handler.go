package order

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

// RecentOrders searches the backend for existing orders.
type RecentOrders interface {
	SearchRecentOrders(ctx context.Context, locationID string, limit int) ([]models.OrderSummary, error)
}

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// Handler handles direct HTTP requests for the order service
type Handler struct {
	service    *Service
	recent     RecentOrders
	locationID string
	timeout    time.Duration
	logger     *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, recent RecentOrders, locationID string, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		service:    service,
		recent:     recent,
		locationID: locationID,
		timeout:    timeout,
		logger:     log,
	}
}

type createOrderResponse struct {
	Success       bool          `json:"success"`
	SpokenMessage string        `json:"spoken_message"`
	OrderID       string        `json:"order_id,omitempty"`
	Status        string        `json:"status,omitempty"`
	TotalMoney    *models.Money `json:"total_money,omitempty"`
	Cause         Cause         `json:"cause,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	RequestID     string        `json:"request_id"`
}

// CreateOrder handles POST /order. It runs the same pipeline as the webhook
// and is meant for testing without a voice call.
func (h *Handler) CreateOrder(c *gin.Context) {
	requestID := requestIDFrom(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !gjson.ValidBytes(body) {
		h.logger.Warn("validation_failed", "Request body is not valid JSON", requestID, nil)
		writeError(c, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	req, err := ParseArguments(gjson.ParseBytes(body))
	if err != nil {
		h.logger.Warn("validation_failed", err.Error(), requestID, nil)
		writeError(c, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out := h.service.PlaceOrder(ctx, req, CallInfo{RequestID: requestID})
	resp := createOrderResponse{
		Success:       out.Response.Success,
		SpokenMessage: out.Response.SpokenMessage,
		Cause:         out.Cause,
		Reason:        out.Reason,
		RequestID:     requestID,
	}
	if out.Result != nil && out.Result.Success != nil {
		resp.OrderID = out.Result.Success.ExternalOrderID
		resp.Status = out.Result.Success.Status
		resp.TotalMoney = out.Result.Success.TotalMoney
	}
	c.JSON(statusFor(out), resp)
}

func statusFor(out Outcome) int {
	if out.Response.Success {
		return http.StatusOK
	}
	switch out.Cause {
	case CauseMalformed:
		return http.StatusBadRequest
	case CauseCatalogUnavailable:
		return http.StatusServiceUnavailable
	case CauseEmptyOrder, CauseUnresolved:
		return http.StatusUnprocessableEntity
	case CauseSubmission:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RecentOrders handles GET /orders/recent?limit=N
func (h *Handler) RecentOrders(c *gin.Context) {
	requestID := requestIDFrom(c)

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			writeError(c, http.StatusBadRequest, "limit must be between 1 and 100", requestID)
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	orders, err := h.recent.SearchRecentOrders(ctx, h.locationID, limit)
	if err != nil {
		h.logger.Error("orders_search_failed", "Failed to fetch recent orders", requestID, err, nil)
		writeError(c, http.StatusBadGateway, "Failed to fetch recent orders", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

func requestIDFrom(c *gin.Context) string {
	if v := c.GetString(logger.RequestIDKey); v != "" {
		return v
	}
	return logger.GenerateRequestID()
}

// writeError writes an error response in JSON format
func writeError(c *gin.Context, statusCode int, message, requestID string) {
	c.JSON(statusCode, gin.H{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}
