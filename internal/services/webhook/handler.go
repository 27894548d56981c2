// Package webhook receives voice-agent events and answers tool calls.
package webhook

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
	"github.com/isaac-anthony/mano/internal/services/order"
)

// SecretHeader carries the shared secret configured on the assistant.
const SecretHeader = "x-vapi-secret"

// OrderPlacer runs the place-order pipeline.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest, call order.CallInfo) order.Outcome
}

// ToolResult is what the voice platform reads back for one tool call.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// Response is the body of every webhook reply.
type Response struct {
	SpokenMessage string       `json:"spoken_message"`
	Success       bool         `json:"success"`
	Results       []ToolResult `json:"results"`
	Status        string       `json:"status,omitempty"`
}

// Handler handles POST /vapi-webhook
type Handler struct {
	placer  OrderPlacer
	secret  string
	timeout time.Duration
	logger  *logger.Logger
}

func NewHandler(placer OrderPlacer, secret string, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		placer:  placer,
		secret:  secret,
		timeout: timeout,
		logger:  log,
	}
}

// placeOrderTools are the tool names that place an order. order_placed is
// what older assistants were configured with.
var placeOrderTools = map[string]bool{
	"place_order":  true,
	"order_placed": true,
}

// Handle answers one webhook event. Business outcomes, failures included,
// are always 200 so the agent can speak the message.
func (h *Handler) Handle(c *gin.Context) {
	requestID := c.GetString(logger.RequestIDKey)
	if requestID == "" {
		requestID = logger.GenerateRequestID()
	}

	if h.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("webhook_unauthorized", "Webhook secret mismatch", requestID, map[string]interface{}{
				"remote_addr": c.ClientIP(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("webhook_read_failed", "Failed to read request body", requestID, err, nil)
		c.JSON(http.StatusOK, malformed())
		return
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		h.logger.Warn("webhook_malformed", err.Error(), requestID, map[string]interface{}{
			"body_bytes": len(body),
		})
		c.JSON(http.StatusOK, malformed())
		return
	}

	h.logger.Info("webhook_received", fmt.Sprintf("Received %s event", env.Type), requestID, map[string]interface{}{
		"type":       env.Type,
		"call_id":    env.CallID,
		"tool_calls": len(env.ToolCalls),
	})

	switch env.Type {
	case EventToolCalls, EventFunctionCall:
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		c.JSON(http.StatusOK, h.dispatch(ctx, env, requestID))
	case EventEndOfCall:
		h.logger.Info("call_ended", "Call ended", requestID, map[string]interface{}{
			"call_id":      env.CallID,
			"ended_reason": env.EndedReason,
		})
		c.JSON(http.StatusOK, ack())
	default:
		c.JSON(http.StatusOK, ack())
	}
}

func (h *Handler) dispatch(ctx context.Context, env *Envelope, requestID string) Response {
	resp := Response{Success: true, Results: make([]ToolResult, 0, len(env.ToolCalls))}
	var spoken []string
	placed := false

	for _, call := range env.ToolCalls {
		if !placeOrderTools[call.Name] {
			h.logger.Info("tool_unhandled", "Unhandled tool call", requestID, map[string]interface{}{
				"tool": call.Name,
			})
			resp.Results = append(resp.Results, ToolResult{
				ToolCallID: call.ID,
				Result:     fmt.Sprintf("Tool %s received but not handled", call.Name),
			})
			continue
		}

		placed = true
		out := h.placeOrder(ctx, call, env.CallID, requestID)
		resp.Results = append(resp.Results, ToolResult{ToolCallID: call.ID, Result: out.Response.SpokenMessage})
		spoken = append(spoken, out.Response.SpokenMessage)
		resp.Success = resp.Success && out.Response.Success
	}

	if !placed {
		resp.Status = "received"
	}
	resp.SpokenMessage = strings.Join(spoken, " ")
	return resp
}

func (h *Handler) placeOrder(ctx context.Context, call ToolCall, callID, requestID string) order.Outcome {
	req, err := order.ParseArguments(call.Arguments)
	if err != nil {
		h.logger.Warn("webhook_malformed", err.Error(), requestID, map[string]interface{}{
			"tool_call_id": call.ID,
		})
		return order.Malformed(err.Error())
	}
	return h.placer.PlaceOrder(ctx, req, order.CallInfo{RequestID: requestID, CallID: callID})
}

func malformed() Response {
	out := order.Malformed("")
	return Response{
		SpokenMessage: out.Response.SpokenMessage,
		Success:       false,
		Results:       []ToolResult{},
	}
}

func ack() Response {
	return Response{Success: true, Results: []ToolResult{}, Status: "received"}
}
