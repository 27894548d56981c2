// Package mcptools exposes the order pipeline as MCP tools over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tidwall/gjson"

	"github.com/isaac-anthony/mano/internal/catalog"
	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
	"github.com/isaac-anthony/mano/internal/services/order"
)

const placeOrderSchema = `{
  "type": "object",
  "properties": {
    "items": {
      "type": "array",
      "description": "Items to order. item_id is a catalog variation id from get_menu.",
      "items": {
        "type": "object",
        "properties": {
          "item_id": {"type": "string"},
          "quantity": {"type": "string", "description": "Positive whole number, defaults to 1"},
          "name": {"type": "string", "description": "What the customer called the item"},
          "modifiers": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "catalog_object_id": {"type": "string"},
                "name": {"type": "string"}
              },
              "required": ["catalog_object_id"]
            }
          }
        },
        "required": ["item_id"]
      }
    },
    "customer_name": {"type": "string"},
    "special_instructions": {"type": "string"}
  },
  "required": ["items"]
}`

// OrderPlacer runs the place-order pipeline.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest, call order.CallInfo) order.Outcome
}

// ItemSource returns the current catalog.
type ItemSource interface {
	Items(ctx context.Context) ([]models.CatalogItem, error)
}

// Tools holds the MCP tool handlers.
type Tools struct {
	placer  OrderPlacer
	items   ItemSource
	timeout time.Duration
	logger  *logger.Logger
}

func New(placer OrderPlacer, items ItemSource, timeout time.Duration, log *logger.Logger) *Tools {
	return &Tools{placer: placer, items: items, timeout: timeout, logger: log}
}

// NewServer creates an MCP server with place_order and get_menu registered.
func (t *Tools) NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer("mano", version,
		server.WithToolCapabilities(false),
	)
	s.AddTool(
		mcp.NewToolWithRawSchema("place_order", "Place a phone order. Returns the sentence to read back to the caller.", json.RawMessage(placeOrderSchema)),
		t.PlaceOrder,
	)
	s.AddTool(
		mcp.NewToolWithRawSchema("get_menu", "List menu items with their orderable variation ids and modifiers.", json.RawMessage(`{"type":"object","properties":{}}`)),
		t.GetMenu,
	)
	return s
}

// PlaceOrder handles the place_order tool.
func (t *Tools) PlaceOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := logger.GenerateRequestID()

	args, err := json.Marshal(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal arguments: %v", err)), nil
	}
	parsed, err := order.ParseArguments(gjson.ParseBytes(args))
	if err != nil {
		t.logger.Warn("mcp_malformed", err.Error(), requestID, nil)
		return mcp.NewToolResultError(order.Malformed(err.Error()).Response.SpokenMessage), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out := t.placer.PlaceOrder(ctx, parsed, order.CallInfo{RequestID: requestID})
	if !out.Response.Success {
		return mcp.NewToolResultError(out.Response.SpokenMessage), nil
	}
	return mcp.NewToolResultText(out.Response.SpokenMessage), nil
}

// GetMenu handles the get_menu tool.
func (t *Tools) GetMenu(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	items, err := t.items.Items(ctx)
	if err != nil {
		t.logger.Error("menu_unavailable", "Failed to load catalog", "", err, nil)
		return mcp.NewToolResultError("menu temporarily unavailable"), nil
	}

	body, err := json.Marshal(catalog.FlattenVariations(items))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode menu: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
func (t *Tools) ServeStdio(version string) error {
	return server.ServeStdio(t.NewServer(version))
}
