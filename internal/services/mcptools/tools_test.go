package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
	"github.com/isaac-anthony/mano/internal/services/order"
)

type fakePlacer struct {
	got *models.PlaceOrderRequest
	out order.Outcome
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest, call order.CallInfo) order.Outcome {
	f.got = req
	return f.out
}

type fakeItems struct {
	items []models.CatalogItem
	err   error
}

func (f fakeItems) Items(ctx context.Context) ([]models.CatalogItem, error) {
	return f.items, f.err
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestPlaceOrderTool(t *testing.T) {
	placer := &fakePlacer{out: order.Outcome{Response: models.AgentResponse{SpokenMessage: "Great! I've placed your order for 2 Burger.", Success: true}}}
	tools := New(placer, fakeItems{}, time.Second, logger.Nop())

	res, err := tools.PlaceOrder(context.Background(), callRequest("place_order", map[string]any{
		"items": []any{map[string]any{"item_id": "V1", "quantity": 2}},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "2 Burger")
	require.NotNil(t, placer.got)
	assert.Equal(t, "2", placer.got.Items[0].Quantity)
}

func TestPlaceOrderTool_Failures(t *testing.T) {
	placer := &fakePlacer{out: order.Outcome{Response: models.AgentResponse{SpokenMessage: "Sorry, I couldn't find one of the items you ordered. Could you repeat it?"}}}
	tools := New(placer, fakeItems{}, time.Second, logger.Nop())

	res, err := tools.PlaceOrder(context.Background(), callRequest("place_order", map[string]any{
		"items": []any{map[string]any{"item_id": "BAD"}},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	placer.got = nil
	res, err = tools.PlaceOrder(context.Background(), callRequest("place_order", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Nil(t, placer.got, "arguments without items never reach the pipeline")
}

func TestGetMenuTool(t *testing.T) {
	items := []models.CatalogItem{{
		ID:         "I1",
		Name:       "Burger",
		Variations: []models.CatalogVariation{{ID: "V1", ItemID: "I1", Price: &models.Money{Amount: 999, Currency: "USD"}}},
	}}
	tools := New(&fakePlacer{}, fakeItems{items: items}, time.Second, logger.Nop())

	res, err := tools.GetMenu(context.Background(), callRequest("get_menu", nil))
	require.NoError(t, err)

	var entries []models.MenuVariationEntry
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "V1", entries[0].ID)
	assert.Equal(t, "9.99", entries[0].Price)

	tools = New(&fakePlacer{}, fakeItems{err: errors.New("down")}, time.Second, logger.Nop())
	res, err = tools.GetMenu(context.Background(), callRequest("get_menu", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewServer(t *testing.T) {
	tools := New(&fakePlacer{}, fakeItems{}, time.Second, logger.Nop())
	assert.NotNil(t, tools.NewServer("test"))
}
