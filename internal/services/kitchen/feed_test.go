package kitchen

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/messaging"
	"github.com/isaac-anthony/mano/internal/models"
)

type fakeSource struct {
	bodies [][]byte
	errs   []error
}

func (f *fakeSource) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	for _, b := range f.bodies {
		f.errs = append(f.errs, handler(ctx, b))
	}
	return nil
}

func placed() *models.OrderPlacedMessage {
	return &models.OrderPlacedMessage{
		OrderID:      "ORDER123",
		LocationID:   "LOC",
		State:        "DRAFT",
		CustomerName: "Sam",
		Note:         "extra napkins",
		LineItems: []models.ResolvedLineItem{
			{DisplayName: "Burger", UnitQuantity: 2, ResolvedModifiers: []models.ResolvedModifier{{Name: "no onions"}}},
			{DisplayName: "Large Fries", UnitQuantity: 1},
		},
		TotalMoney: &models.Money{Amount: 2397, Currency: "USD"},
		PlacedAt:   time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC),
	}
}

func TestFormatTicket(t *testing.T) {
	want := "🧾 [2026-03-01 18:30:00] Order ORDER123 (DRAFT) for Sam\n" +
		"   2 x Burger\n" +
		"       + no onions\n" +
		"   1 x Large Fries\n" +
		"   Note: extra napkins\n" +
		"   Total: 23.97 USD\n"
	assert.Equal(t, want, FormatTicket(placed()))
}

func TestFeed(t *testing.T) {
	body, err := json.Marshal(placed())
	require.NoError(t, err)

	src := &fakeSource{bodies: [][]byte{body, []byte(`not json`), []byte(`{"location_id": "LOC"}`)}}
	var out bytes.Buffer
	feed := NewFeed(src, &out, logger.Nop())

	require.NoError(t, feed.Start(context.Background()))
	require.Len(t, src.errs, 3)
	assert.NoError(t, src.errs[0])
	assert.ErrorIs(t, src.errs[1], messaging.ErrMalformedMessage)
	assert.ErrorIs(t, src.errs[2], messaging.ErrMalformedMessage)
	assert.Contains(t, out.String(), "Order ORDER123")
}
