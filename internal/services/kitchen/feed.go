// Package kitchen prints tickets for orders placed by phone.
package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/isaac-anthony/mano/internal/catalog"
	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/messaging"
	"github.com/isaac-anthony/mano/internal/models"
)

// MessageSource delivers queued messages to a handler until ctx ends.
type MessageSource interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
}

// Feed turns order-placed events into kitchen tickets.
type Feed struct {
	source MessageSource
	out    io.Writer
	logger *logger.Logger
}

// NewFeed creates a new kitchen feed writing tickets to out
func NewFeed(source MessageSource, out io.Writer, log *logger.Logger) *Feed {
	return &Feed{source: source, out: out, logger: log}
}

// Start consumes until ctx is cancelled
func (f *Feed) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	f.logger.Info("service_started", "Kitchen feed started", requestID, nil)

	err := f.source.StartConsuming(ctx, f.HandleMessage)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("kitchen feed consumer: %w", err)
	}

	f.logger.Info("graceful_shutdown", "Kitchen feed stopped", requestID, nil)
	return nil
}

// HandleMessage renders one order-placed event.
func (f *Feed) HandleMessage(ctx context.Context, body []byte) error {
	var msg models.OrderPlacedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to parse order placed message: %w: %v", messaging.ErrMalformedMessage, err)
	}
	if msg.OrderID == "" {
		return fmt.Errorf("order placed message without order id: %w", messaging.ErrMalformedMessage)
	}

	if _, err := io.WriteString(f.out, FormatTicket(&msg)); err != nil {
		return fmt.Errorf("failed to write ticket: %w", err)
	}

	f.logger.Info("ticket_printed", "Kitchen ticket printed", "", map[string]interface{}{
		"order_id":    msg.OrderID,
		"location_id": msg.LocationID,
		"lines":       len(msg.LineItems),
		"call_id":     msg.CallID,
	})
	return nil
}

// FormatTicket creates a human-readable ticket for one order
func FormatTicket(msg *models.OrderPlacedMessage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🧾 [%s] Order %s", msg.PlacedAt.Format("2006-01-02 15:04:05"), msg.OrderID)
	if msg.State != "" {
		fmt.Fprintf(&b, " (%s)", msg.State)
	}
	if msg.CustomerName != "" {
		fmt.Fprintf(&b, " for %s", msg.CustomerName)
	}
	b.WriteString("\n")

	for _, li := range msg.LineItems {
		fmt.Fprintf(&b, "   %d x %s\n", li.UnitQuantity, li.DisplayName)
		for _, m := range li.ResolvedModifiers {
			fmt.Fprintf(&b, "       + %s\n", m.Name)
		}
	}
	if msg.Note != "" {
		fmt.Fprintf(&b, "   Note: %s\n", msg.Note)
	}
	if price := catalog.FormatPrice(msg.TotalMoney); price != "" {
		fmt.Fprintf(&b, "   Total: %s %s\n", price, msg.TotalMoney.Currency)
	}
	return b.String()
}
