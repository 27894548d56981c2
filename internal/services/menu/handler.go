// Package menu serves the flattened catalog for context injection.
package menu

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isaac-anthony/mano/internal/catalog"
	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

// ItemSource returns the current catalog.
type ItemSource interface {
	Items(ctx context.Context) ([]models.CatalogItem, error)
}

type Handler struct {
	items   ItemSource
	timeout time.Duration
	logger  *logger.Logger
}

func NewHandler(items ItemSource, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{items: items, timeout: timeout, logger: log}
}

// Menu handles GET /menu
func (h *Handler) Menu(c *gin.Context) {
	items, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, catalog.Flatten(items))
}

// FullMenu handles GET /menu/full
func (h *Handler) FullMenu(c *gin.Context) {
	items, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, catalog.FlattenVariations(items))
}

func (h *Handler) load(c *gin.Context) ([]models.CatalogItem, bool) {
	requestID := c.GetString(logger.RequestIDKey)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	items, err := h.items.Items(ctx)
	if err != nil {
		h.logger.Error("menu_unavailable", "Failed to load catalog", requestID, err, nil)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "Menu temporarily unavailable",
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"request_id": requestID,
		})
		return nil, false
	}
	return items, true
}
