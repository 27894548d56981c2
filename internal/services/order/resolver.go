package order

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
	"github.com/isaac-anthony/mano/internal/services/order/internal/validation"
)

// CatalogLookup is the part of the catalog cache the resolver needs.
type CatalogLookup interface {
	ItemForVariation(ctx context.Context, variationID string) (models.CatalogItem, error)
	ModifierExists(ctx context.Context, modifierID string) bool
}

// ItemResult is the outcome of resolving one requested item. Exactly one of
// Line and Err is set.
type ItemResult struct {
	Line *models.ResolvedLineItem
	Err  *models.ResolutionError
}

// Resolver verifies requested items and modifiers against the catalog.
type Resolver struct {
	catalog     CatalogLookup
	maxQuantity int
	concurrency int
	logger      *logger.Logger
}

func NewResolver(catalog CatalogLookup, maxQuantity, concurrency int, log *logger.Logger) *Resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		catalog:     catalog,
		maxQuantity: maxQuantity,
		concurrency: concurrency,
		logger:      log,
	}
}

// Resolve resolves every item independently and returns one result per item
// in request order. The error is non-nil only when the catalog itself could
// not be reached.
func (r *Resolver) Resolve(ctx context.Context, items []models.OrderItemRequest, requestID string) ([]ItemResult, error) {
	results := make([]ItemResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, item := range items {
		g.Go(func() error {
			line, resErr, err := r.resolveOne(gctx, item)
			if err != nil {
				return fmt.Errorf("resolve item %d: %w", i, err)
			}
			if resErr != nil {
				resErr.Index = i
				resErr.Name = item.Name
				r.logger.Debug("item_unresolved", resErr.Error(), requestID, map[string]interface{}{
					"index":   i,
					"item_id": item.ItemID,
					"code":    string(resErr.Code),
				})
			}
			results[i] = ItemResult{Line: line, Err: resErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) resolveOne(ctx context.Context, req models.OrderItemRequest) (*models.ResolvedLineItem, *models.ResolutionError, error) {
	item, err := r.catalog.ItemForVariation(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, models.ErrCatalogNotFound) {
			return nil, models.NewUnknownItem(req.ItemID), nil
		}
		return nil, nil, err
	}
	variation, ok := item.Variation(req.ItemID)
	if !ok {
		return nil, models.NewUnknownItem(req.ItemID), nil
	}

	qty, err := validation.ParseQuantity(req.Quantity, r.maxQuantity)
	if err != nil {
		return nil, models.NewInvalidQuantity(req.ItemID, req.Quantity), nil
	}

	line := &models.ResolvedLineItem{
		CatalogVariationID: variation.ID,
		DisplayName:        item.VariationDisplayName(variation),
		UnitQuantity:       qty,
	}
	for _, m := range req.Modifiers {
		mod, list, ok := item.FindModifier(m.CatalogObjectID)
		if !ok {
			if r.catalog.ModifierExists(ctx, m.CatalogObjectID) {
				return nil, models.NewModifierNotApplicable(req.ItemID, m.CatalogObjectID), nil
			}
			return nil, models.NewUnknownModifier(req.ItemID, m.CatalogObjectID), nil
		}
		line.ResolvedModifiers = append(line.ResolvedModifiers, models.ResolvedModifier{
			CatalogObjectID: mod.ID,
			ModifierListID:  list.ID,
			Name:            mod.Name,
		})
	}
	return line, nil, nil
}
