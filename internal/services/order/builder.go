package order

import (
	"github.com/google/uuid"

	"github.com/isaac-anthony/mano/internal/models"
)

// BuildIntent turns resolution results into an OrderIntent. Any failed item
// rejects the whole order with every failure aggregated. Lines are kept as
// requested: repeated items stay separate and no prices are attached.
func BuildIntent(results []ItemResult, customerName, note string) (*models.OrderIntent, error) {
	if len(results) == 0 {
		return nil, models.ErrEmptyOrder
	}

	var failed models.ResolutionErrors
	lines := make([]models.ResolvedLineItem, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Err)
			continue
		}
		lines = append(lines, *res.Line)
	}
	if len(failed) > 0 {
		return nil, failed
	}

	return &models.OrderIntent{
		LineItems:      lines,
		CustomerName:   customerName,
		Note:           note,
		IdempotencyKey: uuid.NewString(),
	}, nil
}
