package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/isaac-anthony/mano/internal/models"
)

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
}

// FormatPrice renders a minor-unit amount as a decimal string, "12.99".
// A nil price renders as "".
func FormatPrice(m *models.Money) string {
	if m == nil {
		return ""
	}
	if zeroDecimalCurrencies[m.Currency] {
		return decimal.NewFromInt(m.Amount).StringFixed(0)
	}
	return decimal.New(m.Amount, -2).StringFixed(2)
}

// Flatten produces one entry per item for injecting into the agent context.
func Flatten(items []models.CatalogItem) []models.MenuEntry {
	entries := make([]models.MenuEntry, 0, len(items))
	for _, item := range items {
		ids := make([]string, 0, len(item.Variations))
		for _, v := range item.Variations {
			ids = append(ids, v.ID)
		}
		entries = append(entries, models.MenuEntry{
			Name:         item.Name,
			Price:        FormatPrice(item.Price()),
			Description:  item.Description,
			VariationIDs: ids,
		})
	}
	return entries
}

// FlattenVariations produces one entry per orderable variation, each with
// the modifiers that may be attached to it.
func FlattenVariations(items []models.CatalogItem) []models.MenuVariationEntry {
	var entries []models.MenuVariationEntry
	for _, item := range items {
		var mods []models.MenuModifier
		for _, list := range item.ModifierLists {
			for _, m := range list.Modifiers {
				mods = append(mods, models.MenuModifier{
					ID:    m.ID,
					Name:  m.Name,
					List:  list.Name,
					Price: FormatPrice(m.Price),
				})
			}
		}
		for _, v := range item.Variations {
			entries = append(entries, models.MenuVariationEntry{
				ID:          v.ID,
				Name:        item.VariationDisplayName(v),
				Description: item.Description,
				Price:       FormatPrice(v.Price),
				Category:    item.CategoryID,
				Modifiers:   mods,
			})
		}
	}
	if entries == nil {
		entries = []models.MenuVariationEntry{}
	}
	return entries
}
