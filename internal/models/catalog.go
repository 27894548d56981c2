package models

// Money is an amount in the currency's minor unit (cents for USD).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CatalogVariation is the orderable unit of a menu item.
type CatalogVariation struct {
	ID     string `json:"id"`
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Price  *Money `json:"price,omitempty"`
}

// CatalogModifier is a single option inside a modifier list.
type CatalogModifier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price *Money `json:"price,omitempty"`
}

// ModifierList groups the modifiers that may be attached to an item.
type ModifierList struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Modifiers []CatalogModifier `json:"modifiers"`
}

// CatalogItem is a menu item with its variations and the modifier lists
// enabled for it.
type CatalogItem struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	CategoryID    string             `json:"category_id,omitempty"`
	Variations    []CatalogVariation `json:"variations"`
	ModifierLists []ModifierList     `json:"modifier_lists,omitempty"`
}

// Price returns the first priced variation's price, or nil.
func (i CatalogItem) Price() *Money {
	for _, v := range i.Variations {
		if v.Price != nil {
			return v.Price
		}
	}
	return nil
}

// Variation finds a variation by id.
func (i CatalogItem) Variation(id string) (CatalogVariation, bool) {
	for _, v := range i.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return CatalogVariation{}, false
}

// FindModifier looks id up across the item's enabled modifier lists.
func (i CatalogItem) FindModifier(id string) (CatalogModifier, ModifierList, bool) {
	for _, list := range i.ModifierLists {
		for _, m := range list.Modifiers {
			if m.ID == id {
				return m, list, true
			}
		}
	}
	return CatalogModifier{}, ModifierList{}, false
}

// VariationDisplayName is the name spoken for a variation: the item name,
// with the variation name appended when it adds information.
func (i CatalogItem) VariationDisplayName(v CatalogVariation) string {
	switch v.Name {
	case "", "Regular", "Default", i.Name:
		return i.Name
	}
	return v.Name + " " + i.Name
}

// MenuEntry is the flattened shape injected into the voice agent's context.
type MenuEntry struct {
	Name         string   `json:"name"`
	Price        string   `json:"price,omitempty"`
	Description  string   `json:"description,omitempty"`
	VariationIDs []string `json:"variation_ids"`
}

// MenuVariationEntry is one orderable variation with its applicable
// modifiers, for richer context injection.
type MenuVariationEntry struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       string         `json:"price,omitempty"`
	Category    string         `json:"category,omitempty"`
	Modifiers   []MenuModifier `json:"modifiers,omitempty"`
}

// MenuModifier is a modifier as exposed in the menu.
type MenuModifier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	List  string `json:"list"`
	Price string `json:"price,omitempty"`
}
