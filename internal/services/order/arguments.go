package order

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/isaac-anthony/mano/internal/models"
)

// ParseArguments reads place_order arguments leniently. Arguments may arrive
// as an object or as a JSON-encoded string of one. Each item may name its
// variation as item_id or catalog_object_id, and quantity may be a string or
// a number. A missing quantity means one.
func ParseArguments(args gjson.Result) (*models.PlaceOrderRequest, error) {
	if args.Type == gjson.String {
		args = gjson.Parse(args.Str)
	}
	if !args.IsObject() {
		return nil, models.NewStructuralError("arguments are not an object")
	}

	items := args.Get("items")
	if !items.IsArray() {
		return nil, models.NewStructuralError("arguments carry no items array")
	}

	req := &models.PlaceOrderRequest{
		CustomerName:        strings.TrimSpace(args.Get("customer_name").String()),
		SpecialInstructions: strings.TrimSpace(args.Get("special_instructions").String()),
		Items:               make([]models.OrderItemRequest, 0, len(items.Array())),
	}

	for _, item := range items.Array() {
		if !item.IsObject() {
			return nil, models.NewStructuralError("item is not an object")
		}
		id := item.Get("item_id").String()
		if id == "" {
			id = item.Get("catalog_object_id").String()
		}
		r := models.OrderItemRequest{
			ItemID:   id,
			Quantity: quantity(item.Get("quantity")),
			Name:     item.Get("name").String(),
		}
		for _, mod := range item.Get("modifiers").Array() {
			if mod.Type == gjson.String {
				r.Modifiers = append(r.Modifiers, models.ModifierRequest{CatalogObjectID: mod.Str})
				continue
			}
			r.Modifiers = append(r.Modifiers, models.ModifierRequest{
				CatalogObjectID: mod.Get("catalog_object_id").String(),
				Name:            mod.Get("name").String(),
			})
		}
		req.Items = append(req.Items, r)
	}
	return req, nil
}

// quantity keeps the raw text of the value so that a bad quantity can be
// reported as it was sent.
func quantity(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "1"
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}
