package square

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/isaac-anthony/mano/internal/models"
)

// ErrNotFound is returned when a catalog object does not exist.
var ErrNotFound = models.ErrCatalogNotFound

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m *money) toModel() *models.Money {
	if m == nil {
		return nil
	}
	return &models.Money{Amount: m.Amount, Currency: m.Currency}
}

type catalogObject struct {
	Type              string             `json:"type"`
	ID                string             `json:"id"`
	IsDeleted         bool               `json:"is_deleted,omitempty"`
	ItemData          *itemData          `json:"item_data,omitempty"`
	ItemVariationData *itemVariationData `json:"item_variation_data,omitempty"`
	ModifierListData  *modifierListData  `json:"modifier_list_data,omitempty"`
	ModifierData      *modifierData      `json:"modifier_data,omitempty"`
}

type itemData struct {
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	CategoryID       string             `json:"category_id,omitempty"`
	Variations       []catalogObject    `json:"variations,omitempty"`
	ModifierListInfo []modifierListInfo `json:"modifier_list_info,omitempty"`
}

type modifierListInfo struct {
	ModifierListID string `json:"modifier_list_id"`
	Enabled        *bool  `json:"enabled,omitempty"`
}

type itemVariationData struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	PriceMoney *money `json:"price_money,omitempty"`
}

type modifierListData struct {
	Name      string          `json:"name"`
	Modifiers []catalogObject `json:"modifiers,omitempty"`
}

type modifierData struct {
	Name           string `json:"name"`
	PriceMoney     *money `json:"price_money,omitempty"`
	ModifierListID string `json:"modifier_list_id,omitempty"`
}

type listCatalogResponse struct {
	Objects []catalogObject `json:"objects"`
	Cursor  string          `json:"cursor,omitempty"`
}

type retrieveCatalogObjectResponse struct {
	Object         *catalogObject  `json:"object"`
	RelatedObjects []catalogObject `json:"related_objects,omitempty"`
}

// maxCatalogPages bounds pagination against a misbehaving cursor.
const maxCatalogPages = 50

// ListCatalogItems returns every item in the catalog with its variations and
// enabled modifier lists.
func (c *Client) ListCatalogItems(ctx context.Context) ([]models.CatalogItem, error) {
	var objects []catalogObject
	cursor := ""
	for page := 0; page < maxCatalogPages; page++ {
		q := url.Values{}
		q.Set("types", "ITEM,MODIFIER_LIST")
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp listCatalogResponse
		if err := c.do(ctx, http.MethodGet, "/v2/catalog/list?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		objects = append(objects, resp.Objects...)

		if resp.Cursor == "" {
			return assembleItems(objects), nil
		}
		cursor = resp.Cursor
	}
	return nil, fmt.Errorf("list catalog: more than %d pages", maxCatalogPages)
}

// RetrieveCatalogItem returns the item owning the given variation, with its
// modifier lists. It returns ErrNotFound for unknown or non-variation ids.
func (c *Client) RetrieveCatalogItem(ctx context.Context, variationID string) (*models.CatalogItem, error) {
	variation, _, err := c.retrieveObject(ctx, variationID)
	if err != nil {
		return nil, err
	}
	if variation.Type != "ITEM_VARIATION" || variation.ItemVariationData == nil {
		return nil, ErrNotFound
	}

	item, related, err := c.retrieveObject(ctx, variation.ItemVariationData.ItemID)
	if err != nil {
		return nil, err
	}
	if item.Type != "ITEM" || item.ItemData == nil {
		return nil, ErrNotFound
	}

	items := assembleItems(append([]catalogObject{*item}, related...))
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (c *Client) retrieveObject(ctx context.Context, id string) (*catalogObject, []catalogObject, error) {
	var resp retrieveCatalogObjectResponse
	path := "/v2/catalog/object/" + url.PathEscape(id) + "?include_related_objects=true"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("retrieve catalog object: %w", err)
	}
	if resp.Object == nil || resp.Object.IsDeleted {
		return nil, nil, ErrNotFound
	}
	return resp.Object, resp.RelatedObjects, nil
}

// assembleItems joins ITEM objects with the MODIFIER_LIST objects they
// reference. Disabled or missing lists are skipped.
func assembleItems(objects []catalogObject) []models.CatalogItem {
	lists := make(map[string]models.ModifierList)
	for _, obj := range objects {
		if obj.Type != "MODIFIER_LIST" || obj.ModifierListData == nil || obj.IsDeleted {
			continue
		}
		list := models.ModifierList{ID: obj.ID, Name: obj.ModifierListData.Name}
		for _, m := range obj.ModifierListData.Modifiers {
			if m.ModifierData == nil || m.IsDeleted {
				continue
			}
			list.Modifiers = append(list.Modifiers, models.CatalogModifier{
				ID:    m.ID,
				Name:  m.ModifierData.Name,
				Price: m.ModifierData.PriceMoney.toModel(),
			})
		}
		lists[obj.ID] = list
	}

	var items []models.CatalogItem
	for _, obj := range objects {
		if obj.Type != "ITEM" || obj.ItemData == nil || obj.IsDeleted {
			continue
		}
		item := models.CatalogItem{
			ID:          obj.ID,
			Name:        obj.ItemData.Name,
			Description: obj.ItemData.Description,
			CategoryID:  obj.ItemData.CategoryID,
		}
		if item.Name == "" {
			item.Name = "Unknown Item"
		}
		for _, v := range obj.ItemData.Variations {
			if v.ItemVariationData == nil || v.IsDeleted {
				continue
			}
			item.Variations = append(item.Variations, models.CatalogVariation{
				ID:     v.ID,
				ItemID: obj.ID,
				Name:   v.ItemVariationData.Name,
				Price:  v.ItemVariationData.PriceMoney.toModel(),
			})
		}
		for _, info := range obj.ItemData.ModifierListInfo {
			if info.Enabled != nil && !*info.Enabled {
				continue
			}
			if list, ok := lists[info.ModifierListID]; ok {
				item.ModifierLists = append(item.ModifierLists, list)
			}
		}
		items = append(items, item)
	}
	return items
}
