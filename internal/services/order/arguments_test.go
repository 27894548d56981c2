package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/isaac-anthony/mano/internal/models"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []models.OrderItemRequest
		wantErr bool
	}{
		{
			name: "object with string quantity",
			raw:  `{"items": [{"item_id": "V1", "quantity": "2", "modifiers": [{"catalog_object_id": "M1", "name": "no onions"}]}]}`,
			want: []models.OrderItemRequest{
				{ItemID: "V1", Quantity: "2", Modifiers: []models.ModifierRequest{{CatalogObjectID: "M1", Name: "no onions"}}},
			},
		},
		{
			name: "numeric quantity and catalog_object_id",
			raw:  `{"items": [{"catalog_object_id": "V1", "quantity": 3}]}`,
			want: []models.OrderItemRequest{{ItemID: "V1", Quantity: "3"}},
		},
		{
			name: "missing quantity defaults to one",
			raw:  `{"items": [{"item_id": "V1", "name": "Burger"}]}`,
			want: []models.OrderItemRequest{{ItemID: "V1", Quantity: "1", Name: "Burger"}},
		},
		{
			name: "arguments encoded as a string",
			raw:  `"{\"items\": [{\"item_id\": \"V1\", \"quantity\": \"1\"}]}"`,
			want: []models.OrderItemRequest{{ItemID: "V1", Quantity: "1"}},
		},
		{
			name: "modifier ids as bare strings",
			raw:  `{"items": [{"item_id": "V1", "modifiers": ["M1"]}]}`,
			want: []models.OrderItemRequest{{ItemID: "V1", Quantity: "1", Modifiers: []models.ModifierRequest{{CatalogObjectID: "M1"}}}},
		},
		{
			name: "empty items array is kept",
			raw:  `{"items": []}`,
			want: []models.OrderItemRequest{},
		},
		{name: "no items", raw: `{"customer_name": "Sam"}`, wantErr: true},
		{name: "items not an array", raw: `{"items": "burger"}`, wantErr: true},
		{name: "not an object", raw: `[1, 2]`, wantErr: true},
		{name: "item not an object", raw: `{"items": ["V1"]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseArguments(gjson.Parse(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrStructural)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Items)
		})
	}
}

func TestParseArguments_OrderDetails(t *testing.T) {
	req, err := ParseArguments(gjson.Parse(`{"items": [{"item_id": "V1"}], "customer_name": " Sam ", "special_instructions": "extra napkins"}`))
	require.NoError(t, err)
	assert.Equal(t, "Sam", req.CustomerName)
	assert.Equal(t, "extra napkins", req.SpecialInstructions)
}
