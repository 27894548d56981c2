package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isaac-anthony/mano/internal/models"
)

func TestConfirmationMessage(t *testing.T) {
	intent := &models.OrderIntent{LineItems: []models.ResolvedLineItem{
		{DisplayName: "Burger", UnitQuantity: 1, ResolvedModifiers: []models.ResolvedModifier{{Name: "no onions"}, {Name: "extra cheese"}}},
		{DisplayName: "Large Fries", UnitQuantity: 2},
	}}

	msg := confirmationMessage(intent, &models.SubmissionSuccess{
		ExternalOrderID: "ORDER123",
		TotalMoney:      &models.Money{Amount: 1797, Currency: "USD"},
	})

	assert.Equal(t, "Great! I've placed your order for 1 Burger with no onions and extra cheese and 2 Large Fries."+
		" Your total comes to $17.97. Your order will be ready shortly. Is there anything else I can help you with?", msg)
}

func TestConfirmationMessage_NoTotal(t *testing.T) {
	intent := &models.OrderIntent{LineItems: []models.ResolvedLineItem{{DisplayName: "Burger", UnitQuantity: 1}}}
	msg := confirmationMessage(intent, &models.SubmissionSuccess{})
	assert.NotContains(t, msg, "total")
}

func TestResolutionMessage(t *testing.T) {
	tests := []struct {
		name string
		errs models.ResolutionErrors
		want string
	}{
		{
			name: "unknown item without name",
			errs: models.ResolutionErrors{models.NewUnknownItem("BAD")},
			want: "Sorry, I couldn't find one of the items you ordered. Could you repeat it?",
		},
		{
			name: "several failures",
			errs: models.ResolutionErrors{
				{Code: models.UnknownItem, ItemID: "BAD", Name: "Pizza"},
				models.NewInvalidQuantity("V1", "0"),
				models.NewUnknownModifier("V1", "M404"),
			},
			want: "Sorry, I couldn't find Pizza on the menu. Could you repeat it? I also had trouble with 2 other items.",
		},
		{
			name: "modifier on the wrong item",
			errs: models.ResolutionErrors{{Code: models.ModifierNotApplicable, ItemID: "V1", ModifierID: "M9", Name: "Burger"}},
			want: "Sorry, one of the options you asked for isn't available on the Burger. Would you like something else instead?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolutionMessage(tt.errs))
		})
	}
}
