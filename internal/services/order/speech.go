package order

import (
	"fmt"
	"strings"

	"github.com/isaac-anthony/mano/internal/catalog"
	"github.com/isaac-anthony/mano/internal/models"
)

// Everything here is read aloud to a caller. None of it may carry catalog
// ids, order ids or backend error text.

const (
	msgMalformed          = "I apologize, but I couldn't process your order. Please try again or speak with a staff member."
	msgEmptyOrder         = "I didn't catch any items in your order. What would you like to order?"
	msgCatalogUnavailable = "I'm sorry, I can't reach our menu right now. Could you give me a moment and try again?"
	msgAuthFailure        = "I'm sorry, I'm having trouble reaching our ordering system right now. Please hold on while I get a staff member to help you."
	msgRemoteRejected     = "I'm sorry, our system couldn't accept that order. Could we go over it once more?"
	msgTransient          = "I'm sorry, our ordering system is busy right now. Could you give me a moment and let me try that again?"
	msgUnknownFailure     = "I apologize, but there was an issue processing your order. Please try again or speak with a staff member for assistance."
)

func confirmationMessage(intent *models.OrderIntent, success *models.SubmissionSuccess) string {
	parts := make([]string, 0, len(intent.LineItems))
	for _, li := range intent.LineItems {
		parts = append(parts, li.Describe())
	}

	var b strings.Builder
	b.WriteString("Great! I've placed your order for ")
	b.WriteString(models.JoinSpoken(parts))
	b.WriteString(".")
	if total := spokenTotal(success.TotalMoney); total != "" {
		b.WriteString(" Your total comes to ")
		b.WriteString(total)
		b.WriteString(".")
	}
	b.WriteString(" Your order will be ready shortly. Is there anything else I can help you with?")
	return b.String()
}

func spokenTotal(m *models.Money) string {
	if m == nil || m.Amount <= 0 {
		return ""
	}
	amount := catalog.FormatPrice(m)
	if m.Currency == "" || m.Currency == "USD" {
		return "$" + amount
	}
	return amount + " " + m.Currency
}

func resolutionMessage(errs models.ResolutionErrors) string {
	if len(errs) == 0 {
		return msgUnknownFailure
	}

	first := errs[0]
	msg := describeResolution(first)
	if rest := len(errs) - 1; rest == 1 {
		msg += " I also had trouble with one other item."
	} else if rest > 1 {
		msg += fmt.Sprintf(" I also had trouble with %d other items.", rest)
	}
	return msg
}

func describeResolution(e *models.ResolutionError) string {
	switch e.Code {
	case models.UnknownItem:
		if e.Name != "" {
			return fmt.Sprintf("Sorry, I couldn't find %s on the menu. Could you repeat it?", e.Name)
		}
		return "Sorry, I couldn't find one of the items you ordered. Could you repeat it?"
	case models.UnknownModifier:
		return fmt.Sprintf("Sorry, I couldn't find one of the options you asked for on %s. Could you repeat it?", subject(e))
	case models.ModifierNotApplicable:
		return fmt.Sprintf("Sorry, one of the options you asked for isn't available on %s. Would you like something else instead?", subject(e))
	case models.InvalidQuantity:
		return fmt.Sprintf("Sorry, I didn't catch how many you wanted of %s. How many would you like?", subject(e))
	default:
		return msgUnknownFailure
	}
}

func subject(e *models.ResolutionError) string {
	if e.Name != "" {
		return "the " + e.Name
	}
	return "one of your items"
}

func submissionMessage(kind models.SubmissionKind) string {
	switch kind {
	case models.AuthFailure:
		return msgAuthFailure
	case models.RemoteValidationFailure:
		return msgRemoteRejected
	case models.TransientNetworkFailure:
		return msgTransient
	default:
		return msgUnknownFailure
	}
}
