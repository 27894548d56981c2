package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/isaac-anthony/mano/internal/models"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidatePlaceOrderRequest checks the shape of a place-order request. An
// empty item list is not a validation error; the builder reports it.
func ValidatePlaceOrderRequest(req *models.PlaceOrderRequest) error {
	if req == nil {
		return ValidationError{Field: "items", Message: "request is required"}
	}

	err := instance().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return ValidationError{
		Field:   fieldPath(fe.Namespace()),
		Message: describe(fe),
	}
}

// fieldPath strips the root struct name: "PlaceOrderRequest.items[0].item_id"
// becomes "items[0].item_id".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// ParseQuantity parses a raw quantity into a positive integer no greater than
// max. An empty string means one.
func ParseQuantity(raw string, max int) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		// "2.0" is what some agents send for two.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, ValidationError{Field: "quantity", Message: "quantity must be a whole number"}
		}
		n = int(f)
	}

	if n <= 0 {
		return 0, ValidationError{Field: "quantity", Message: "quantity must be greater than 0"}
	}
	if max > 0 && n > max {
		return 0, ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be less than or equal to %d", max),
		}
	}
	return n, nil
}
