package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for each class of failure. Typed errors below match them
// through errors.Is.
var (
	ErrStructural = errors.New("malformed tool-call envelope")
	ErrResolution = errors.New("order item could not be resolved")
	ErrBuild      = errors.New("order could not be built")
	ErrSubmission = errors.New("order submission failed")

	// ErrCatalogNotFound is returned by catalog sources for unknown ids.
	ErrCatalogNotFound = errors.New("catalog object not found")
)

// StructuralError reports an inbound envelope that cannot be interpreted.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s", e.Reason)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// NewStructuralError formats a StructuralError.
func NewStructuralError(format string, args ...any) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// ResolutionCode names why a requested item did not resolve.
type ResolutionCode string

const (
	UnknownItem           ResolutionCode = "UnknownItem"
	UnknownModifier       ResolutionCode = "UnknownModifier"
	InvalidQuantity       ResolutionCode = "InvalidQuantity"
	ModifierNotApplicable ResolutionCode = "ModifierNotApplicable"
)

// ResolutionError is a per-item resolution failure.
type ResolutionError struct {
	Code        ResolutionCode
	ItemID      string
	ModifierID  string
	RawQuantity string
	// Name is the advisory name the caller used, if any.
	Name string
	// Index is the item's position in the request.
	Index int
}

func (e *ResolutionError) Error() string {
	switch e.Code {
	case UnknownItem:
		return fmt.Sprintf("UnknownItem(%s)", e.ItemID)
	case UnknownModifier:
		return fmt.Sprintf("UnknownModifier(%s)", e.ModifierID)
	case InvalidQuantity:
		return fmt.Sprintf("InvalidQuantity(%q)", e.RawQuantity)
	case ModifierNotApplicable:
		return fmt.Sprintf("ModifierNotApplicable(%s, %s)", e.ItemID, e.ModifierID)
	default:
		return fmt.Sprintf("%s(%s)", e.Code, e.ItemID)
	}
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

func NewUnknownItem(itemID string) *ResolutionError {
	return &ResolutionError{Code: UnknownItem, ItemID: itemID}
}

func NewUnknownModifier(itemID, modifierID string) *ResolutionError {
	return &ResolutionError{Code: UnknownModifier, ItemID: itemID, ModifierID: modifierID}
}

func NewInvalidQuantity(itemID, raw string) *ResolutionError {
	return &ResolutionError{Code: InvalidQuantity, ItemID: itemID, RawQuantity: raw}
}

func NewModifierNotApplicable(itemID, modifierID string) *ResolutionError {
	return &ResolutionError{Code: ModifierNotApplicable, ItemID: itemID, ModifierID: modifierID}
}

// ResolutionErrors aggregates every failing item of one order.
type ResolutionErrors []*ResolutionError

func (errs ResolutionErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return "unresolved items: " + strings.Join(parts, ", ")
}

func (errs ResolutionErrors) Unwrap() []error {
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		out = append(out, e)
	}
	return out
}

// AsResolutionErrors extracts the aggregated resolution failures from err.
func AsResolutionErrors(err error) (ResolutionErrors, bool) {
	var agg ResolutionErrors
	if errors.As(err, &agg) {
		return agg, true
	}
	var single *ResolutionError
	if errors.As(err, &single) {
		return ResolutionErrors{single}, true
	}
	return nil, false
}

// BuildCode names why an order could not be built.
type BuildCode string

const (
	EmptyOrder BuildCode = "EmptyOrder"
)

// BuildError is returned by the order builder.
type BuildError struct {
	Code BuildCode
}

func (e *BuildError) Error() string {
	return string(e.Code)
}

func (e *BuildError) Is(target error) bool {
	return target == ErrBuild
}

// ErrEmptyOrder is the build error for an order without items.
var ErrEmptyOrder = &BuildError{Code: EmptyOrder}

// IsEmptyOrder reports whether err is an EmptyOrder build error.
func IsEmptyOrder(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == EmptyOrder
}

// SubmissionKind classifies a failed order submission.
type SubmissionKind string

const (
	AuthFailure             SubmissionKind = "AuthFailure"
	RemoteValidationFailure SubmissionKind = "RemoteValidationFailure"
	TransientNetworkFailure SubmissionKind = "TransientNetworkFailure"
	UnknownFailure          SubmissionKind = "UnknownFailure"
)

// SubmissionError is a classified failure talking to the commerce backend.
type SubmissionError struct {
	Kind    SubmissionKind
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}

// Retryable reports whether one more attempt is allowed.
func (e *SubmissionError) Retryable() bool {
	return e.Kind == TransientNetworkFailure
}

// AsSubmissionError extracts a SubmissionError from err.
func AsSubmissionError(err error) (*SubmissionError, bool) {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient submission failure.
func IsRetryable(err error) bool {
	se, ok := AsSubmissionError(err)
	return ok && se.Retryable()
}

// IsAuthFailure reports whether err is a rejected backend credential.
func IsAuthFailure(err error) bool {
	se, ok := AsSubmissionError(err)
	return ok && se.Kind == AuthFailure
}
