// Package wire holds the JSON shapes exchanged with the ordering backend and
// the validation applied when decoding them.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Amount is a decimal that travels as a JSON number.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// AmountPtr wraps d and returns its address.
func AmountPtr(d decimal.Decimal) *Amount {
	a := NewAmount(d)
	return &a
}

// MarshalJSON emits the exact decimal as an unquoted number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func decodeStrict(r io.Reader, dest any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return common.Validation("invalid request body", err).WithDetails(map[string]any{"error": err.Error()})
	}
	return nil
}

func decodeLenient(r io.Reader, dest any) error {
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return common.Validation("malformed payload", err)
	}
	return nil
}

func validateStruct(prefix string, v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(prefix, err)
	}
	return nil
}

func formatValidationErrors(prefix string, err error) *common.AppError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[prefix+fieldErr.Field()] = validationMessage(fieldErr)
		}
		return common.Validation("validation failed", err).WithDetails(details)
	}
	return common.Validation("validation failed", err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}

func fieldError(field, message string) *common.AppError {
	return common.Validation("validation failed", fmt.Errorf("%s %s", field, message)).
		WithDetails(map[string]string{field: message})
}

func nonNegative(field string, a *Amount) error {
	if a != nil && a.IsNegative() {
		return fieldError(field, "must not be negative")
	}
	return nil
}
