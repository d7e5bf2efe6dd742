// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/orders/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// skuRegex matches stock keeping units: uppercase alphanumerics with dashes.
	skuRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{1,63}$`)

	// documentRegex matches government document identifiers, digits only.
	documentRegex = regexp.MustCompile(`^[0-9]{8,14}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// SKU validates stock keeping unit format after normalization.
var SKU = validation.NewStringRuleWithError(
	func(s string) bool {
		return skuRegex.MatchString(strings.ToUpper(strings.TrimSpace(s)))
	},
	validation.NewError("validation_sku_format", "must be an alphanumeric stock keeping unit"),
)

// Document validates a digits-only document identifier.
var Document = validation.NewStringRuleWithError(
	func(s string) bool {
		return documentRegex.MatchString(s)
	},
	validation.NewError("validation_document_format", "must contain 8 to 14 digits"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
