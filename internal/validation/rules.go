// Package validation provides custom validation rules for request DTOs.
package validation

import (
	"bytes"
	"encoding/json"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/msc/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

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

// EnvelopePrefix validates that a string looks like an msc envelope. Full parsing
// happens in the envelope codec, this only rejects obviously wrong input early.
var EnvelopePrefix = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.HasPrefix(s, "msc{")
	},
	validation.NewError("validation_envelope_prefix", "must be an msc envelope"),
)

// PublicKey validates that a string is a PEM block or an OpenSSH RSA public key.
var PublicKey = validation.NewStringRuleWithError(
	func(s string) bool {
		s = strings.TrimSpace(s)
		return strings.HasPrefix(s, "-----BEGIN ") || strings.HasPrefix(s, "ssh-rsa ")
	},
	validation.NewError("validation_public_key", "must be a PEM or OpenSSH RSA public key"),
)

var errJSONValue = validation.NewError("validation_json_value", "must be a JSON value other than null")

// JSONValue validates that a raw JSON field holds a value. A field sent as null decodes
// to the bytes "null", which validation.Required accepts, so it is rejected here.
var JSONValue = validation.By(func(value any) error {
	var raw []byte
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		return errJSONValue
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errJSONValue
	}
	return nil
})
