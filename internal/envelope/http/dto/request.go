// Package dto provides data transfer objects for envelope HTTP requests and responses.
package dto

import (
	"encoding/json"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/msc/internal/validation"
)

// IssueSessionRequest contains the client public key a new session key is wrapped for.
type IssueSessionRequest struct {
	PublicKey string `json:"public_key"` // PEM (PKIX or PKCS#1) or OpenSSH "ssh-rsa ..."
}

// Validate checks if the issue session request is valid.
func (r *IssueSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PublicKey,
			validation.Required,
			customValidation.NotBlank,
			customValidation.PublicKey,
		),
	)
}

// SealRequest contains a JSON value to seal into an envelope.
type SealRequest struct {
	RequestID string          `json:"request_id,omitempty"` // Generated when empty
	Data      json.RawMessage `json:"data"`
}

// Validate checks if the seal request is valid.
func (r *SealRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RequestID,
			customValidation.NoWhitespace,
			validation.Length(0, 255),
		),
		validation.Field(&r.Data,
			validation.Required,
			customValidation.JSONValue,
		),
	)
}

// EnvelopeRequest carries an inbound envelope for open and exchange.
type EnvelopeRequest struct {
	Envelope string `json:"envelope"`
}

// Validate checks if the envelope request is valid.
func (r *EnvelopeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Envelope,
			validation.Required,
			customValidation.EnvelopePrefix,
		),
	)
}
