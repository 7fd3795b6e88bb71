package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is the msc wire unit.
//
// Its textual form is the literal Prefix followed by a JSON object:
//
//	msc{"request":"<id>","timestamp":<epoch ms>,"id":"<nonce>:<ciphertext>:<tag>","is_secured":true}
//
// An envelope is built at encrypt time, consumed once at decrypt time and never mutated.
type Envelope struct {
	RequestID string
	Timestamp int64
	Bundle    CiphertextBundle
	IsSecured bool
}

type wireEnvelope struct {
	Request   string `json:"request"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
	IsSecured bool   `json:"is_secured"`
}

// Pack builds the textual envelope for bundle. Envelopes produced here are always secured.
func Pack(bundle CiphertextBundle, requestID string, timestamp int64) string {
	return Envelope{
		RequestID: requestID,
		Timestamp: timestamp,
		Bundle:    bundle,
		IsSecured: true,
	}.String()
}

// HeaderAAD is the associated data that binds an envelope's request id and timestamp to
// its ciphertext:
//
//	msc:<timestamp>:<request id>
//
// A decimal timestamp never contains a colon, so the first two colons delimit it whatever
// the request id contains. Rewriting either header field makes the tag fail to verify.
func HeaderAAD(requestID string, timestamp int64) []byte {
	aad := make([]byte, 0, len(Prefix)+len(requestID)+22)
	aad = append(aad, Prefix...)
	aad = append(aad, ':')
	aad = strconv.AppendInt(aad, timestamp, 10)
	aad = append(aad, ':')
	return append(aad, requestID...)
}

// String serializes the envelope to its wire form.
func (e Envelope) String() string {
	body, _ := json.Marshal(wireEnvelope{
		Request:   e.RequestID,
		Timestamp: e.Timestamp,
		ID:        e.Bundle.String(),
		IsSecured: e.IsSecured,
	})
	return Prefix + string(body)
}

// Unpack parses and validates a textual envelope. Checks run in this order:
//  1. Prefix and a well-formed JSON object, otherwise ErrFormat.
//  2. is_secured present and true, otherwise ErrUnsecuredData.
//  3. request (string), timestamp (integer) and id (string) present, otherwise ErrStructure.
//  4. id is a valid ciphertext bundle, otherwise ErrFormat.
//
// Unknown fields are ignored. No cryptographic operation is attempted here.
func Unpack(content string) (Envelope, error) {
	if !strings.HasPrefix(content, Prefix) {
		return Envelope{}, fmt.Errorf("%w: missing %q prefix", ErrFormat, Prefix)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content[len(Prefix):]), &fields); err != nil || fields == nil {
		return Envelope{}, fmt.Errorf("%w: body is not a JSON object", ErrFormat)
	}

	if err := checkSecured(fields); err != nil {
		return Envelope{}, err
	}

	requestID, err := stringField(fields, "request")
	if err != nil {
		return Envelope{}, err
	}

	timestamp, err := integerField(fields, "timestamp")
	if err != nil {
		return Envelope{}, err
	}

	id, err := stringField(fields, "id")
	if err != nil {
		return Envelope{}, err
	}

	bundle, err := ParseCiphertextBundle(id)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		RequestID: requestID,
		Timestamp: timestamp,
		Bundle:    bundle,
		IsSecured: true,
	}, nil
}

func checkSecured(fields map[string]json.RawMessage) error {
	raw, ok := fields["is_secured"]
	if !ok {
		return fmt.Errorf("%w: is_secured flag missing", ErrUnsecuredData)
	}

	var secured *bool
	if err := json.Unmarshal(raw, &secured); err != nil {
		return fmt.Errorf("%w: is_secured must be a boolean", ErrStructure)
	}
	if secured == nil || !*secured {
		return fmt.Errorf("%w: is_secured is not true", ErrUnsecuredData)
	}
	return nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrStructure, name)
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrStructure, name)
	}
	return *value, nil
}

func integerField(fields map[string]json.RawMessage, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrStructure, name)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrStructure, name)
	}
	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrStructure, name)
	}
	n, err := number.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrStructure, name)
	}
	return n, nil
}
