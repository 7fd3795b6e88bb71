package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// CiphertextBundle is the output of one AEAD seal: the nonce, the ciphertext and the
// detached authentication tag.
//
// Its textual form is "hex(nonce):hex(ciphertext):hex(tag)", in that fixed order.
type CiphertextBundle struct {
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// String serializes the bundle to "hex(nonce):hex(ciphertext):hex(tag)".
func (b CiphertextBundle) String() string {
	return strings.Join([]string{
		hex.EncodeToString(b.Nonce),
		hex.EncodeToString(b.Ciphertext),
		hex.EncodeToString(b.Tag),
	}, BundleSeparator)
}

// ParseCiphertextBundle parses the textual bundle form.
//
// Returns ErrFormat unless the input has exactly three non-empty hex fields, the nonce
// is NonceSize bytes and the tag is TagSize bytes.
func ParseCiphertextBundle(content string) (CiphertextBundle, error) {
	parts := strings.Split(content, BundleSeparator)
	if len(parts) != 3 {
		return CiphertextBundle{}, fmt.Errorf(
			"%w: expected format 'nonce:ciphertext:tag', got %d parts",
			ErrFormat,
			len(parts),
		)
	}

	decoded := make([][]byte, 3)
	for i, part := range parts {
		if part == "" {
			return CiphertextBundle{}, fmt.Errorf("%w: bundle field %d is empty", ErrFormat, i)
		}
		b, err := hex.DecodeString(part)
		if err != nil {
			return CiphertextBundle{}, fmt.Errorf("%w: bundle field %d is not hex", ErrFormat, i)
		}
		decoded[i] = b
	}

	if len(decoded[0]) != NonceSize {
		return CiphertextBundle{}, fmt.Errorf("%w: nonce must be %d bytes", ErrFormat, NonceSize)
	}
	if len(decoded[2]) != TagSize {
		return CiphertextBundle{}, fmt.Errorf("%w: tag must be %d bytes", ErrFormat, TagSize)
	}

	return CiphertextBundle{
		Nonce:      decoded[0],
		Ciphertext: decoded[1],
		Tag:        decoded[2],
	}, nil
}
