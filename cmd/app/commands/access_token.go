package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	envelopeService "github.com/allisson/msc/internal/envelope/service"
)

// RunHashAccessToken hashes token for ACCESS_TOKEN_HASH. When token is empty a random
// 32-byte token is generated and printed alongside its hash.
func RunHashAccessToken(logger *slog.Logger, w io.Writer, token string, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	generated := token == ""
	if generated {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("failed to generate access token: %w", err)
		}
		token = base64.RawURLEncoding.EncodeToString(raw)
	}

	hash, err := envelopeService.HashAccessToken(token)
	if err != nil {
		return fmt.Errorf("failed to hash access token: %w", err)
	}

	if format == "json" {
		result := map[string]any{"access_token_hash": hash}
		if generated {
			result["access_token"] = token
		}
		if err := writeJSON(w, result); err != nil {
			return err
		}
	} else {
		if generated {
			_, _ = fmt.Fprintln(w, "# Give this token to clients; it is not stored anywhere")
			_, _ = fmt.Fprintf(w, "# ACCESS_TOKEN=\"%s\"\n", token)
		}
		_, _ = fmt.Fprintf(w, "ACCESS_TOKEN_HASH=\"%s\"\n", hash)
	}

	logger.Info("access token hashed", slog.Bool("generated", generated))
	return nil
}
