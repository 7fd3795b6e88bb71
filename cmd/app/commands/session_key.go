package commands

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
)

// RunWrapSessionKey generates a session key and wraps it under the public key at
// publicKeyPath, exactly as POST /v1/sessions does. Both forms are printed so client
// integrations can be checked offline.
func RunWrapSessionKey(
	keyExchange *envelopeService.KeyExchange,
	logger *slog.Logger,
	w io.Writer,
	publicKeyPath string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	data, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}

	publicKey, err := envelopeService.ParsePublicKey(data)
	if err != nil {
		return err
	}

	sessionKey, err := envelopeDomain.NewSessionKey()
	if err != nil {
		return err
	}
	defer envelopeDomain.Zero(sessionKey)

	wrapped, err := keyExchange.Wrap(sessionKey, publicKey)
	if err != nil {
		return err
	}

	encodedKey := base64.StdEncoding.EncodeToString(sessionKey)

	if format == "json" {
		if err := writeJSON(w, map[string]any{
			"session_key": encodedKey,
			"wrapped_key": wrapped,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(w, "Session key: %s\n", encodedKey)
		_, _ = fmt.Fprintf(w, "Wrapped key: %s\n", wrapped)
	}

	logger.Info("session key wrapped")
	return nil
}

// RunUnwrapSessionKey recovers a session key from a wrapped_key value with the private
// key at privateKeyPath and prints it as standard base64.
func RunUnwrapSessionKey(
	keyExchange *envelopeService.KeyExchange,
	logger *slog.Logger,
	w io.Writer,
	privateKeyPath string,
	wrapped string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	privateKey, err := envelopeService.ParsePrivateKey(data)
	if err != nil {
		return err
	}

	sessionKey, err := keyExchange.Unwrap(wrapped, privateKey)
	if err != nil {
		return err
	}
	defer envelopeDomain.Zero(sessionKey)

	encodedKey := base64.StdEncoding.EncodeToString(sessionKey)

	if format == "json" {
		if err := writeJSON(w, map[string]any{"session_key": encodedKey}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(w, "Session key: %s\n", encodedKey)
	}

	logger.Info("session key unwrapped")
	return nil
}
