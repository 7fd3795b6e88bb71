package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
)

// RunMasterKeyFingerprint prints the SHA-256 fingerprint of the derived master key. Two
// servers that print the same fingerprint accept each other's replay metadata.
func RunMasterKeyFingerprint(
	masterKey *envelopeDomain.MasterKey,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if masterKey == nil {
		return errors.New("master key is required")
	}

	fingerprint := masterKey.Fingerprint()

	if format == "json" {
		if err := writeJSON(w, map[string]any{"fingerprint": fingerprint}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(w, "Master key fingerprint: %s\n", fingerprint)
	}

	logger.Info("master key fingerprint printed")
	return nil
}

// RunEncryptServerSecret encrypts secret with the KMS key at kmsKeyURI and prints the
// environment variables that make the server decrypt it at startup.
//
// For local development, use kmsKeyURI="base64key://<32-byte-base64-key>".
// Never use base64key in production. Use cloud KMS providers (gcpkms, awskms, azurekeyvault, hashivault).
func RunEncryptServerSecret(
	ctx context.Context,
	kmsService envelopeService.KMSService,
	logger *slog.Logger,
	w io.Writer,
	kmsKeyURI string,
	secret string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if kmsKeyURI == "" {
		return fmt.Errorf(
			"--kms-key-uri is required\n\nFor local development, use:\n  --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\nFor production, use cloud KMS providers:\n  --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n  --kms-key-uri=\"awskms:///alias/...\"",
		)
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("--secret is required")
	}

	encoded, err := envelopeService.EncryptSecret(ctx, kmsService, kmsKeyURI, secret)
	if err != nil {
		return err
	}

	if format == "json" {
		if err := writeJSON(w, map[string]any{
			"kms_key_uri":   kmsKeyURI,
			"server_secret": encoded,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(w, "# Copy these environment variables to your .env file or secrets manager")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
		_, _ = fmt.Fprintf(w, "SERVER_SECRET=\"%s\"\n", encoded)
	}

	logger.Info("server secret encrypted with KMS")
	return nil
}
