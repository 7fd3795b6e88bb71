package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	envelopeService "github.com/allisson/msc/internal/envelope/service"
)

// RunGenerateKeyPair creates an RSA key pair for a client. The private key is written
// as PKCS#8 PEM with 0600 permissions and the public key as PKIX PEM. When no paths are
// given both keys are written to w.
func RunGenerateKeyPair(
	logger *slog.Logger,
	w io.Writer,
	bits int,
	privateKeyPath string,
	publicKeyPath string,
) error {
	if (privateKeyPath == "") != (publicKeyPath == "") {
		return fmt.Errorf("--private-key and --public-key must be used together")
	}

	privatePEM, publicPEM, err := envelopeService.GenerateKeyPair(bits)
	if err != nil {
		return err
	}

	if privateKeyPath == "" {
		_, _ = w.Write(privatePEM)
		_, _ = w.Write(publicPEM)
		logger.Info("key pair generated", slog.Int("bits", bits))
		return nil
	}

	if err := os.WriteFile(privateKeyPath, privatePEM, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(publicKeyPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Private key written to %s\n", privateKeyPath)
	_, _ = fmt.Fprintf(w, "Public key written to %s\n", publicKeyPath)

	logger.Info("key pair generated",
		slog.Int("bits", bits),
		slog.String("private_key", privateKeyPath),
		slog.String("public_key", publicKeyPath),
	)
	return nil
}
