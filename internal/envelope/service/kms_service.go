package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"gocloud.dev/secrets"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"

	// KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

type kmsService struct{}

// NewKMSService creates a KMSService backed by gocloud.dev/secrets.
//
// Supported URI schemes: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a *secrets.Keeper for keyURI.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// DecryptSecret decodes a standard base64 KMS ciphertext and decrypts it with the keeper at keyURI.
//
// Every failure is reported as ErrConfiguration because it only happens at startup.
func DecryptSecret(ctx context.Context, kms KMSService, keyURI, encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: server secret is not valid base64", envelopeDomain.ErrConfiguration)
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", envelopeDomain.ErrConfiguration, err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decrypt server secret: %v", envelopeDomain.ErrConfiguration, err)
	}
	defer envelopeDomain.Zero(plaintext)

	return string(plaintext), nil
}

// EncryptSecret encrypts secret with the keeper at keyURI and returns standard base64, the
// format DecryptSecret expects in SERVER_SECRET.
func EncryptSecret(ctx context.Context, kms KMSService, keyURI, secret string) (string, error) {
	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", envelopeDomain.ErrConfiguration, err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := keeper.Encrypt(ctx, []byte(secret))
	if err != nil {
		return "", fmt.Errorf("%w: failed to encrypt server secret: %v", envelopeDomain.ErrConfiguration, err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
