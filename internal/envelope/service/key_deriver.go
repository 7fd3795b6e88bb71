package service

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// scrypt cost parameters. N=2^15, r=8, p=1 costs roughly 32 MiB and tens of
// milliseconds, so derivation happens once at startup and never per request.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// KeyDeriver turns a server secret and salt into the process MasterKey using scrypt.
type KeyDeriver struct {
	n, r, p int
}

// NewKeyDeriver creates a KeyDeriver with the default scrypt cost parameters.
func NewKeyDeriver() *KeyDeriver {
	return &KeyDeriver{n: scryptN, r: scryptR, p: scryptP}
}

// Derive deterministically derives a 32-byte MasterKey from secret and salt.
//
// Returns ErrConfiguration if the secret is blank or the salt is empty.
func (d *KeyDeriver) Derive(secret string, salt []byte) (*envelopeDomain.MasterKey, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: server secret is required", envelopeDomain.ErrConfiguration)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: salt is required", envelopeDomain.ErrConfiguration)
	}

	key, err := scrypt.Key([]byte(secret), salt, d.n, d.r, d.p, envelopeDomain.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to derive master key: %v", envelopeDomain.ErrConfiguration, err)
	}
	defer envelopeDomain.Zero(key)

	return envelopeDomain.NewMasterKey(key)
}
