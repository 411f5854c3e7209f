package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrSecretMismatch = errors.New("security: secret mismatch")

// CronSecretBytes is the entropy behind a generated scheduler secret.
const CronSecretBytes = 32

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(secret string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return ErrSecretMismatch
	}
	return nil
}

// NewCronSecret returns a URL-safe bearer secret for the payout scheduler and
// the hash to store in CRON_SECRET_HASH.
func (h BcryptHasher) NewCronSecret() (secret, hash string, err error) {
	buf := make([]byte, CronSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("security: entropy read failed: %w", err)
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	if hash, err = h.Hash(secret); err != nil {
		return "", "", err
	}
	return secret, hash, nil
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

// SecretVerifier checks bearer secrets of machine callers against a stored
// bcrypt hash. An empty hash rejects every secret.
type SecretVerifier struct {
	Hash   string
	Hasher BcryptHasher
}

func (v SecretVerifier) Verify(secret string) error {
	hash := strings.TrimSpace(v.Hash)
	if hash == "" || secret == "" {
		return ErrSecretMismatch
	}
	return v.Hasher.Compare(hash, secret)
}
