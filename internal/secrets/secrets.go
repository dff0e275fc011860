// Package secrets stores provider credentials sealed with authenticated
// encryption. Plaintext keys exist only in memory; the record store only
// ever sees ciphertext.
package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Store is the credential contract the gateway depends on. "No credential
// yet" is a normal outcome (found=false, nil error), distinct from a
// lookup failure.
type Store interface {
	Store(ctx context.Context, providerID, secret string) error
	Retrieve(ctx context.Context, providerID string) (secret string, found bool, err error)
	Delete(ctx context.Context, providerID string) error
}

// Backend persists sealed credentials.
type Backend interface {
	PutCredential(ctx context.Context, providerID string, ciphertext []byte) error
	GetCredential(ctx context.Context, providerID string) (ciphertext []byte, found bool, err error)
	DeleteCredential(ctx context.Context, providerID string) error
}

// Vault seals credentials with AES-256-GCM under a master key before
// handing them to the backend.
type Vault struct {
	aead    cipher.AEAD
	backend Backend
}

// NewVault creates a vault from a base64-encoded 32-byte master key, as
// produced by cmd/keygen.
func NewVault(masterKey string, backend Backend) (*Vault, error) {
	key, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &Vault{aead: aead, backend: backend}, nil
}

func (v *Vault) Store(ctx context.Context, providerID, secret string) error {
	sealed, err := v.seal(providerID, []byte(secret))
	if err != nil {
		return fmt.Errorf("seal credential for provider %s: %w", providerID, err)
	}
	if err := v.backend.PutCredential(ctx, providerID, sealed); err != nil {
		return fmt.Errorf("store credential for provider %s: %w", providerID, err)
	}
	return nil
}

func (v *Vault) Retrieve(ctx context.Context, providerID string) (string, bool, error) {
	sealed, found, err := v.backend.GetCredential(ctx, providerID)
	if err != nil {
		return "", false, fmt.Errorf("load credential for provider %s: %w", providerID, err)
	}
	if !found {
		return "", false, nil
	}
	plain, err := v.open(providerID, sealed)
	if err != nil {
		return "", false, fmt.Errorf("unseal credential for provider %s: %w", providerID, err)
	}
	return string(plain), true, nil
}

func (v *Vault) Delete(ctx context.Context, providerID string) error {
	return v.backend.DeleteCredential(ctx, providerID)
}

// seal produces nonce||ciphertext. The provider id is bound as additional
// authenticated data so a ciphertext cannot be replayed onto another
// provider row.
func (v *Vault) seal(providerID string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return v.aead.Seal(nonce, nonce, plaintext, []byte(providerID)), nil
}

func (v *Vault) open(providerID string, sealed []byte) ([]byte, error) {
	ns := v.aead.NonceSize()
	if len(sealed) < ns {
		return nil, fmt.Errorf("sealed credential too short")
	}
	return v.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(providerID))
}

// GenerateMasterKey returns a fresh base64-encoded 32-byte key.
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
