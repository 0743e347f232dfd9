package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aidanwoods.dev/go-paseto"
)

// LoadOrGenerateKeyPair loads or generates the Ed25519 key pair used to sign
// development identity tokens. The secret key is stored in
// <dir>/identity.key as hex; a new pair is generated when the file is missing.
func LoadOrGenerateKeyPair(dir string) (paseto.V4AsymmetricSecretKey, error) {
	keyPath := filepath.Join(dir, "identity.key")

	//#nosec G304 -- key path is derived from the configured data path
	if keyBytes, err := os.ReadFile(keyPath); err == nil {
		key, err := paseto.NewV4AsymmetricSecretKeyFromHex(strings.TrimSpace(string(keyBytes)))
		if err != nil {
			return paseto.V4AsymmetricSecretKey{}, fmt.Errorf("invalid identity key in %s: %w", keyPath, err)
		}
		return key, nil
	}

	key := paseto.NewV4AsymmetricSecretKey()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return paseto.V4AsymmetricSecretKey{}, fmt.Errorf("failed to create key directory: %w", err)
	}

	if err := os.WriteFile(keyPath, []byte(key.ExportHex()), 0o600); err != nil {
		return paseto.V4AsymmetricSecretKey{}, fmt.Errorf("failed to save identity key: %w", err)
	}

	return key, nil
}

// ParsePublicKey decodes a hex-encoded Ed25519 public key.
func ParsePublicKey(keyHex string) (paseto.V4AsymmetricPublicKey, error) {
	key, err := paseto.NewV4AsymmetricPublicKeyFromHex(strings.TrimSpace(keyHex))
	if err != nil {
		return paseto.V4AsymmetricPublicKey{}, fmt.Errorf("invalid identity public key: %w", err)
	}
	return key, nil
}
