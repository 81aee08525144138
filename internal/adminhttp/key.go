package adminhttp

import (
	"crypto/rand"
	"fmt"
	"os"
)

// LoadOrCreateKey reads the daemon's admin signing key from path,
// generating and persisting a fresh 32-byte random key on first run.
// Grounded on original_source's daemon/status.rs first-start
// bootstrap, adapted here from "status token" to "admin JWT secret".
func LoadOrCreateKey(path string) ([]byte, error) {
	existing, err := os.ReadFile(path)
	if err == nil && len(existing) > 0 {
		return existing, nil
	}
	if !os.IsNotExist(err) && err != nil {
		return nil, fmt.Errorf("read admin key %s: %w", path, err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate admin key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write admin key %s: %w", path, err)
	}
	return key, nil
}
