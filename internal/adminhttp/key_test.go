package adminhttp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ErlanBelekov/cronlet/internal/adminhttp"
)

func TestLoadOrCreateKey_GeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.key")

	first, err := adminhttp.LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("key length = %d, want 32", len(first))
	}

	second, err := adminhttp.LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey (reload): %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("LoadOrCreateKey regenerated a key instead of reusing the persisted one")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestIssueToken_ProducesParsableJWT(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	token, err := adminhttp.IssueToken(key)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if token == "" {
		t.Fatal("IssueToken returned empty string")
	}
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("IssueToken produced a token that does not parse against its key: %v", err)
	}
}
