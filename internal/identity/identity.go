package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

// Provider hands out the stable opaque client token the server uses to
// recognize a returning participant. The token is created once, stored in a
// plain file, and never changes afterwards.
type Provider struct {
	path string
}

func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// DefaultPath resolves the token location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "gerrymander", "client_id"), nil
}

// GetOrCreate returns the persisted token, generating and persisting a new
// one on first use.
func (p *Provider) GetOrCreate() (string, error) {
	data, err := os.ReadFile(p.path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read identity: %w", err)
	}

	token, err := generateToken(12)
	if err != nil {
		return "", err
	}
	id := "user_" + token

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}

func generateToken(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	b := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
