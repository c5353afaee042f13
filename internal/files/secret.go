package files

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"siteqr/internal/config"
	"siteqr/internal/crypto"
)

// SecretBytes is how much randomness gensecret writes (hex encoded on disk).
const SecretBytes = 32

var ErrSecretExists = errors.New("secret file already exists")

// ReadSecret resolves the shared secret: the configured value (SITEQR_SECRET or
// the config file's secret key) wins, otherwise the contents of cfg.SecretFile.
// Surrounding whitespace is trimmed.
func ReadSecret(cfg config.Config) (string, error) {
	s := strings.TrimSpace(cfg.Secret)
	if s == "" {
		if cfg.SecretFile == "" {
			return "", fmt.Errorf("%s_SECRET not set and no secret file configured", config.EnvPrefix)
		}
		data, err := os.ReadFile(cfg.SecretFile)
		if err != nil {
			return "", fmt.Errorf("%s_SECRET not set and secret file %s unreadable: %w", config.EnvPrefix, cfg.SecretFile, err)
		}
		s = strings.TrimSpace(string(data))
	}
	if s == "" {
		return "", crypto.ErrEmptySecret
	}
	return s, nil
}

// WriteSecretFile generates a fresh secret and writes it to path with 0600
// permissions. An existing file is only replaced when force is set.
func WriteSecretFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, ErrSecretExists)
	}
	secret, err := crypto.GenerateSecret(SecretBytes)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	if err := os.WriteFile(path, []byte(secret+"\n"), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
