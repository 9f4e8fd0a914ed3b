package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keyring service overrides are saved under.
const DefaultKeyringService = "com.aryansondharva.n9ne"

// KeyringPersister saves overrides in the operating system keyring.
type KeyringPersister struct {
	Service string
}

// NewKeyringPersister creates a persister for service, falling back to DefaultKeyringService.
func NewKeyringPersister(service string) *KeyringPersister {
	return &KeyringPersister{Service: strings.TrimSpace(service)}
}

// Load returns the saved value for name or ErrNotFound.
func (p *KeyringPersister) Load(name string) (string, error) {
	value, err := keyring.Get(p.service(), strings.TrimSpace(name))
	if err == nil {
		return value, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return "", fmt.Errorf("keyring get %s: %w", name, err)
}

// Save stores value for name, replacing any previous entry.
func (p *KeyringPersister) Save(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("credential name is required")
	}
	if value == "" {
		return fmt.Errorf("credential value is required")
	}
	if err := keyring.Set(p.service(), name, value); err != nil {
		return fmt.Errorf("keyring set %s: %w", name, err)
	}
	return nil
}

func (p *KeyringPersister) service() string {
	if p != nil && p.Service != "" {
		return p.Service
	}
	return DefaultKeyringService
}
