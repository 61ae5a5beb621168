package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/google/uuid"
)

const serviceName = "adminfeed"

// Keys of the secrets stored in the keyring.
const (
	// KeyAPIToken is the bearer token for the site's admin REST API.
	KeyAPIToken = "api-token"
	// KeyLocalToken guards the local admin HTTP surface.
	KeyLocalToken = "local-api-token"
)

// Environment variables that take precedence over the keyring.
const (
	EnvAPIToken   = "ADMINFEED_API_TOKEN"
	EnvLocalToken = "ADMINFEED_LOCAL_TOKEN"
)

// openRing is replaced in tests.
var openRing = openKeyring

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/adminfeed/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("adminfeed-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openRing()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openRing()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "adminfeed " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openRing()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// APIToken returns the upstream bearer token. The environment wins over
// the keyring. A token that was never stored yields "" and no error; the
// REST client reports that as an authentication failure.
func APIToken() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		return v, nil
	}
	token, err := Get(KeyAPIToken)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

// LocalToken returns the token clients must present to the local admin
// HTTP surface, generating and storing one on first use.
func LocalToken() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvLocalToken)); v != "" {
		return v, nil
	}

	token, err := Get(KeyLocalToken)
	if err == nil && token != "" {
		return token, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return "", err
	}

	token = uuid.NewString()
	if err := Set(KeyLocalToken, token); err != nil {
		return "", err
	}
	return token, nil
}
