package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "leasingedge"

	// EnvLLMAPIKey overrides the keychain when set.
	EnvLLMAPIKey = "LEASINGEDGE_LLM_API_KEY"
)

var ErrNoAPIKey = errors.New("LLM API key not found (set it in the keychain or " + EnvLLMAPIKey + ")")

// GetLLMAPIKey returns the API key from the environment, then the keychain.
func GetLLMAPIKey(keyringAccount string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvLLMAPIKey)); v != "" {
		return v, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		key, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(key) != "" {
			return key, nil
		}
	}
	return "", ErrNoAPIKey
}

func SetLLMAPIKey(keyringAccount string, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeleteLLMAPIKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}
