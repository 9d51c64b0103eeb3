// Package auth hands out the secrets the remote adapters need.
//
// Tokens come from the config store, which itself prefers environment
// overrides, so KBSYNC_REMOTE_DATASET_API_KEY and friends are the
// recommended way to supply them.
package auth

import (
	"fmt"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure ConfigCredentials implements the interface.
var _ driven.CredentialsProvider = (*ConfigCredentials)(nil)

// Credential keys in the config store.
const (
	keyDatasetAPIKey  = "remote.dataset_api_key"
	keyChatflowAPIKey = "remote.chatflow_api_key"
	keySessionCookies = "session.cookies"
	keySessionCSRF    = "session.csrf_token"
)

// ConfigCredentials reads credentials from the config store on every
// call, so rotated tokens are picked up without a restart.
type ConfigCredentials struct {
	store driven.ConfigStore
}

// NewConfigCredentials creates the provider.
func NewConfigCredentials(store driven.ConfigStore) *ConfigCredentials {
	return &ConfigCredentials{store: store}
}

// DatasetToken returns the bearer token for document-store calls.
func (c *ConfigCredentials) DatasetToken() (string, error) {
	token := c.store.GetString(keyDatasetAPIKey)
	if token == "" {
		return "", fmt.Errorf("%w: dataset API key not configured", domain.ErrUnauthorised)
	}
	return token, nil
}

// ChatflowToken returns the bearer token for chat-endpoint calls.
func (c *ConfigCredentials) ChatflowToken() (string, error) {
	token := c.store.GetString(keyChatflowAPIKey)
	if token == "" {
		return "", fmt.Errorf("%w: chatflow API key not configured", domain.ErrUnauthorised)
	}
	return token, nil
}

// Session returns cookie/CSRF material for the console API backend.
func (c *ConfigCredentials) Session() (*driven.SessionCredentials, error) {
	cookies := c.store.GetString(keySessionCookies)
	if cookies == "" {
		return nil, fmt.Errorf("%w: session cookies not configured", domain.ErrSessionInvalid)
	}
	return &driven.SessionCredentials{
		Cookies:   cookies,
		CSRFToken: c.store.GetString(keySessionCSRF),
	}, nil
}
