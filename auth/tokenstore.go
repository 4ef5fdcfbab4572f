// Package auth drives cancellable OAuth-style authorization.
// This file contains optional keyring-backed persistence for
// authorization state, keyed by server base URL. The orchestrator never
// touches it; callers decide whether a credential is worth keeping.
package auth

import (
	"encoding/json"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/samermassoud/eduvpn-client/common"
)

// keyringService is the identifier used in the system keyring.
const keyringService = "eduvpn-client"

// TokenStore persists authorization state in the system keyring.
type TokenStore struct {
	service string
}

// NewTokenStore creates a token store using the default service name.
func NewTokenStore() *TokenStore {
	return &TokenStore{service: keyringService}
}

// Save stores the authorization state for its server base URL.
func (t *TokenStore) Save(state *State) error {
	if state == nil || state.BaseURL == "" {
		return errors.New("state must carry a base URL")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return common.WrapError(common.ErrTokenStorage, err.Error())
	}
	if err := keyring.Set(t.service, state.BaseURL, string(data)); err != nil {
		return common.WrapError(common.ErrTokenStorage, err.Error())
	}
	return nil
}

// Load retrieves the authorization state for a server base URL.
// Returns common.ErrTokenNotFound when none is stored.
func (t *TokenStore) Load(baseURL string) (*State, error) {
	data, err := keyring.Get(t.service, baseURL)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, common.WrapError(common.ErrTokenStorage, err.Error())
	}
	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, common.WrapError(common.ErrTokenStorage, err.Error())
	}
	return &state, nil
}

// Delete removes the stored state for a server base URL, if any.
func (t *TokenStore) Delete(baseURL string) error {
	if err := keyring.Delete(t.service, baseURL); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return common.WrapError(common.ErrTokenStorage, err.Error())
	}
	return nil
}
