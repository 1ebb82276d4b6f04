package auth

import (
	"fmt"
	"sync"
)

// AdminKeyValidator validates admin API keys against a configured set of keys
type AdminKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]*AdminKeyInfo
}

// NewAdminKeyValidator creates a new admin key validator with the given keys
func NewAdminKeyValidator(keys []*AdminKeyInfo) *AdminKeyValidator {
	keyMap := make(map[string]*AdminKeyInfo)
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	return &AdminKeyValidator{
		keys: keyMap,
	}
}

// Validate checks if the given admin key is valid and returns its info
func (v *AdminKeyValidator) Validate(key string) (*AdminKeyInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, fmt.Errorf("invalid admin key")
	}

	if !info.Enabled {
		return nil, fmt.Errorf("admin key disabled")
	}

	return info, nil
}

// Replace swaps the full key set, used when configuration is reloaded
func (v *AdminKeyValidator) Replace(keys []*AdminKeyInfo) {
	keyMap := make(map[string]*AdminKeyInfo)
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys = keyMap
}
