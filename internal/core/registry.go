package core

import (
	"fmt"
	"sort"
	"sync"
)

// Profile is a named kind of moderation spreadsheet: the columns an upload
// must carry to be analysed under that name.
type Profile struct {
	Key         string   `json:"key" yaml:"key" validate:"required,profilekey"`
	Label       string   `json:"label" yaml:"label" validate:"required"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Required    []string `json:"required" yaml:"required" validate:"required,min=1,dive,required"`
}

var (
	registry   = make(map[string]Profile)
	registryMu sync.RWMutex
)

// Register adds a profile to the registry.
// Panics if a profile with the same key is already registered.
func Register(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Key]; exists {
		panic(fmt.Sprintf("profile already registered: %s", p.Key))
	}
	registry[p.Key] = p
}

// Replace adds or overwrites a profile.
func Replace(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Key] = p
}

// Get returns a profile by key.
// Returns false if not found.
func Get(key string) (Profile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	return p, ok
}

// Lookup returns a profile by key or an "unknown profile" error.
func Lookup(key string) (Profile, error) {
	p, ok := Get(key)
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile: %q", key)
	}
	return p, nil
}

// All returns all registered profiles sorted by key.
func All() []Profile {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Profile, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// ProfileCount returns the number of registered profiles.
func ProfileCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered profiles.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Profile)
}
