package schema

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Source)
	registryMu sync.RWMutex
)

// Register adds a source to the registry.
// Panics if a source with the same key is already registered.
func Register(src Source) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[src.Key]; exists {
		panic(fmt.Sprintf("source already registered: %s", src.Key))
	}

	registry[src.Key] = src
}

// Get returns a source by key.
// Returns false if not found.
func Get(key string) (Source, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	src, ok := registry[key]
	return src, ok
}

// All returns all registered sources, sorted by key for consistent ordering.
func All() []Source {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Source, 0, len(registry))
	for _, src := range registry {
		result = append(result, src)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns all registered source keys, sorted alphabetically.
func Keys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
