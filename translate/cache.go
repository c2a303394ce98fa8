package translate

import (
	"context"
	"strings"
	"sync"
)

// Backend performs a single upstream translation; the AI orchestrator
// implements it. The bool is false when the backend fell back to returning
// the input untranslated; such results must not be memoized.
type Backend interface {
	TranslateText(ctx context.Context, text, targetLang string) (string, bool, error)
}

// Cache memoizes per-language translations. It is an explicit, constructible
// object so independent instances (per test, per tenant) can coexist; nothing
// here is ambient state.
//
// Concurrent misses for the same key may each call upstream; last write to the
// key wins. That duplicate work is accepted: results for identical input are
// expected to converge.
type Cache struct {
	backend    Backend
	sourceLang string
	maxEntries int

	mu      sync.Mutex
	entries map[string]string
	order   []string // insertion order, oldest first
}

const DefaultMaxEntries = 1024

// New builds a cache in front of backend. sourceLang is the language guides
// are authored in; requests for it bypass the provider entirely.
func New(backend Backend, sourceLang string, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if sourceLang == "" {
		sourceLang = "en"
	}
	return &Cache{
		backend:    backend,
		sourceLang: sourceLang,
		maxEntries: maxEntries,
		entries:    map[string]string{},
	}
}

func cacheKey(lang, text string) string {
	return lang + "\x00" + text
}

// Translate returns text in targetLang, calling upstream at most once per
// (text, targetLang) pair while the entry stays cached.
func (c *Cache) Translate(ctx context.Context, text, targetLang string) (string, error) {
	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" || strings.EqualFold(targetLang, c.sourceLang) {
		return text, nil
	}
	key := cacheKey(targetLang, text)
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	out, translated, err := c.backend.TranslateText(ctx, text, targetLang)
	if err != nil {
		return "", err
	}
	if !translated {
		// Degraded passthrough: serve it once but leave the key uncached so
		// the next request retries upstream.
		return out, nil
	}
	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		c.entries[key] = out
		c.order = append(c.order, key)
		c.evictLocked()
	} else {
		c.entries[key] = out
	}
	c.mu.Unlock()
	return out, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictLocked() {
	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}
