package usecase

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
)

// embeddingCache maps message id + content fingerprint to a previously
// computed vector. Entries expire after a fixed TTL; content changes under a
// reused id produce a different fingerprint and so a different key, which
// means an edited message gets a fresh embedding immediately while the stale
// entry ages out on its own.
type embeddingCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]embeddingEntry
}

type embeddingEntry struct {
	vector   []float32
	storedAt time.Time
}

func newEmbeddingCache(ttl time.Duration, now func() time.Time) *embeddingCache {
	return &embeddingCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]embeddingEntry),
	}
}

func (c *embeddingCache) get(key string) ([]float32, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.vector, true
}

func (c *embeddingCache) put(key string, vector []float32) {
	c.mu.Lock()
	c.entries[key] = embeddingEntry{vector: vector, storedAt: c.now()}
	c.mu.Unlock()
}

func embeddingKey(msg domain.Message) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(msg.Text))
	return fmt.Sprintf("%s:%x", msg.ID, h.Sum64())
}
