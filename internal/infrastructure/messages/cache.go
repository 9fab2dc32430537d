package messages

import (
	"sync"
	"time"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
)

type corpusState int

const (
	corpusMissing corpusState = iota
	corpusFresh
	corpusStaleUsable
	corpusStaleExpired
)

// corpusCache holds the last fetched corpus as a single immutable snapshot.
// Refresh replaces the whole value under the write lock, so in-flight readers
// always see a fully-formed corpus.
type corpusCache struct {
	ttl          time.Duration
	staleCeiling time.Duration
	now          func() time.Time

	mu        sync.RWMutex
	snap      []domain.Message
	fetchedAt time.Time
}

func newCorpusCache(ttl, staleCeiling time.Duration, now func() time.Time) *corpusCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if staleCeiling < ttl {
		staleCeiling = 6 * ttl
	}
	return &corpusCache{ttl: ttl, staleCeiling: staleCeiling, now: now}
}

func (c *corpusCache) snapshot() ([]domain.Message, corpusState) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.fetchedAt.IsZero() {
		return nil, corpusMissing
	}
	age := c.now().Sub(c.fetchedAt)
	switch {
	case age < c.ttl:
		return c.snap, corpusFresh
	case age < c.staleCeiling:
		return c.snap, corpusStaleUsable
	default:
		return nil, corpusStaleExpired
	}
}

func (c *corpusCache) replace(corpus []domain.Message) {
	c.mu.Lock()
	c.snap = corpus
	c.fetchedAt = c.now()
	c.mu.Unlock()
}
