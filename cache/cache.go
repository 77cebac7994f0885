// Package cache holds extracted audio descriptors for the validity
// window of their signed URLs. Entries expire logically on read: an
// entry older than the TTL is reported as a miss even if it is still
// physically present.
package cache

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tunely/extractor"
)

type entry struct {
	descriptor extractor.AudioDescriptor
	insertedAt time.Time
}

// AudioCache maps video IDs to extracted audio descriptors with a fixed
// TTL. It is safe for concurrent use. The TTL must stay under the
// upstream URL signature lifetime with margin for clock drift and
// in-flight latency; that bound is enforced by config, not here.
type AudioCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *AudioCache {
	return &AudioCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the descriptor for key. The second return is
// false both when the key was never inserted and when the stored entry
// has aged past the TTL.
func (c *AudioCache) Get(key string) (*extractor.AudioDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		return nil, false
	}
	descriptor := e.descriptor
	return &descriptor, true
}

// Put stores the descriptor for key, unconditionally replacing any
// existing entry with a fresh insertion time. Physically stale entries
// are swept on the way out; a swept entry and a logically expired one
// are indistinguishable to readers.
func (c *AudioCache) Put(key string, descriptor *extractor.AudioDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}

	c.entries[key] = entry{descriptor: *descriptor, insertedAt: now}
	log.WithFields(log.Fields{"module": "cache"}).
		Tracef("cached audio URL for %s (%d live entries)", key, len(c.entries))
}

// Len reports the number of physically stored entries, expired or not.
// Only used for metrics.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
