package engage

import (
	"sync"
	"time"
)

// BoostStore tags conversations the bot just proactively engaged, so
// downstream reply-willingness logic answers more eagerly for a short
// window. Entries expire after the configured TTL and are pruned
// lazily on read; nothing here is persisted.
type BoostStore struct {
	mu      sync.Mutex
	window  time.Duration
	willing float64
	sentAt  map[string]time.Time
	now     func() time.Time
}

func NewBoostStore(cfg Config) *BoostStore {
	return &BoostStore{
		window:  cfg.BoostWindow,
		willing: cfg.BoostWilling,
		sentAt:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// NotifyEngaged marks a target conversation as just-engaged. Called by
// the delivery stage after a confirmed send.
func (b *BoostStore) NotifyEngaged(targetKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sentAt[targetKey] = b.now()
}

// Gain returns the willingness value for a conversation still inside
// its boost window, and whether the window is active. Expired entries
// are dropped.
func (b *BoostStore) Gain(targetKey string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	at, ok := b.sentAt[targetKey]
	if !ok {
		return 0, false
	}
	if b.now().Sub(at) > b.window {
		delete(b.sentAt, targetKey)
		return 0, false
	}
	return b.willing, true
}
