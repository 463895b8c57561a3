// Package cache keeps recently read documents in memory in front of a slow
// document backend.
package cache

import (
	"context"
	"sync"
	"time"

	"keuangan/internal/store"
)

// maxDocuments covers every document name the ledger uses with room to spare.
const maxDocuments = 16

// Documents is a read-through, write-through cache over another
// store.Documents. Entries live for ttl, so other writers to the same
// backend become visible after at most ttl.
type Documents struct {
	next  store.Documents
	cache *LRUCache[[]byte]

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewDocuments wraps next and starts a janitor that drops expired entries.
// Close stops it.
func NewDocuments(next store.Documents, ttl time.Duration) *Documents {
	d := &Documents{
		next:  next,
		cache: NewLRUCache[[]byte](maxDocuments, ttl),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.janitor(ttl)
	return d
}

func (d *Documents) Get(ctx context.Context, name string) ([]byte, error) {
	if body, ok := d.cache.Get(name); ok {
		return clone(body), nil
	}
	body, err := d.next.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	d.cache.Set(name, clone(body))
	return body, nil
}

// Put writes through. A failed write evicts the entry since the backend
// state is then unknown.
func (d *Documents) Put(ctx context.Context, name string, body []byte) error {
	if err := d.next.Put(ctx, name, body); err != nil {
		d.cache.Delete(name)
		return err
	}
	d.cache.Set(name, clone(body))
	return nil
}

func (d *Documents) Stats() Stats {
	return d.cache.Stats()
}

// Close stops the janitor. Safe to call more than once.
func (d *Documents) Close() error {
	d.stopOnce.Do(func() {
		close(d.stop)
		<-d.done
	})
	return nil
}

func (d *Documents) janitor(interval time.Duration) {
	defer close(d.done)
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.cache.CleanExpired()
		case <-d.stop:
			return
		}
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
