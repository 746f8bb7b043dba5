// Package dedup drops MQTT QoS1 redeliveries by remembering payload hashes for a TTL.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
	now  func() time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time, max), now: time.Now}
}

// PayloadKey is the sha256 of a payload, hex encoded.
func PayloadKey(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}

// ShouldProcessPayload is ShouldProcess keyed on the payload hash.
func (d *Deduper) ShouldProcessPayload(payload []byte) bool {
	if d == nil {
		return true
	}
	return d.ShouldProcess(PayloadKey(payload))
}

// ShouldProcess reports whether id was not seen within the TTL, and marks it seen.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	if len(d.seen) >= d.max {
		d.evict(now, d.max-1)
	}
	d.seen[id] = now.Add(d.ttl)
	return true
}

// evict drops expired entries first, then arbitrary ones until at most limit remain.
func (d *Deduper) evict(now time.Time, limit int) {
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
	}
	for k := range d.seen {
		if len(d.seen) <= limit {
			return
		}
		delete(d.seen, k)
	}
}

func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
