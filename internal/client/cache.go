package client

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Staleness windows.
const (
	ListingStaleTime = 5 * time.Minute
	SearchStaleTime  = 2 * time.Minute
	DefaultStaleTime = 30 * time.Second
	// NeverStale keeps an entry until it is invalidated.
	NeverStale time.Duration = -1
)

// Key identifies a cached query: a resource name and its serialized
// parameters (an id, or an encoded query string).
type Key struct {
	Resource string
	Params   string
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "/" + k.Params
}

// All matches every entry of a resource when used as an invalidation target.
func All(resource string) Key {
	return Key{Resource: resource}
}

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// queryCache holds query results. Every invalidation advances epoch and
// stamps its targets, so a fetch that began before the stamp is returned to
// its callers but not stored.
type queryCache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// links pairs keys that name the same object, such as a savoir's id
	// and its slug.
	links   map[Key]map[Key]struct{}
	stamps  map[Key]uint64
	pending map[Key]int
	epoch   uint64
	resetAt uint64
	group   singleflight.Group
	now     func() time.Time
}

func newQueryCache(now func() time.Time) *queryCache {
	if now == nil {
		now = time.Now
	}
	return &queryCache{
		entries: make(map[Key]*entry),
		links:   make(map[Key]map[Key]struct{}),
		stamps:  make(map[Key]uint64),
		pending: make(map[Key]int),
		now:     now,
	}
}

// fresh returns the cached value when it is within ttl and not invalidated.
func (qc *queryCache) fresh(k Key, ttl time.Duration) (any, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e, ok := qc.entries[k]
	if !ok || e.stale {
		return nil, false
	}
	if ttl >= 0 && qc.now().Sub(e.fetchedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

// begin registers a fetch of k and returns the epoch it started in.
func (qc *queryCache) begin(k Key) uint64 {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.pending[k]++
	return qc.epoch
}

func (qc *queryCache) done(k Key) {
	if qc.pending[k]--; qc.pending[k] <= 0 {
		delete(qc.pending, k)
	}
}

// abandon ends a fetch that produced nothing.
func (qc *queryCache) abandon(k Key) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.done(k)
}

// commit stores v under k and links k to aliases, unless k, an alias or one
// of their resources was invalidated after start. It reports whether v was
// stored.
func (qc *queryCache) commit(k Key, v any, start uint64, aliases ...Key) bool {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.done(k)

	if qc.resetAt > start {
		return false
	}
	for _, a := range append([]Key{k}, aliases...) {
		if qc.stamps[a] > start || qc.stamps[All(a.Resource)] > start {
			return false
		}
	}

	qc.entries[k] = &entry{value: v, fetchedAt: qc.now()}
	for _, a := range aliases {
		if a == k || a.Params == "" {
			continue
		}
		qc.link(k, a)
		qc.link(a, k)
	}
	return true
}

func (qc *queryCache) link(from, to Key) {
	set, ok := qc.links[from]
	if !ok {
		set = make(map[Key]struct{})
		qc.links[from] = set
	}
	set[to] = struct{}{}
}

// invalidate marks matching entries stale and drops in-flight fetches of
// them. A target without Params matches every entry of its resource; a
// target with Params also matches the keys linked to it.
func (qc *queryCache) invalidate(targets ...Key) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.epoch++

	expanded := append([]Key(nil), targets...)
	for _, t := range targets {
		if t.Params == "" {
			continue
		}
		for alias := range qc.links[t] {
			expanded = append(expanded, alias)
		}
	}
	for _, t := range expanded {
		qc.stamps[t] = qc.epoch
	}

	for k, e := range qc.entries {
		if matches(k, expanded) {
			e.stale = true
		}
	}
	for k := range qc.pending {
		if matches(k, expanded) {
			qc.group.Forget(k.String())
		}
	}
}

func matches(k Key, targets []Key) bool {
	for _, t := range targets {
		if k.Resource == t.Resource && (t.Params == "" || k.Params == t.Params) {
			return true
		}
	}
	return false
}

// reset marks everything stale, as after a change of signed-in user.
func (qc *queryCache) reset() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.epoch++
	qc.resetAt = qc.epoch
	for _, e := range qc.entries {
		e.stale = true
	}
	for k := range qc.pending {
		qc.group.Forget(k.String())
	}
}

// IsStale reports whether the next read of k goes to the network.
func (c *Client) IsStale(k Key, ttl time.Duration) bool {
	_, ok := c.cache.fresh(k, ttl)
	return !ok
}
