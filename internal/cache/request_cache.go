package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"aigate/internal"
	"aigate/internal/errors"

	"golang.org/x/sync/singleflight"
)

// State describes how current a served value is
type State string

const (
	StateFresh State = "fresh"
	StateStale State = "stale"
)

// Outcome tells the caller which path produced a Result
type Outcome string

const (
	// OutcomeHit means a fresh entry was served and no producer ran
	OutcomeHit Outcome = "hit"
	// OutcomeRefreshed means the producer ran and its value was stored
	OutcomeRefreshed Outcome = "refreshed"
	// OutcomeStaleFallback means the producer failed and a stale value was served instead
	OutcomeStaleFallback Outcome = "stale_fallback"
)

// Entry is a stored value with its freshness windows. FreshUntil <= StaleUntil always holds.
type Entry[T any] struct {
	Value      T
	FreshUntil time.Time
	StaleUntil time.Time
}

// Result is what Fetch returns on success or soft degradation. Hard failures come back as errors.
type Result[T any] struct {
	Value   T
	State   State
	Outcome Outcome
	// Shared is true when this caller joined another caller's in-flight fetch
	Shared bool
	// FallbackCause is the suppressed upstream error when Outcome is OutcomeStaleFallback
	FallbackCause error
	RateLimited   bool
}

// Producer performs the expensive upstream call for one key
type Producer[T any] func(ctx context.Context) (T, error)

// FetchOptions configures one Fetch call
type FetchOptions struct {
	TTLFresh time.Duration
	TTLStale time.Duration
	// IsRateLimited classifies producer errors; nil means no error is a rate limit
	IsRateLimited func(error) bool
	// RateLimitGrace extends the stale window when the producer was rate limited
	RateLimitGrace time.Duration
}

// Stats is a snapshot of cache counters
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Fetches     uint64 `json:"fetches"`
	Failures    uint64 `json:"failures"`
	StaleServed uint64 `json:"staleServed"`
	Shared      uint64 `json:"shared"`
}

// Option configures a RequestCache
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// RequestCache is a key-addressed cache with fresh/stale windows and single-flight fetches.
//
// Thread Safety:
//
//	Safe for concurrent use. The entry map is guarded by an RWMutex; the in-flight registry is a
//	singleflight.Group, so at most one producer runs per key and its slot is released when the
//	call settles, success or failure. Different keys never wait on each other's producers.
type RequestCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[T]
	flight  singleflight.Group
	now     func() time.Time
	log     *internal.Logger

	hits        atomic.Uint64
	misses      atomic.Uint64
	fetches     atomic.Uint64
	failures    atomic.Uint64
	staleServed atomic.Uint64
	shared      atomic.Uint64
}

// New creates an empty cache
func New[T any](opts ...Option) *RequestCache[T] {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return &RequestCache[T]{
		entries: make(map[string]*Entry[T]),
		now:     s.now,
		log:     internal.DefaultLogger.With("RequestCache"),
	}
}

// Key joins caller-defined scope parts, e.g. Key("quote", "BBCA", "1d")
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get returns the stored value and its state without fetching. ok is false when the key is
// missing or past its stale window.
func (c *RequestCache[T]) Get(key string) (value T, state State, ok bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if !found {
		return value, "", false
	}

	now := c.now()
	switch {
	case now.Before(entry.FreshUntil):
		return entry.Value, StateFresh, true
	case now.Before(entry.StaleUntil):
		return entry.Value, StateStale, true
	default:
		return value, "", false
	}
}

// Fetch returns a fresh value for key, calling producer at most once across all concurrent
// callers of the same key.
//
// If the producer fails and a stale entry exists, the stale value is returned with
// OutcomeStaleFallback and a nil error. Without a stale entry the failure is returned as an
// UPSTREAM_FETCH_ERROR or RATE_LIMITED AppError.
//
// Cancelling ctx releases only this caller; the producer keeps running detached from the
// cancellation so the other waiters and the cache still receive its result.
func (c *RequestCache[T]) Fetch(ctx context.Context, key string, opts FetchOptions, producer Producer[T]) (Result[T], error) {
	if value, state, ok := c.Get(key); ok && state == StateFresh {
		c.hits.Add(1)
		return Result[T]{Value: value, State: StateFresh, Outcome: OutcomeHit}, nil
	}
	c.misses.Add(1)

	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		return c.refresh(detached, key, opts, producer)
	})

	select {
	case <-ctx.Done():
		var zero Result[T]
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
		}
		if res.Err != nil {
			var zero Result[T]
			return zero, res.Err
		}
		result := res.Val.(Result[T])
		result.Shared = res.Shared
		return result, nil
	}
}

func (c *RequestCache[T]) refresh(ctx context.Context, key string, opts FetchOptions, producer Producer[T]) (Result[T], error) {
	// a flight that finished between our fast path and this one may have stored a fresh value
	if value, state, ok := c.Get(key); ok && state == StateFresh {
		return Result[T]{Value: value, State: StateFresh, Outcome: OutcomeHit}, nil
	}

	c.fetches.Add(1)
	value, err := producer(ctx)
	if err == nil {
		c.store(key, value, opts)
		return Result[T]{Value: value, State: StateFresh, Outcome: OutcomeRefreshed}, nil
	}

	c.failures.Add(1)
	rateLimited := opts.IsRateLimited != nil && opts.IsRateLimited(err)
	grace := time.Duration(0)
	if rateLimited {
		grace = opts.RateLimitGrace
	}

	if entry, ok := c.fallback(key, grace); ok {
		c.staleServed.Add(1)
		c.log.Warn("serving stale value for %s after upstream failure (rate_limited=%t): %v", key, rateLimited, err)
		return Result[T]{
			Value:         entry.Value,
			State:         StateStale,
			Outcome:       OutcomeStaleFallback,
			FallbackCause: err,
			RateLimited:   rateLimited,
		}, nil
	}

	c.log.Error("fetch failed for %s with no stale value (rate_limited=%t): %v", key, rateLimited, err)
	var zero Result[T]
	if rateLimited {
		return zero, errors.RateLimited(key, err)
	}
	return zero, errors.UpstreamFetch(key, err)
}

func (c *RequestCache[T]) store(key string, value T, opts FetchOptions) {
	now := c.now()
	freshUntil := now.Add(opts.TTLFresh)
	staleUntil := now.Add(opts.TTLStale)
	if staleUntil.Before(freshUntil) {
		staleUntil = freshUntil
	}

	c.mu.Lock()
	c.entries[key] = &Entry[T]{Value: value, FreshUntil: freshUntil, StaleUntil: staleUntil}
	c.mu.Unlock()
}

func (c *RequestCache[T]) fallback(key string, grace time.Duration) (Entry[T], bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if !found {
		return Entry[T]{}, false
	}
	if !c.now().Before(entry.StaleUntil.Add(grace)) {
		return Entry[T]{}, false
	}
	return *entry, true
}

// Len returns the number of stored entries, expired ones included
func (c *RequestCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry. In-flight fetches still complete and store their results.
func (c *RequestCache[T]) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry[T])
	c.mu.Unlock()
}

// Stats returns a snapshot of the cache counters
func (c *RequestCache[T]) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Fetches:     c.fetches.Load(),
		Failures:    c.failures.Load(),
		StaleServed: c.staleServed.Load(),
		Shared:      c.shared.Load(),
	}
}
