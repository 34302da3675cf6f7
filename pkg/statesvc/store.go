package statesvc

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/vango-dev/statesvc/internal/errors"
)

// EvictionPolicy decides when cached instances leave the store.
type EvictionPolicy uint8

const (
	// EvictOnLastUnmount removes a cached instance as soon as its last
	// subscriber unmounts. A later mount with the same key starts fresh.
	EvictOnLastUnmount EvictionPolicy = iota

	// EvictOnReset keeps cached instances until Store.Clear. A cached
	// instance that is unsubscribed and resubscribed keeps its state.
	EvictOnReset
)

// String returns the config spelling of the policy.
func (p EvictionPolicy) String() string {
	switch p {
	case EvictOnLastUnmount:
		return "refcount"
	case EvictOnReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ParseEvictionPolicy parses "refcount" or "reset". The empty string
// selects the default, EvictOnLastUnmount.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch s {
	case "", "refcount":
		return EvictOnLastUnmount, nil
	case "reset":
		return EvictOnReset, nil
	default:
		return 0, errors.New("E121").WithDetailf("got %q", s)
	}
}

// Store maps namespaced cache keys to live service instances.
// It is a reference cache: entries leave only through Delete,
// CompareAndDelete or Clear.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Instance
	locals  Props

	policy  EvictionPolicy
	logger  *slog.Logger
	metrics *Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEvictionPolicy sets the store's eviction policy.
func WithEvictionPolicy(p EvictionPolicy) StoreOption {
	return func(s *Store) {
		s.policy = p
	}
}

// WithLogger sets the logger used by the store and its factories.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics to the store and its factories.
func WithMetrics(m *Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries: make(map[string]*Instance),
		locals:  make(Props),
		policy:  EvictOnLastUnmount,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultStore = NewStore()

// Default returns the process-wide store used by factories created
// without WithStore.
func Default() *Store {
	return defaultStore
}

// Reset clears the process-wide store. The render pipeline calls it once
// before building each server-rendered tree.
func Reset() {
	defaultStore.Clear()
}

// Get returns the instance stored under key.
func (s *Store) Get(key string) (*Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.entries[key]
	return inst, ok
}

// Set stores inst under key, replacing any previous entry.
func (s *Store) Set(key string, inst *Instance) {
	s.mu.Lock()
	s.entries[key] = inst
	n := len(s.entries)
	s.mu.Unlock()

	s.metrics.setCached(n)
}

// loadOrStore returns the existing entry for key, or stores inst.
// loaded reports whether an existing entry was returned.
func (s *Store) loadOrStore(key string, inst *Instance) (actual *Instance, loaded bool) {
	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		s.mu.Unlock()
		return existing, true
	}
	s.entries[key] = inst
	n := len(s.entries)
	s.mu.Unlock()

	s.metrics.setCached(n)
	return inst, false
}

// Delete removes the entry for key. Missing keys are a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	n := len(s.entries)
	s.mu.Unlock()

	s.metrics.setCached(n)
}

// CompareAndDelete removes the entry for key only if it is inst.
// An instance cached before a Clear can never evict its replacement.
func (s *Store) CompareAndDelete(key string, inst *Instance) bool {
	s.mu.Lock()
	current, ok := s.entries[key]
	if !ok || current != inst {
		s.mu.Unlock()
		return false
	}
	delete(s.entries, key)
	n := len(s.entries)
	s.mu.Unlock()

	s.metrics.setCached(n)
	return true
}

// Clear drops every entry and the request locals. It never fails and is
// safe on an empty store. Clear must not run while a render that uses this
// store is in flight.
func (s *Store) Clear() {
	s.mu.Lock()
	dropped := len(s.entries)
	s.entries = make(map[string]*Instance)
	s.locals = make(Props)
	s.mu.Unlock()

	s.metrics.storeCleared(dropped)
	s.logger.Debug("statesvc: store cleared", "dropped", dropped)
}

// Len returns the number of cached instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the cached keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// SetLocals records the props of the current render request.
func (s *Store) SetLocals(props Props) {
	s.mu.Lock()
	s.locals = props.Clone()
	s.mu.Unlock()
}

// Locals returns a copy of the props of the current render request.
func (s *Store) Locals() Props {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locals.Clone()
}

// Policy returns the store's eviction policy.
func (s *Store) Policy() EvictionPolicy {
	return s.policy
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}
