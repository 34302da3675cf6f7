package statesvc

import (
	"log/slog"

	"github.com/vango-dev/statesvc/internal/errors"
)

// Factory creates instances of one Definition, sharing them through a
// Store when a cache key resolves.
//
// Key policy: Definition.UniqueKey, when set, is consulted on every Create.
// If both the explicit key and the derived key are non-empty they must be
// equal; otherwise Create fails with ErrKeyConflict. If only one is
// non-empty it is used. If both are empty the instance is private.
type Factory struct {
	id    string
	def   Definition
	store *Store
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithStore sets the store a factory caches into. Defaults to Default().
func WithStore(s *Store) FactoryOption {
	return func(f *Factory) {
		if s != nil {
			f.store = s
		}
	}
}

// NewFactory creates a factory for def.
func NewFactory(def Definition, opts ...FactoryOption) *Factory {
	f := &Factory{
		id:    newID(),
		def:   def,
		store: defaultStore,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID returns the factory's unique id. Cache keys are namespaced with it.
func (f *Factory) ID() string {
	return f.id
}

// Name returns the definition's service name.
func (f *Factory) Name() string {
	return f.def.serviceName()
}

// Store returns the store the factory caches into.
func (f *Factory) Store() *Store {
	return f.store
}

func (f *Factory) logger() *slog.Logger {
	return f.store.logger
}

// storeKey namespaces key to this factory.
func (f *Factory) storeKey(key string) string {
	return f.id + "::" + key
}

// Create returns the instance for key, building it if needed.
//
// On a cache hit the stored instance is returned as is; props are ignored.
// Otherwise props are merged over Definition.DefaultProps, InitialState runs
// with the new instance and, when a key resolved, the instance is stored
// before it is returned.
func (f *Factory) Create(key string, props Props) (*Instance, error) {
	name := f.Name()

	var defaults Props
	if f.def.DefaultProps != nil {
		if err := guard(name, "DefaultProps", func() error {
			defaults = f.def.DefaultProps()
			return nil
		}); err != nil {
			f.store.metrics.hookFailed(name, "DefaultProps")
			return nil, err
		}
	}
	merged := mergeProps(defaults, props)

	key, err := f.resolveKey(key, merged)
	if err != nil {
		return nil, err
	}

	var sk string
	if key != "" {
		sk = f.storeKey(key)
		if inst, ok := f.store.Get(sk); ok {
			f.store.metrics.cacheHit(name)
			f.logger().Debug("statesvc: cache hit", "service", name, "key", key, "instance", inst.id)
			return inst, nil
		}
	}

	inst := &Instance{
		id:       newID(),
		factory:  f,
		props:    merged,
		cacheKey: key,
		storeKey: sk,
		state:    make(State),
		tokens:   make(map[Component]uint64),
		subs:     make(map[uint64]*subscriber),
	}

	if f.def.InitialState != nil {
		var initial State
		if err := guard(name, "InitialState", func() error {
			var ierr error
			initial, ierr = f.def.InitialState(inst)
			return ierr
		}); err != nil {
			f.store.metrics.hookFailed(name, "InitialState")
			return nil, err
		}
		for k, v := range initial {
			inst.state[k] = v
		}
	}

	if sk != "" {
		if actual, loaded := f.store.loadOrStore(sk, inst); loaded {
			f.store.metrics.cacheHit(name)
			return actual, nil
		}
	}

	f.store.metrics.instanceCreated(name)
	f.logger().Debug("statesvc: instance created", "service", name, "key", key, "instance", inst.id)
	return inst, nil
}

// resolveKey applies the factory's key policy.
func (f *Factory) resolveKey(explicit string, props Props) (string, error) {
	if f.def.UniqueKey == nil {
		return explicit, nil
	}

	var derived string
	name := f.Name()
	if err := guard(name, "UniqueKey", func() error {
		derived = f.def.UniqueKey(props)
		return nil
	}); err != nil {
		f.store.metrics.hookFailed(name, "UniqueKey")
		return "", err
	}

	switch {
	case explicit == "":
		return derived, nil
	case derived == "" || derived == explicit:
		return explicit, nil
	default:
		return "", errors.New("E002").
			WithDetailf("service %s: cache key %q != unique key %q", name, explicit, derived).
			WithSuggestion("Drop the explicit CacheKey or make UniqueKey return the same key")
	}
}

// Mixin returns a descriptor that binds components to this factory's
// instances using opts.
func (f *Factory) Mixin(opts MixinOptions) *Mixin {
	keys := opts.Keys
	if keys != nil {
		keys = append([]string(nil), keys...)
	}
	opts.Keys = keys
	return &Mixin{factory: f, opts: opts}
}
