package statesvc

import (
	"reflect"
	"sort"
	"sync"

	"github.com/vango-dev/statesvc/internal/errors"
)

// subscriber is one registered component and the keys it tracks.
type subscriber struct {
	token     uint64
	keys      keySet
	component Component
}

// Instance holds a service's state and its subscriber table.
//
// Subscribers are tracked in an instance-owned table keyed by component
// handle; the component itself is never modified. SetState merges and then
// notifies in the same call, so every observer sees either none or all of
// an update.
type Instance struct {
	id       string
	factory  *Factory
	props    Props
	cacheKey string
	storeKey string

	mu        sync.RWMutex
	state     State
	tokens    map[Component]uint64
	subs      map[uint64]*subscriber
	nextToken uint64

	// At-most-once guards for the lifecycle hooks.
	firstMountFired  bool
	firstRenderFired bool
	lastUnmountFired bool
}

// ID returns the instance's unique id.
func (i *Instance) ID() string {
	return i.id
}

// Factory returns the factory that built the instance.
func (i *Instance) Factory() *Factory {
	return i.factory
}

// Store returns the store of the instance's factory.
func (i *Instance) Store() *Store {
	return i.factory.store
}

// CacheKey returns the key the instance is shared under, or "" when it is
// private.
func (i *Instance) CacheKey() string {
	return i.cacheKey
}

// Props returns a copy of the instance's merged props.
func (i *Instance) Props() Props {
	return i.props.Clone()
}

// Prop returns a single prop value.
func (i *Instance) Prop(key string) any {
	return i.props[key]
}

// RegisterComponent subscribes c to keys, or to every current state key
// when keys is empty. Registering an already registered component
// replaces its key set without counting it twice.
func (i *Instance) RegisterComponent(c Component, keys ...string) error {
	if err := validateComponent(c); err != nil {
		return err
	}

	i.mu.Lock()
	if len(keys) == 0 {
		keys = i.state.Keys()
	}
	ks := newKeySet(keys)

	token, ok := i.tokens[c]
	if ok {
		// Records are immutable once published; a notification pass may
		// still hold the previous one.
		i.subs[token] = &subscriber{token: token, keys: ks, component: c}
		i.mu.Unlock()
		return nil
	}

	i.nextToken++
	token = i.nextToken
	i.tokens[c] = token
	i.subs[token] = &subscriber{token: token, keys: ks, component: c}
	i.mu.Unlock()

	i.factory.store.metrics.subscribed(i.factory.Name())
	return nil
}

// DeregisterComponent removes c from the subscriber table. It reports
// whether c was registered; deregistering twice is a no-op.
func (i *Instance) DeregisterComponent(c Component) bool {
	if validateComponent(c) != nil {
		return false
	}

	i.mu.Lock()
	token, ok := i.tokens[c]
	if !ok {
		i.mu.Unlock()
		return false
	}
	delete(i.tokens, c)
	delete(i.subs, token)
	i.mu.Unlock()

	i.factory.store.metrics.unsubscribed(i.factory.Name())
	return true
}

// IsRegistered reports whether c is currently subscribed.
func (i *Instance) IsRegistered(c Component) bool {
	if validateComponent(c) != nil {
		return false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.tokens[c]
	return ok
}

// SubscriberCount returns the number of registered components.
func (i *Instance) SubscriberCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.subs)
}

// TrackedKeys returns the sorted keys c is subscribed to, or nil if c is
// not registered.
func (i *Instance) TrackedKeys(c Component) []string {
	if validateComponent(c) != nil {
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	token, ok := i.tokens[c]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(i.subs[token].keys))
	for k := range i.subs[token].keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetState returns a copy of the state restricted to keys, or the whole
// state when keys is empty. Keys absent from the state are omitted.
func (i *Instance) GetState(keys ...string) State {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(keys) == 0 {
		return i.state.Clone()
	}
	out := make(State, len(keys))
	for _, k := range keys {
		if v, ok := i.state[k]; ok {
			out[k] = v
		}
	}
	return out
}

// SetState merges partial into the state, then calls SetState on every
// subscriber tracking at least one of partial's keys with just those keys.
// Subscribers tracking none of them are not called at all, and neither are
// components deregistered by an earlier callback of the same pass.
func (i *Instance) SetState(partial State) error {
	if partial == nil {
		return errors.New("E001").
			WithDetailf("service %s: SetState(nil)", i.factory.Name())
	}

	i.mu.Lock()
	for k, v := range partial {
		i.state[k] = v
	}
	subs := make([]*subscriber, 0, len(i.subs))
	for _, s := range i.subs {
		subs = append(subs, s)
	}
	i.mu.Unlock()

	sort.Slice(subs, func(a, b int) bool { return subs[a].token < subs[b].token })

	notified := 0
	for _, snap := range subs {
		// An earlier callback may have deregistered or re-keyed it.
		s, ok := i.liveSubscriber(snap.token)
		if !ok {
			continue
		}
		filtered := pick(partial, s.keys)
		if len(filtered) == 0 {
			continue
		}
		s.component.SetState(filtered)
		notified++
	}

	i.factory.store.metrics.notified(i.factory.Name(), notified)
	return nil
}

// liveSubscriber returns the current record for token.
func (i *Instance) liveSubscriber(token uint64) (*subscriber, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.subs[token]
	return s, ok
}

// Dispatch invokes the named Definition action with i as receiver.
func (i *Instance) Dispatch(name string, args ...any) (any, error) {
	action, ok := i.factory.def.Actions[name]
	if !ok {
		return nil, errors.New("E005").
			WithDetailf("service %s has no action %q", i.factory.Name(), name)
	}
	return action(i, args...)
}

// fireOnce runs hook unless *fired is already set. The flag is set before
// the hook runs, so a failing hook is not retried.
func (i *Instance) fireOnce(fired *bool, name string, hook Hook) error {
	i.mu.Lock()
	if *fired {
		i.mu.Unlock()
		return nil
	}
	*fired = true
	i.mu.Unlock()

	if hook == nil {
		return nil
	}
	service := i.factory.Name()
	err := guard(service, name, func() error { return hook(i) })
	if err != nil {
		i.factory.store.metrics.hookFailed(service, name)
		i.factory.logger().Warn("statesvc: hook failed", "service", service, "hook", name, "instance", i.id, "error", err)
	}
	return err
}

func (i *Instance) fireFirstMount() error {
	return i.fireOnce(&i.firstMountFired, "OnFirstMount", i.factory.def.OnFirstMount)
}

func (i *Instance) fireFirstRender() error {
	return i.fireOnce(&i.firstRenderFired, "OnFirstRender", i.factory.def.OnFirstRender)
}

func (i *Instance) fireLastUnmount() error {
	return i.fireOnce(&i.lastUnmountFired, "OnLastUnmount", i.factory.def.OnLastUnmount)
}

// validateComponent rejects handles that cannot key the subscriber table.
func validateComponent(c Component) error {
	if c == nil {
		return errors.New("E004").WithDetail("component is nil")
	}
	t := reflect.TypeOf(c)
	if !t.Comparable() {
		return errors.New("E004").WithDetailf("component type %s is not comparable", t)
	}
	if t.Kind() == reflect.Pointer && reflect.ValueOf(c).IsNil() {
		return errors.New("E004").WithDetailf("component is a nil %s", t)
	}
	return nil
}
