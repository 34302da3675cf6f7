package statesvc

import (
	"github.com/vango-dev/statesvc/internal/errors"
)

// MixinOptions configures how a component binds to a service.
type MixinOptions struct {
	// Keys are the state keys the component tracks. Empty tracks every key
	// present at registration time.
	Keys []string

	// Ref, when set, exposes the instance on components implementing
	// RefHolder under this name.
	Ref string

	// CacheKey requests a shared instance from the store.
	CacheKey string

	// MapProps overrides Definition.MapProps for this mixin.
	MapProps func(props Props) Props
}

// Mixin binds components to instances of one factory. It holds no
// per-component state; Attach returns a fresh Binding for each component.
type Mixin struct {
	factory *Factory
	opts    MixinOptions
}

// Factory returns the mixin's factory.
func (m *Mixin) Factory() *Factory {
	return m.factory
}

// Options returns the mixin's options.
func (m *Mixin) Options() MixinOptions {
	return m.opts
}

type bindingState uint8

const (
	bindingMounted bindingState = iota + 1
	bindingUnmounted
)

// Binding is the per-component side of a Mixin. The host runtime calls
// WillMount, DidMount and WillUnmount from the matching component
// lifecycle notifications.
type Binding struct {
	mixin     *Mixin
	component Component
	inst      *Instance
	initial   State
	state     bindingState
}

// Attach binds c to a service instance: it maps props, creates or reuses
// the instance, registers c for the mixin's keys, exposes the ref and
// computes c's initial local state. Nothing is registered if Create fails.
func (m *Mixin) Attach(c Component, props Props) (*Binding, error) {
	if err := validateComponent(c); err != nil {
		return nil, err
	}

	mapProps := m.opts.MapProps
	if mapProps == nil {
		mapProps = m.factory.def.MapProps
	}
	if mapProps != nil {
		name := m.factory.Name()
		if err := guard(name, "MapProps", func() error {
			props = mapProps(props)
			return nil
		}); err != nil {
			m.factory.store.metrics.hookFailed(name, "MapProps")
			return nil, err
		}
	}

	inst, err := m.factory.Create(m.opts.CacheKey, props)
	if err != nil {
		return nil, err
	}

	if err := inst.RegisterComponent(c, m.opts.Keys...); err != nil {
		return nil, err
	}

	if m.opts.Ref != "" {
		if rh, ok := c.(RefHolder); ok {
			rh.SetServiceRef(m.opts.Ref, inst)
		}
	}

	return &Binding{
		mixin:     m,
		component: c,
		inst:      inst,
		initial:   inst.GetState(m.opts.Keys...),
		state:     bindingMounted,
	}, nil
}

// Service returns the bound instance, or nil after WillUnmount.
func (b *Binding) Service() *Instance {
	if b.state == bindingUnmounted {
		return nil
	}
	return b.inst
}

// InitialState returns the component's initial local state.
func (b *Binding) InitialState() State {
	return b.initial.Clone()
}

// Mounted reports whether the binding has not been torn down yet.
func (b *Binding) Mounted() bool {
	return b.state == bindingMounted
}

// WillMount fires the definition's OnFirstMount hook if no other
// subscriber of the instance has done so.
func (b *Binding) WillMount() error {
	if b.state == bindingUnmounted {
		return errors.New("E006").WithDetail("WillMount")
	}
	return b.inst.fireFirstMount()
}

// DidMount fires the definition's OnFirstRender hook if no other
// subscriber of the instance has done so.
func (b *Binding) DidMount() error {
	if b.state == bindingUnmounted {
		return errors.New("E006").WithDetail("DidMount")
	}
	return b.inst.fireFirstRender()
}

// WillUnmount tears the binding down. When the component is the last
// subscriber, OnLastUnmount fires first. The component is then
// deregistered, its ref removed and, under EvictOnLastUnmount, the cached
// instance evicted. Teardown completes even if the hook fails; the hook
// error is returned. Calling WillUnmount again is a no-op.
func (b *Binding) WillUnmount() error {
	if b.state == bindingUnmounted {
		return nil
	}
	b.state = bindingUnmounted

	inst := b.inst
	var hookErr error
	if inst.SubscriberCount() == 1 && inst.IsRegistered(b.component) {
		hookErr = inst.fireLastUnmount()
	}

	inst.DeregisterComponent(b.component)

	if ref := b.mixin.opts.Ref; ref != "" {
		if rh, ok := b.component.(RefHolder); ok {
			rh.DeleteServiceRef(ref)
		}
	}

	store := inst.Store()
	if inst.storeKey != "" && store.policy == EvictOnLastUnmount && inst.SubscriberCount() == 0 {
		if store.CompareAndDelete(inst.storeKey, inst) {
			store.metrics.evicted(inst.factory.Name(), "unmount")
			store.logger.Debug("statesvc: instance evicted", "service", inst.factory.Name(), "key", inst.cacheKey, "instance", inst.id)
		}
	}

	return hookErr
}
