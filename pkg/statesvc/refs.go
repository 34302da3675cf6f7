package statesvc

import "sync"

// RefHolder is implemented by components that want direct access to the
// instances their mixins bind them to.
type RefHolder interface {
	SetServiceRef(name string, inst *Instance)
	DeleteServiceRef(name string)
}

// Refs is an embeddable RefHolder.
//
//	type Cart struct {
//	    statesvc.Refs
//	}
//
//	cart.ServiceRef("cart").SetState(statesvc.State{"open": true})
type Refs struct {
	mu   sync.RWMutex
	refs map[string]*Instance
}

// SetServiceRef implements RefHolder.
func (r *Refs) SetServiceRef(name string, inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs == nil {
		r.refs = make(map[string]*Instance)
	}
	r.refs[name] = inst
}

// DeleteServiceRef implements RefHolder.
func (r *Refs) DeleteServiceRef(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, name)
}

// ServiceRef returns the instance exposed under name, or nil.
func (r *Refs) ServiceRef(name string) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs[name]
}
