package statesvc

import "sort"

// State is a service's key/value state.
type State map[string]any

// Props are the construction inputs of a service instance.
type Props map[string]any

// Component is the capability set a subscriber must provide.
// Implementations must be comparable (typically a pointer) because the
// instance keys its subscriber table by component handle.
type Component interface {
	SetState(partial State)
}

// Keys returns the state keys in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of s. A nil State clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of p. A nil Props clones to an empty one.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// mergeProps returns base overlaid with over. Later keys win.
func mergeProps(base, over Props) Props {
	out := make(Props, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// keySet is the lookup table of keys a subscriber tracks.
type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	ks := make(keySet, len(keys))
	for _, k := range keys {
		ks[k] = struct{}{}
	}
	return ks
}

func (ks keySet) has(k string) bool {
	_, ok := ks[k]
	return ok
}

// pick returns the entries of s whose keys are in ks.
func pick(s State, ks keySet) State {
	out := make(State)
	for k, v := range s {
		if ks.has(k) {
			out[k] = v
		}
	}
	return out
}
