// Package statesvc lets components share mutable state through services.
//
// A service is defined once with a Definition and turned into a Factory.
// Components attach to a service through a Mixin: the mixin creates (or
// reuses) an Instance, registers the component for a subset of the state
// keys and forwards lifecycle notifications. Every Instance.SetState call
// merges the partial state and pushes, synchronously, only the keys each
// subscriber tracks.
//
// Usage:
//
//	var Counter = statesvc.NewFactory(statesvc.Definition{
//	    Name: "counter",
//	    InitialState: func(*statesvc.Instance) (statesvc.State, error) {
//	        return statesvc.State{"count": 0}, nil
//	    },
//	})
//
//	var counterMixin = Counter.Mixin(statesvc.MixinOptions{
//	    Keys:     []string{"count"},
//	    CacheKey: "shared",
//	})
//
//	func NewBadge(props statesvc.Props) (*Badge, error) {
//	    b := &Badge{}
//	    binding, err := counterMixin.Attach(b, props)
//	    if err != nil {
//	        return nil, err
//	    }
//	    b.binding = binding
//	    b.local = binding.InitialState()
//	    return b, nil
//	}
//
// Sharing:
// Instances created with a cache key (explicit, or derived by
// Definition.UniqueKey) are kept in a Store, namespaced by factory, so every
// component asking for the same key observes the same Instance. The render
// pipeline must call Store.Clear before each server render so instances never
// leak from one request into the next:
//
//	statesvc.Reset()
//
// Eviction:
// Under EvictOnLastUnmount (the default) a cached instance is dropped from
// the store when its last subscriber unmounts, so the next mount starts from
// fresh state. Under EvictOnReset cached instances live until Clear.
package statesvc
