package statesvc

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func newCounter(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewFactory(counterDefinition(), WithStore(newTestStore())).Create("", nil)
	if err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestInstanceSetStateAccumulates(t *testing.T) {
	inst := newCounter(t)
	want := State{"count": 0}
	rng := rand.New(rand.NewSource(1))
	keys := []string{"a", "b", "c", "count"}

	for step := 0; step < 50; step++ {
		partial := State{}
		for _, k := range keys {
			if rng.Intn(2) == 0 {
				partial[k] = rng.Intn(100)
			}
		}
		if err := inst.SetState(partial); err != nil {
			t.Fatal(err)
		}
		for k, v := range partial {
			want[k] = v
		}
		if got := inst.GetState(); !reflect.DeepEqual(got, want) {
			t.Fatalf("step %d: GetState() = %v, want %v", step, got, want)
		}
	}
}

func TestInstanceSetStateRejectsNil(t *testing.T) {
	inst := newCounter(t)
	err := inst.SetState(nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	assertState(t, inst.GetState(), State{"count": 0})
}

func TestInstanceFanOutFiltersKeys(t *testing.T) {
	inst := newCounter(t)
	if err := inst.SetState(State{"a": 0, "b": 0}); err != nil {
		t.Fatal(err)
	}

	onlyA := &recorder{name: "a"}
	onlyB := &recorder{name: "b"}
	both := &recorder{name: "ab"}
	for c, keys := range map[*recorder][]string{
		onlyA: {"a"},
		onlyB: {"b"},
		both:  {"a", "b"},
	} {
		if err := inst.RegisterComponent(c, keys...); err != nil {
			t.Fatal(err)
		}
	}

	if err := inst.SetState(State{"b": 1}); err != nil {
		t.Fatal(err)
	}

	if len(onlyA.updates) != 0 {
		t.Errorf("subscriber tracking {a} must not be called for {b}, got %v", onlyA.updates)
	}
	assertState(t, onlyB.last(), State{"b": 1})
	assertState(t, both.last(), State{"b": 1})

	if err := inst.SetState(State{"a": 2, "b": 3, "c": 4}); err != nil {
		t.Fatal(err)
	}
	assertState(t, onlyA.last(), State{"a": 2})
	assertState(t, onlyB.last(), State{"b": 3})
	assertState(t, both.last(), State{"a": 2, "b": 3})
}

func TestInstanceEmptyUpdateNotifiesNobody(t *testing.T) {
	inst := newCounter(t)
	c := &recorder{}
	if err := inst.RegisterComponent(c); err != nil {
		t.Fatal(err)
	}
	if err := inst.SetState(State{}); err != nil {
		t.Fatal(err)
	}
	if len(c.updates) != 0 {
		t.Errorf("empty update should not notify, got %v", c.updates)
	}
}

func TestInstanceRegisterDefaultsToCurrentKeys(t *testing.T) {
	inst := newCounter(t)
	c := &recorder{}
	if err := inst.RegisterComponent(c); err != nil {
		t.Fatal(err)
	}
	if got := inst.TrackedKeys(c); !reflect.DeepEqual(got, []string{"count"}) {
		t.Errorf("TrackedKeys() = %v, want [count]", got)
	}

	// Keys added after registration are not tracked.
	if err := inst.SetState(State{"late": true}); err != nil {
		t.Fatal(err)
	}
	if len(c.updates) != 0 {
		t.Errorf("late key should not reach subscriber, got %v", c.updates)
	}
}

func TestInstanceReRegisterReplacesKeys(t *testing.T) {
	inst := newCounter(t)
	c := &recorder{}

	if err := inst.RegisterComponent(c, "a"); err != nil {
		t.Fatal(err)
	}
	if err := inst.RegisterComponent(c, "b"); err != nil {
		t.Fatal(err)
	}
	if inst.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", inst.SubscriberCount())
	}

	if err := inst.SetState(State{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if len(c.updates) != 0 {
		t.Error("replaced key set should no longer track a")
	}
	if err := inst.SetState(State{"b": 1}); err != nil {
		t.Fatal(err)
	}
	assertState(t, c.last(), State{"b": 1})
}

func TestInstanceDeregisterIsIdempotent(t *testing.T) {
	inst := newCounter(t)
	c := &recorder{}
	if err := inst.RegisterComponent(c); err != nil {
		t.Fatal(err)
	}

	if !inst.DeregisterComponent(c) {
		t.Error("first deregister should report true")
	}
	if inst.DeregisterComponent(c) {
		t.Error("second deregister should be a no-op")
	}
	if inst.DeregisterComponent(&recorder{}) {
		t.Error("deregistering a stranger should be a no-op")
	}
	if inst.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", inst.SubscriberCount())
	}

	if err := inst.SetState(State{"count": 1}); err != nil {
		t.Fatal(err)
	}
	if len(c.updates) != 0 {
		t.Error("deregistered component must not be notified")
	}
}

type valueComponent struct{ fn func(State) }

func (v valueComponent) SetState(s State) { v.fn(s) }

func TestInstanceRejectsInvalidComponents(t *testing.T) {
	inst := newCounter(t)
	var nilRecorder *recorder

	tests := []struct {
		name string
		c    Component
	}{
		{"nil interface", nil},
		{"nil pointer", nilRecorder},
		{"non-comparable", valueComponent{fn: func(State) {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := inst.RegisterComponent(tt.c); !errors.Is(err, ErrInvalidComponent) {
				t.Errorf("err = %v, want ErrInvalidComponent", err)
			}
			if inst.DeregisterComponent(tt.c) {
				t.Error("DeregisterComponent should report false")
			}
		})
	}
}

func TestInstanceGetStateSubset(t *testing.T) {
	inst := newCounter(t)
	if err := inst.SetState(State{"a": 1, "b": 2}); err != nil {
		t.Fatal(err)
	}

	assertState(t, inst.GetState("a", "missing"), State{"a": 1})

	got := inst.GetState()
	got["a"] = 100
	if inst.GetState("a")["a"] != 1 {
		t.Error("GetState() should return a copy")
	}
}

func TestInstanceSubscriberMayReenter(t *testing.T) {
	inst := newCounter(t)
	echo := &reentrant{inst: inst}
	if err := inst.RegisterComponent(echo, "count"); err != nil {
		t.Fatal(err)
	}
	if err := inst.SetState(State{"count": 1}); err != nil {
		t.Fatal(err)
	}
	assertState(t, inst.GetState(), State{"count": 1, "echo": 1})
}

type reentrant struct{ inst *Instance }

func (r *reentrant) SetState(s State) {
	_ = r.inst.SetState(State{"echo": s["count"]})
}

// sidecar runs fn from inside its own notification.
type sidecar struct {
	recorder
	fn func()
}

func (s *sidecar) SetState(partial State) {
	s.recorder.SetState(partial)
	if s.fn != nil {
		s.fn()
	}
}

func TestInstanceSkipsComponentDeregisteredDuringUpdate(t *testing.T) {
	inst := newCounter(t)
	later := &recorder{name: "later"}
	first := &sidecar{fn: func() { inst.DeregisterComponent(later) }}

	// Registration order fixes notification order: first runs before later.
	if err := inst.RegisterComponent(first, "count"); err != nil {
		t.Fatal(err)
	}
	if err := inst.RegisterComponent(later, "count"); err != nil {
		t.Fatal(err)
	}

	if err := inst.SetState(State{"count": 1}); err != nil {
		t.Fatal(err)
	}

	if len(first.updates) != 1 {
		t.Errorf("first got %d updates, want 1", len(first.updates))
	}
	if inst.IsRegistered(later) {
		t.Fatal("later should be deregistered")
	}
	if len(later.updates) != 0 {
		t.Errorf("deregistered component notified: %v", later.updates)
	}
	if n := inst.SubscriberCount(); n != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", n)
	}
}

func TestInstanceReregisterDuringUpdateUsesNewKeys(t *testing.T) {
	inst := newCounter(t)
	later := &recorder{name: "later"}
	first := &sidecar{fn: func() {
		if err := inst.RegisterComponent(later, "other"); err != nil {
			t.Error(err)
		}
	}}

	if err := inst.RegisterComponent(first, "count"); err != nil {
		t.Fatal(err)
	}
	if err := inst.RegisterComponent(later, "count", "other"); err != nil {
		t.Fatal(err)
	}

	if err := inst.SetState(State{"count": 1, "other": "x"}); err != nil {
		t.Fatal(err)
	}

	if len(later.updates) != 1 {
		t.Fatalf("later got %d updates, want 1", len(later.updates))
	}
	assertState(t, later.last(), State{"other": "x"})
	if got := inst.TrackedKeys(later); len(got) != 1 || got[0] != "other" {
		t.Errorf("TrackedKeys(later) = %v, want [other]", got)
	}
}

func TestInstanceDispatch(t *testing.T) {
	def := counterDefinition()
	def.Actions = map[string]Action{
		"increment": func(inst *Instance, args ...any) (any, error) {
			by := 1
			if len(args) > 0 {
				by = args[0].(int)
			}
			next := inst.GetState("count")["count"].(int) + by
			return next, inst.SetState(State{"count": next})
		},
	}
	inst, err := NewFactory(def, WithStore(newTestStore())).Create("", nil)
	if err != nil {
		t.Fatal(err)
	}

	c := &recorder{}
	if err := inst.RegisterComponent(c, "count"); err != nil {
		t.Fatal(err)
	}

	got, err := inst.Dispatch("increment", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("Dispatch() = %v, want 5", got)
	}
	assertState(t, c.last(), State{"count": 5})

	if _, err := inst.Dispatch("missing"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}
