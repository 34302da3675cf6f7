package statesvc

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

// recorder is a Component that records every partial state it receives.
type recorder struct {
	Refs
	name    string
	updates []State
}

func (r *recorder) SetState(partial State) {
	r.updates = append(r.updates, partial)
}

func (r *recorder) last() State {
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

func newTestStore(opts ...StoreOption) *Store {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(append([]StoreOption{WithLogger(quiet)}, opts...)...)
}

func counterDefinition() Definition {
	return Definition{
		Name:         "counter",
		DefaultProps: func() Props { return Props{} },
		InitialState: func(*Instance) (State, error) {
			return State{"count": 0}, nil
		},
	}
}

func assertState(t *testing.T, got, want State) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state = %v, want %v", got, want)
	}
}
