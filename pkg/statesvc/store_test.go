package statesvc

import (
	"errors"
	"reflect"
	"testing"
)

func TestStoreGetSetDelete(t *testing.T) {
	s := newTestStore()
	inst := &Instance{id: "a"}

	if _, ok := s.Get("k"); ok {
		t.Fatal("empty store should miss")
	}

	s.Set("k", inst)
	got, ok := s.Get("k")
	if !ok || got != inst {
		t.Fatalf("Get() = %v, %v; want stored instance", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	s.Delete("k")
	s.Delete("k")
	s.Delete("never-set")
	if _, ok := s.Get("k"); ok {
		t.Error("Get() after Delete should miss")
	}
}

func TestStoreClear(t *testing.T) {
	s := newTestStore()

	// Clearing an empty store is fine.
	s.Clear()

	s.Set("a", &Instance{id: "a"})
	s.Set("b", &Instance{id: "b"})
	s.SetLocals(Props{"user": "ada"})
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
	if len(s.Locals()) != 0 {
		t.Errorf("Locals() after Clear = %v, want empty", s.Locals())
	}
}

func TestStoreCompareAndDelete(t *testing.T) {
	s := newTestStore()
	old := &Instance{id: "old"}
	fresh := &Instance{id: "fresh"}

	s.Set("k", old)
	s.Clear()
	s.Set("k", fresh)

	if s.CompareAndDelete("k", old) {
		t.Error("stale instance must not evict its replacement")
	}
	if got, _ := s.Get("k"); got != fresh {
		t.Error("replacement should still be cached")
	}
	if !s.CompareAndDelete("k", fresh) {
		t.Error("current instance should be deleted")
	}
	if s.CompareAndDelete("k", fresh) {
		t.Error("second delete should report false")
	}
}

func TestStoreKeysSorted(t *testing.T) {
	s := newTestStore()
	s.Set("b", &Instance{})
	s.Set("a", &Instance{})
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestStoreLocalsAreCopied(t *testing.T) {
	s := newTestStore()
	in := Props{"page": "home"}
	s.SetLocals(in)
	in["page"] = "changed"

	out := s.Locals()
	if out["page"] != "home" {
		t.Errorf("Locals()[page] = %v, want home", out["page"])
	}
	out["page"] = "mutated"
	if s.Locals()["page"] != "home" {
		t.Error("Locals() should return a copy")
	}
}

func TestParseEvictionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    EvictionPolicy
		wantErr bool
	}{
		{"", EvictOnLastUnmount, false},
		{"refcount", EvictOnLastUnmount, false},
		{"reset", EvictOnReset, false},
		{"lru", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvictionPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var se *Error
				if !errors.As(err, &se) || se.Code != "E121" {
					t.Errorf("err = %v, want E121", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("policy = %v, want %v", got, tt.want)
			}
			if tt.in != "" && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestDefaultStoreReset(t *testing.T) {
	f := NewFactory(counterDefinition())
	inst, err := f.Create("default-reset", nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.Store() != Default() {
		t.Fatal("factories use Default() without WithStore")
	}

	Reset()

	again, err := f.Create("default-reset", nil)
	if err != nil {
		t.Fatal(err)
	}
	if again == inst {
		t.Error("Reset() should drop cached instances")
	}
	Reset()
}
