package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vango-dev/statesvc/pkg/statesvc"
)

func demoCmd(g *globals) *cobra.Command {
	var cacheKey string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the shared counter walkthrough",
		Long: `Mount two components against one shared counter service, update it,
unmount them one by one and print every notification and lifecycle hook.

Examples:
  statesvc demo
  statesvc demo --eviction=reset
  statesvc demo --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), g.newStore(), cacheKey)
		},
	}

	cmd.Flags().StringVar(&cacheKey, "key", "shared", "Cache key both components share")

	return cmd
}

// printer is a component that prints the partial state it receives.
type printer struct {
	name string
	out  io.Writer
}

func (p *printer) SetState(partial statesvc.State) {
	fmt.Fprintf(p.out, "  %s <- %v\n", p.name, map[string]any(partial))
}

func runDemo(w io.Writer, store *statesvc.Store, cacheKey string) error {
	counter := statesvc.NewFactory(statesvc.Definition{
		Name:         "counter",
		DefaultProps: func() statesvc.Props { return statesvc.Props{} },
		InitialState: func(*statesvc.Instance) (statesvc.State, error) {
			return statesvc.State{"count": 0}, nil
		},
		OnFirstMount: func(inst *statesvc.Instance) error {
			fmt.Fprintf(w, "  hook OnFirstMount (%s)\n", inst.CacheKey())
			return nil
		},
		OnFirstRender: func(inst *statesvc.Instance) error {
			fmt.Fprintf(w, "  hook OnFirstRender (%s)\n", inst.CacheKey())
			return nil
		},
		OnLastUnmount: func(inst *statesvc.Instance) error {
			fmt.Fprintf(w, "  hook OnLastUnmount (%s)\n", inst.CacheKey())
			return nil
		},
	}, statesvc.WithStore(store))

	mixin := counter.Mixin(statesvc.MixinOptions{
		Keys:     []string{"count"},
		CacheKey: cacheKey,
	})

	mountOne := func(name string) (*statesvc.Binding, error) {
		fmt.Fprintf(w, "mount %s\n", name)
		b, err := mixin.Attach(&printer{name: name, out: w}, nil)
		if err != nil {
			return nil, err
		}
		if err := b.WillMount(); err != nil {
			return nil, err
		}
		if err := b.DidMount(); err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "  %s initial state %v\n", name, map[string]any(b.InitialState()))
		return b, nil
	}

	a, err := mountOne("A")
	if err != nil {
		return err
	}
	b, err := mountOne("B")
	if err != nil {
		return err
	}
	inst := a.Service()
	fmt.Fprintf(w, "shared instance: %v (subscribers=%d)\n", inst == b.Service(), inst.SubscriberCount())

	steps := []struct {
		label string
		run   func() error
	}{
		{"setState {count: 1}", func() error { return inst.SetState(statesvc.State{"count": 1}) }},
		{"setState {other: true}", func() error { return inst.SetState(statesvc.State{"other": true}) }},
		{"unmount A", a.WillUnmount},
		{"setState {count: 2}", func() error { return inst.SetState(statesvc.State{"count": 2}) }},
		{"unmount B", b.WillUnmount},
	}
	for _, step := range steps {
		fmt.Fprintln(w, step.label)
		if err := step.run(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "policy=%s cached=%d final state=%v\n", store.Policy(), store.Len(), map[string]any(inst.GetState()))
	return nil
}
