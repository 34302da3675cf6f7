package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/statesvc/pkg/render"
	"github.com/vango-dev/statesvc/pkg/statesvc"
)

func renderCmd(g *globals) *cobra.Command {
	var (
		user  string
		items []string
		props string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo cart page",
		Long: `Run one server render pass of a small cart page. The store is reset,
two components share the cart service by user, and the request props are
injected as a bootstrap payload before </head>.

Examples:
  statesvc render
  statesvc render --user=ada --item=apple --item=pear
  statesvc render --props='{"user":"ada","items":["apple"]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := statesvc.Props{"user": user, "items": items}
			if props != "" {
				decoded, err := render.DecodePayload([]byte(props))
				if err != nil {
					return err
				}
				p = decoded
			}

			store := g.newStore()
			pipeline := render.NewPipeline(g.cfg.PipelineOptions(store, g.logger)...)
			return runRender(cmd.Context(), cmd.OutOrStdout(), pipeline, store, p)
		},
	}

	cmd.Flags().StringVar(&user, "user", "guest", "User the cart belongs to")
	cmd.Flags().StringArrayVar(&items, "item", []string{"apple"}, "Cart item (repeatable)")
	cmd.Flags().StringVar(&props, "props", "", "Raw JSON props (overrides --user/--item)")

	return cmd
}

// newCartFactory defines a cart service keyed by user.
func newCartFactory(store *statesvc.Store) *statesvc.Factory {
	return statesvc.NewFactory(statesvc.Definition{
		Name: "cart",
		DefaultProps: func() statesvc.Props {
			return statesvc.Props{"user": "guest"}
		},
		UniqueKey: func(p statesvc.Props) string {
			user, _ := p["user"].(string)
			return "cart:" + user
		},
		InitialState: func(inst *statesvc.Instance) (statesvc.State, error) {
			items := toStrings(inst.Store().Locals()["items"])
			return statesvc.State{
				"user":  inst.Prop("user"),
				"items": items,
				"count": len(items),
			}, nil
		},
		Actions: map[string]statesvc.Action{
			"add": func(inst *statesvc.Instance, args ...any) (any, error) {
				items := toStrings(inst.GetState("items")["items"])
				for _, a := range args {
					items = append(items, fmt.Sprint(a))
				}
				return len(items), inst.SetState(statesvc.State{"items": items, "count": len(items)})
			},
		},
	}, statesvc.WithStore(store))
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			out = append(out, fmt.Sprint(x))
		}
		return out
	default:
		return nil
	}
}

// view is a rendered component: it keeps its local state in sync with the
// service and renders it to HTML.
type view struct {
	statesvc.Refs
	local statesvc.State
	draw  func(statesvc.State) string
}

func (v *view) SetState(partial statesvc.State) {
	for k, val := range partial {
		v.local[k] = val
	}
}

func (v *view) html() string {
	return v.draw(v.local)
}

func cartPage(store *statesvc.Store) render.View {
	cart := newCartFactory(store)
	badge := cart.Mixin(statesvc.MixinOptions{Keys: []string{"count"}})
	list := cart.Mixin(statesvc.MixinOptions{Keys: []string{"user", "items"}, Ref: "cart"})

	return func(ctx context.Context, props statesvc.Props) (string, error) {
		header := &view{draw: func(s statesvc.State) string {
			return fmt.Sprintf(`<span class="badge">%v</span>`, s["count"])
		}}
		body := &view{draw: func(s statesvc.State) string {
			var b strings.Builder
			fmt.Fprintf(&b, "<h1>%s's cart</h1><ul>", html.EscapeString(fmt.Sprint(s["user"])))
			for _, item := range toStrings(s["items"]) {
				fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(item))
			}
			b.WriteString("</ul>")
			return b.String()
		}}

		var bindings []*statesvc.Binding
		defer func() {
			for _, b := range bindings {
				_ = b.WillUnmount()
			}
		}()

		for _, mount := range []struct {
			mixin *statesvc.Mixin
			v     *view
		}{{badge, header}, {list, body}} {
			b, err := mount.mixin.Attach(mount.v, props)
			if err != nil {
				return "", err
			}
			bindings = append(bindings, b)
			mount.v.local = b.InitialState()
			if err := b.WillMount(); err != nil {
				return "", err
			}
		}

		// Both mixins resolve to the same cart; an update reaches both views.
		if extra, ok := props["add"].(string); ok && extra != "" {
			if _, err := body.ServiceRef("cart").Dispatch("add", extra); err != nil {
				return "", err
			}
		}

		doc := "<html><head><title>cart</title></head><body>" +
			header.html() + body.html() + "</body></html>"

		for _, b := range bindings {
			if err := b.DidMount(); err != nil {
				return "", err
			}
		}
		return doc, nil
	}
}

func runRender(ctx context.Context, w io.Writer, pipeline *render.Pipeline, store *statesvc.Store, props statesvc.Props) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := pipeline.RenderTo(ctx, w, props, cartPage(store)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
