package statesvc

// Hook is an instance lifecycle callback.
type Hook func(inst *Instance) error

// Action is a named behavior method invoked through Instance.Dispatch.
type Action func(inst *Instance, args ...any) (any, error)

// Definition describes a kind of service. Every field is optional.
// A Definition must not be modified after it is handed to NewFactory.
type Definition struct {
	// Name identifies the service in logs and metrics.
	Name string

	// DefaultProps returns props merged under the caller's props.
	DefaultProps func() Props

	// InitialState builds the starting state. inst.Props() is already set.
	InitialState func(inst *Instance) (State, error)

	// UniqueKey derives a cache key from the merged props. An empty result
	// means "do not cache".
	UniqueKey func(props Props) string

	// MapProps maps component props to service props before Create.
	MapProps func(props Props) Props

	// OnFirstMount fires once per instance, when the first subscriber
	// is about to mount.
	OnFirstMount Hook

	// OnFirstRender fires once per instance, after the first subscriber
	// has mounted and rendered.
	OnFirstRender Hook

	// OnLastUnmount fires once per instance, when the subscriber count
	// goes from one to zero.
	OnLastUnmount Hook

	// Actions are behavior methods invoked with the instance as receiver.
	Actions map[string]Action
}

func (d *Definition) serviceName() string {
	if d.Name == "" {
		return "anonymous"
	}
	return d.Name
}
