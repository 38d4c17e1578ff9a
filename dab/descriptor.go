package dab

import "github.com/dabcore/dab-bridge/dabjson"

// Handler is the Go stand-in for the source's pointer-to-member-function
// dispatch target. Args are supplied in declaration order: one per fixed
// parameter followed by one per optional parameter, already resolved by
// Descriptor.Invoke. A handler returns the payload to wrap into a 200
// response, or an error (ideally an *Error) to report a failure status.
type Handler func(args []*dabjson.Value) (*dabjson.Value, error)

// Descriptor is the explicit, closure-based replacement for the source's
// nativeDispatch template: it names a method's fixed and optional parameter
// lists and binds them against an incoming envelope before invoking Fn.
// Go has no template metaprogramming to generate this binding at compile
// time from a method's argument types, so instead each adapter operation
// constructs one Descriptor by hand, naming its parameters as strings.
type Descriptor struct {
	FixedParams    []string
	OptionalParams []string
	Fn             Handler
}

// Invoke binds envelope against d's fixed and optional parameter lists and
// then calls d.Fn with the resolved arguments.
//
// For each fixed parameter name (in order): look it up in envelope's
// "payload" member first, then in the envelope itself, and if neither holds
// it, fail with a 400 "missing parameter" error, unless the name is the
// "*" sentinel, in which case the entire envelope is passed through
// unresolved. Optional parameters follow the same payload-then-envelope
// lookup but fall back to a null value rather than erroring when absent.
func (d *Descriptor) Invoke(envelope *dabjson.Value) (*dabjson.Value, error) {
	args := make([]*dabjson.Value, 0, len(d.FixedParams)+len(d.OptionalParams))

	payload, _ := envelope.Lookup("payload")

	for _, name := range d.FixedParams {
		if name == "*" {
			args = append(args, envelope)
			continue
		}
		if payload != nil {
			if v, ok := payload.Lookup(name); ok {
				args = append(args, v)
				continue
			}
		}
		if v, ok := envelope.Lookup(name); ok {
			args = append(args, v)
			continue
		}
		return nil, MissingParameter(name)
	}

	for _, name := range d.OptionalParams {
		if payload != nil {
			if v, ok := payload.Lookup(name); ok {
				args = append(args, v)
				continue
			}
		}
		if v, ok := envelope.Lookup(name); ok {
			args = append(args, v)
			continue
		}
		args = append(args, dabjson.NewNull())
	}

	return d.Fn(args)
}
