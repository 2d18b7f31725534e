package provider

import "context"

// Provider is a named backend that can report whether it is ready.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// Factory builds a provider from the raw options map of its config section.
type Factory[T Provider] func(options map[string]any) (T, error)

// RequestResponse is a provider that maps one input to one output. Model
// executors and sidecar model clients both have this shape.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}
