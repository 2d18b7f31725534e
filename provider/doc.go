// Package provider implements a small generic framework for swappable
// backends.
//
// A backend is a Provider (Name, IsAvailable). Backends that take one input
// and return one output implement RequestResponse[I, O]; the model executors
// and the sidecar model clients both do. Factories register backends by name
// in a Registry so configuration can pick one at startup.
//
// # Middleware
//
// Middleware[I, O] wraps a RequestResponse provider. Use Chain to compose:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("speakline"),
//	)(exec)
//
// Adapt bridges a backend's input and output types to a domain interface.
package provider
