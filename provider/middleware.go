package provider

// Middleware decorates a RequestResponse provider.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares so the first one given is the outermost:
// Chain(a, b)(p) == a(b(p)).
func Chain[I, O any](mws ...Middleware[I, O]) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(mws) - 1; i >= 0; i-- {
			rr = mws[i](rr)
		}
		return rr
	}
}
