package pipeline

import "context"

// step turns one upstream value into at most one downstream value. keep
// false drops the value and pulls the next one.
type step[I, O any] func(ctx context.Context, in I) (out O, keep bool, err error)

func through[I, O any](p *Pipeline[I], s step[I, O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &stepIter[I, O]{source: p.create(ctx), step: s}
		},
	}
}

// Map transforms each value with fn. An error from fn ends the pipeline.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return through(p, func(ctx context.Context, in I) (O, bool, error) {
		out, err := fn(ctx, in)
		return out, err == nil, err
	})
}

// Filter drops the values for which keep returns false.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return through(p, func(_ context.Context, in T) (T, bool, error) {
		return in, keep(in), nil
	})
}

// Tap runs fn on each value and passes it on unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return through(p, func(ctx context.Context, in T) (T, bool, error) {
		err := fn(ctx, in)
		return in, err == nil, err
	})
}

type stepIter[I, O any] struct {
	source Iterator[I]
	step   step[I, O]
}

func (it *stepIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for {
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		out, keep, err := it.step(ctx, in)
		if err != nil {
			return zero, false, err
		}
		if keep {
			return out, true, nil
		}
	}
}

func (it *stepIter[I, O]) Close() error { return it.source.Close() }
