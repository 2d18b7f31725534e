package output

import (
	"context"
	stderrors "errors"
)

// multiSink forwards every call to each child in order.
type multiSink struct {
	sinks  []Sink
	opened int
}

// Multi returns a Sink that fans out to sinks. If a child fails to open,
// the children already opened are closed and the open error is returned.
// Close reaches every opened child and joins their errors.
func Multi(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks}
}

func (m *multiSink) Open(ctx context.Context) error {
	for _, s := range m.sinks {
		if err := s.Open(ctx); err != nil {
			closeErr := m.Close()
			return stderrors.Join(err, closeErr)
		}
		m.opened++
	}
	return nil
}

func (m *multiSink) Emit(ctx context.Context, rec Record) error {
	for _, s := range m.sinks[:m.opened] {
		if err := s.Emit(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) Close() error {
	var errs []error
	for _, s := range m.sinks[:m.opened] {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.opened = 0
	return stderrors.Join(errs...)
}
