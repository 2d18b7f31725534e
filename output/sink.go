package output

import "context"

// Record is one diarized segment with the words spoken inside it.
type Record struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// Sink receives records for one run. Open is called once before the first
// Emit and Close once after the last, on every exit path.
type Sink interface {
	Open(ctx context.Context) error
	Emit(ctx context.Context, rec Record) error
	Close() error
}
