package output

import (
	"context"
	"fmt"
)

// TXTSink writes a speaker-labeled transcript:
//
//	SPEAKER_00: [0:00:01.500000 - 0:00:04]
//		Hello there.
type TXTSink struct {
	fileSink
}

// NewTXTSink creates a labeled text sink writing to path.
func NewTXTSink(path string) *TXTSink {
	return &TXTSink{fileSink{name: "txt", path: path}}
}

// Open creates the file.
func (s *TXTSink) Open(ctx context.Context) error { return s.open(ctx) }

// Emit writes the speaker line and the indented text.
func (s *TXTSink) Emit(_ context.Context, rec Record) error {
	w, err := s.writer()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: [%s - %s]\n\t%s\n", rec.Speaker, HumanizeSeconds(rec.Start), HumanizeSeconds(rec.End), rec.Text)
	return s.wrap(err)
}

// Close flushes and closes the file.
func (s *TXTSink) Close() error { return s.close() }

// SimpleTXTSink writes only the text, one record per line.
type SimpleTXTSink struct {
	fileSink
}

// NewSimpleTXTSink creates a plain text sink writing to path.
func NewSimpleTXTSink(path string) *SimpleTXTSink {
	return &SimpleTXTSink{fileSink{name: "simple_txt", path: path}}
}

// Open creates the file.
func (s *SimpleTXTSink) Open(ctx context.Context) error { return s.open(ctx) }

// Emit writes the text followed by a newline.
func (s *SimpleTXTSink) Emit(_ context.Context, rec Record) error {
	w, err := s.writer()
	if err != nil {
		return err
	}
	_, err = w.WriteString(rec.Text + "\n")
	return s.wrap(err)
}

// Close flushes and closes the file.
func (s *SimpleTXTSink) Close() error { return s.close() }
