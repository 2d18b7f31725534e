package output

import (
	"context"
	"encoding/csv"
)

// CSVHeader is the first row of every CSV transcript.
var CSVHeader = []string{"From (humanized)", "To (humanized)", "From (seconds)", "To (seconds)", "Speaker Title", "Sentence"}

// CSVSink writes one row per record.
type CSVSink struct {
	fileSink
	cw *csv.Writer
}

// NewCSVSink creates a CSV sink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{fileSink: fileSink{name: "csv", path: path}}
}

// Open creates the file and writes the header.
func (s *CSVSink) Open(ctx context.Context) error {
	if err := s.open(ctx); err != nil {
		return err
	}
	s.cw = csv.NewWriter(s.w)
	if err := s.cw.Write(CSVHeader); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Emit writes a row.
func (s *CSVSink) Emit(_ context.Context, rec Record) error {
	if _, err := s.writer(); err != nil {
		return err
	}
	err := s.cw.Write([]string{
		HumanizeSeconds(rec.Start),
		HumanizeSeconds(rec.End),
		formatSeconds(rec.Start),
		formatSeconds(rec.End),
		rec.Speaker,
		rec.Text,
	})
	return s.wrap(err)
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	if s.cw != nil {
		s.cw.Flush()
		if err := s.cw.Error(); err != nil {
			_ = s.close()
			return s.wrap(err)
		}
		s.cw = nil
	}
	return s.close()
}
