package output

import (
	"bufio"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/logger"
)

// fileSink holds the file handling shared by the text formats.
type fileSink struct {
	name string
	path string
	f    *os.File
	w    *bufio.Writer
	n    int
}

func (s *fileSink) open(ctx context.Context) error {
	if s.f != nil {
		return errors.Output(s.name).WithDetail("reason", "already open")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Output(s.name).WithCause(err).WithDetail(logger.FieldPath, s.path)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Output(s.name).WithCause(err).WithDetail(logger.FieldPath, s.path)
	}
	s.f = f
	s.w = bufio.NewWriter(f)
	logger.Get("output").WithContext(ctx).Debug("sink opened", logger.Fields("sink", s.name, logger.FieldPath, s.path))
	return nil
}

func (s *fileSink) writer() (*bufio.Writer, error) {
	if s.w == nil {
		return nil, errors.Output(s.name).WithDetail("reason", "not open")
	}
	return s.w, nil
}

func (s *fileSink) wrap(err error) error {
	if err == nil {
		s.n++
		return nil
	}
	return errors.Output(s.name).WithCause(err).WithDetail(logger.FieldPath, s.path)
}

func (s *fileSink) close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f, s.w = nil, nil
	if err := stderrors.Join(flushErr, closeErr); err != nil {
		return errors.Output(s.name).WithCause(err).WithDetail(logger.FieldPath, s.path)
	}
	logger.Get("output").Info("transcript written", logger.Fields("sink", s.name, logger.FieldPath, s.path, "records", s.n))
	return nil
}

// Path returns the file the sink writes to.
func (s *fileSink) Path() string { return s.path }
