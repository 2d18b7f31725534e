package diarization

import (
	"context"
	"io"

	"github.com/kbukum/speakline/errors"
)

// Service reads a prepared audio stream and submits it to a backend.
type Service struct {
	backend Backend
}

// NewService creates a Service over the given backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Name returns the backend name.
func (s *Service) Name() string { return s.backend.Name() }

// IsAvailable reports whether the backend can take work.
func (s *Service) IsAvailable(ctx context.Context) bool { return s.backend.IsAvailable(ctx) }

// Diarize reads r to the end and returns speaker segments ordered by start.
// A negative speakers hint is rejected. Zero means auto-detect.
func (s *Service) Diarize(ctx context.Context, r io.Reader, speakers int) ([]SpeakerSegment, error) {
	if speakers < 0 {
		return nil, errors.InvalidInput("speakers", "must not be negative")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ProcessingError("read audio").WithCause(err)
	}
	segments, err := s.backend.Execute(ctx, Request{Audio: data, Speakers: speakers})
	if err != nil {
		return nil, err
	}
	if segments == nil {
		segments = []SpeakerSegment{}
	}
	return segments, nil
}
