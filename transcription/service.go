package transcription

import (
	"context"
	"io"

	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/provider"
)

// Service reads a prepared audio stream and submits it to a backend.
type Service struct {
	rr       provider.RequestResponse[io.Reader, []SpeechWord]
	language string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLanguage sets the language hint sent with every request.
func WithLanguage(lang string) ServiceOption {
	return func(s *Service) { s.language = lang }
}

// NewService creates a Service over the given backend.
func NewService(backend Backend, opts ...ServiceOption) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	s.rr = provider.Adapt(backend, backend.Name(),
		func(_ context.Context, r io.Reader) (Request, error) {
			data, err := io.ReadAll(r)
			if err != nil {
				return Request{}, errors.ProcessingError("read audio").WithCause(err)
			}
			return Request{Audio: data, Language: s.language}, nil
		},
		func(words []SpeechWord) ([]SpeechWord, error) {
			if words == nil {
				words = []SpeechWord{}
			}
			return words, nil
		},
	)
	return s
}

// Name returns the backend name.
func (s *Service) Name() string { return s.rr.Name() }

// IsAvailable reports whether the backend can take work.
func (s *Service) IsAvailable(ctx context.Context) bool { return s.rr.IsAvailable(ctx) }

// Transcribe reads r to the end and returns the recognized words in order.
func (s *Service) Transcribe(ctx context.Context, r io.Reader) ([]SpeechWord, error) {
	return s.rr.Execute(ctx, r)
}
