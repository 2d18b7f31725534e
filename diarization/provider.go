package diarization

import (
	"context"

	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/provider"
)

// ExecutorName is the name diarization executors run under.
const ExecutorName = "diarization"

// Model is the interface diarization backends must implement.
type Model interface {
	provider.Provider
	executor.Model[Request, []SpeakerSegment]
}

// Backend is what a Service calls.
type Backend = provider.RequestResponse[Request, []SpeakerSegment]

// NewRegistry creates a registry of diarization backend factories.
func NewRegistry() *provider.Registry[Model] {
	return provider.NewRegistry[Model]()
}

// LoaderFor wraps an already constructed model in an executor loader.
func LoaderFor(m Model) executor.Loader[Request, []SpeakerSegment] {
	return func(_ context.Context) (executor.Model[Request, []SpeakerSegment], error) {
		return m, nil
	}
}
