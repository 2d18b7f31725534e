package transcription

import (
	"context"

	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/provider"
)

// ExecutorName is the name transcription executors run under.
const ExecutorName = "transcription"

// Model is the interface transcription backends must implement.
type Model interface {
	provider.Provider
	executor.Model[Request, []SpeechWord]
}

// Backend is what a Service calls: an executor, optionally wrapped in
// provider middleware.
type Backend = provider.RequestResponse[Request, []SpeechWord]

// NewRegistry creates a registry of transcription backend factories.
func NewRegistry() *provider.Registry[Model] {
	return provider.NewRegistry[Model]()
}

// LoaderFor wraps an already constructed model in an executor loader.
func LoaderFor(m Model) executor.Loader[Request, []SpeechWord] {
	return func(_ context.Context) (executor.Model[Request, []SpeechWord], error) {
		return m, nil
	}
}
