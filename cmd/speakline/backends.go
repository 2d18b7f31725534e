package main

import (
	"context"

	"github.com/kbukum/speakline/component"
	"github.com/kbukum/speakline/diarization"
	"github.com/kbukum/speakline/diarization/pyannote"
	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/observability"
	"github.com/kbukum/speakline/provider"
	"github.com/kbukum/speakline/transcription"
	"github.com/kbukum/speakline/transcription/whisper"
)

// readier is implemented by backends that must wait for a sidecar.
type readier interface {
	WaitReady(ctx context.Context) error
}

type backendModel[I, O any] interface {
	provider.Provider
	executor.Model[I, O]
}

// registryLoader creates the configured backend on the executor's worker
// and waits for it to report ready.
func registryLoader[M backendModel[I, O], I, O any](reg *provider.Registry[M], bc BackendConfig) executor.Loader[I, O] {
	return func(ctx context.Context) (executor.Model[I, O], error) {
		m, err := reg.Create(bc.Provider, bc.Options)
		if err != nil {
			return nil, err
		}
		if r, ok := any(m).(readier); ok {
			if err := r.WaitReady(ctx); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
}

// instrument wraps an executor in the logging, metrics and tracing middleware.
func instrument[I, O any](rr provider.RequestResponse[I, O], metrics *observability.Metrics) provider.RequestResponse[I, O] {
	mws := []provider.Middleware[I, O]{
		provider.WithTracing[I, O](serviceName),
		provider.WithLogging[I, O](logger.Get(rr.Name())),
	}
	if metrics != nil {
		mws = append(mws, provider.WithMetrics[I, O](metrics))
	}
	return provider.Chain(mws...)(rr)
}

// backends holds the two model executors and the services in front of them.
type backends struct {
	components  []component.Component
	transcriber *transcription.Service
	diarizer    *diarization.Service
}

// newBackends registers the known backend factories and builds one executor
// per model. Nothing is started.
func newBackends(cfg *AppConfig, metrics *observability.Metrics) *backends {
	transcribers := transcription.NewRegistry()
	transcribers.RegisterFactory(whisper.ProviderName, whisper.Factory())
	diarizers := diarization.NewRegistry()
	diarizers.RegisterFactory(pyannote.ProviderName, pyannote.Factory())

	execOpts := []executor.Option{executor.WithConfig(cfg.Executor)}
	if metrics != nil {
		execOpts = append(execOpts, executor.WithMetrics(metrics))
	}

	transcribeExec := executor.New(transcription.ExecutorName,
		registryLoader[transcription.Model, transcription.Request, []transcription.SpeechWord](transcribers, cfg.Transcription),
		execOpts...)
	diarizeExec := executor.New(diarization.ExecutorName,
		registryLoader[diarization.Model, diarization.Request, []diarization.SpeakerSegment](diarizers, cfg.Diarization),
		execOpts...)

	var opts []transcription.ServiceOption
	if cfg.Language != "" {
		opts = append(opts, transcription.WithLanguage(cfg.Language))
	}
	return &backends{
		components:  []component.Component{transcribeExec, diarizeExec},
		transcriber: transcription.NewService(instrument[transcription.Request, []transcription.SpeechWord](transcribeExec, metrics), opts...),
		diarizer:    diarization.NewService(instrument[diarization.Request, []diarization.SpeakerSegment](diarizeExec, metrics)),
	}
}
