package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/speakline/diarization"
	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/intervalstore"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/media"
	"github.com/kbukum/speakline/observability"
	"github.com/kbukum/speakline/output"
	"github.com/kbukum/speakline/pipeline"
	"github.com/kbukum/speakline/progress"
	"github.com/kbukum/speakline/transcription"
	"github.com/kbukum/speakline/validation"
)

// Stage names a step of a run.
type Stage string

const (
	StageOpeningOutput  Stage = "opening_output"
	StagePreparingMedia Stage = "preparing_media"
	StageTranscribing   Stage = "transcribing"
	StageDiarizing      Stage = "diarizing"
	StageEmitting       Stage = "emitting"
	StageDone           Stage = "done"
)

// Progress checkpoints reported to the observer.
const (
	ProgressStarted     = 0
	ProgressPrepared    = 5
	ProgressTranscribed = 50
	ProgressDone        = 100
)

// Transcriber turns audio into timed words.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) ([]transcription.SpeechWord, error)
}

// Diarizer turns audio into speaker turns. A speakers hint of 0 means auto.
type Diarizer interface {
	Diarize(ctx context.Context, audio io.Reader, speakers int) ([]diarization.SpeakerSegment, error)
}

// Request describes one run.
type Request struct {
	Path     string
	Speakers int
}

func (r Request) validate() error {
	return validation.New().
		Required("path", r.Path).
		Min("speakers", r.Speakers, 0).
		Validate()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSkipEmptySegments drops segments that no word overlaps.
func WithSkipEmptySegments() Option {
	return func(o *Orchestrator) { o.skipEmpty = true }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records stage durations and failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithServiceName sets the service name attached to spans and metrics.
func WithServiceName(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// Orchestrator drives runs. It holds no per-run state and may be reused.
type Orchestrator struct {
	preparer    media.Preparer
	transcriber Transcriber
	diarizer    Diarizer

	skipEmpty   bool
	log         *logger.Logger
	metrics     *observability.Metrics
	serviceName string
}

// New creates an Orchestrator.
func New(preparer media.Preparer, transcriber Transcriber, diarizer Diarizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		preparer:    preparer,
		transcriber: transcriber,
		diarizer:    diarizer,
		log:         logger.Get("orchestrator"),
		serviceName: "speakline",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes req and writes the records to sink. Observer failures are
// logged and ignored. The returned error, if any, is an *errors.AppError
// carrying the failed stage in its "stage" detail.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink output.Sink, observer progress.Observer) (err error) {
	if err := req.validate(); err != nil {
		return err
	}
	if sink == nil {
		return errors.InvalidInput("sink", "is required")
	}
	if observer == nil {
		observer = progress.Nop
	}

	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, op := observability.StartOperation(ctx, o.metrics, o.serviceName, "run", observability.SpanPipelineRun)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)
	log := o.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldPath, req.Path))
	defer func() { op.End(ctx, errorType(err), err) }()

	log.Info("run started", logger.Fields("speakers", req.Speakers))
	o.report(ctx, observer, ProgressStarted)

	if err := o.stage(ctx, StageOpeningOutput, sink.Open); err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			if err == nil {
				err = stageError(StageEmitting, cerr)
				return
			}
			log.Warn("closing output failed", logger.MergeWithError(nil, cerr))
		}
	}()

	var audio io.ReadSeekCloser
	err = o.stage(ctx, StagePreparingMedia, func(ctx context.Context) error {
		var perr error
		audio, perr = o.preparer.Prepare(ctx, req.Path)
		return perr
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := audio.Close(); cerr != nil {
			log.Warn("closing prepared audio failed", logger.MergeWithError(nil, cerr))
		}
	}()
	o.report(ctx, observer, ProgressPrepared)

	store := intervalstore.New()
	err = o.stage(ctx, StageTranscribing, func(ctx context.Context) error {
		words, terr := o.transcriber.Transcribe(ctx, audio)
		if terr != nil {
			return terr
		}
		if terr := index(store, words); terr != nil {
			return terr
		}
		log.Debug("transcription indexed", logger.Fields("words", store.Len()))
		return nil
	})
	if err != nil {
		return err
	}
	o.report(ctx, observer, ProgressTranscribed)

	var segments []diarization.SpeakerSegment
	err = o.stage(ctx, StageDiarizing, func(ctx context.Context) error {
		if _, serr := audio.Seek(0, io.SeekStart); serr != nil {
			return errors.ProcessingError("rewind audio").WithCause(serr)
		}
		var derr error
		segments, derr = o.diarizer.Diarize(ctx, audio, req.Speakers)
		return derr
	})
	if err != nil {
		return err
	}

	emitted := 0
	err = o.stage(ctx, StageEmitting, func(ctx context.Context) error {
		records := pipeline.Map(pipeline.FromSlice(segments), func(_ context.Context, seg diarization.SpeakerSegment) (output.Record, error) {
			return join(store, seg), nil
		})
		if o.skipEmpty {
			records = pipeline.Filter(records, func(r output.Record) bool { return r.Text != "" })
		}
		records = pipeline.Tap(records, func(context.Context, output.Record) error {
			emitted++
			return nil
		})
		return pipeline.Drain(records, sink.Emit).Run(ctx)
	})
	if err != nil {
		return err
	}

	o.report(ctx, observer, ProgressDone)
	log.Info("run finished", logger.MergeWithDuration(logger.Fields(
		logger.FieldStage, StageDone,
		"words", store.Len(),
		"segments", len(segments),
		"records", emitted,
	), op.Duration()))
	return nil
}

// stage runs fn inside its own span and tags a failure with the stage name.
func (o *Orchestrator) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, op := observability.StartOperation(ctx, o.metrics, o.serviceName, string(stage), observability.SpanStage)
	observability.SetSpanAttribute(ctx, observability.AttrStage, string(stage))
	log := o.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldStage, stage))

	log.Debug("stage started")
	err := fn(ctx)
	if err != nil {
		err = stageError(stage, err)
	}
	op.End(ctx, errorType(err), err)

	if err != nil {
		log.Error("stage failed", logger.MergeWithDuration(logger.MergeWithError(nil, err), op.Duration()))
		return err
	}
	log.Debug("stage finished", logger.MergeWithDuration(nil, op.Duration()))
	return nil
}

// report delivers percent to observer. It never fails the run.
func (o *Orchestrator) report(ctx context.Context, observer progress.Observer, percent int) {
	log := o.log.WithContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Warn("progress observer panicked", logger.Fields("percent", percent, "panic", fmt.Sprint(r)))
		}
	}()
	if err := observer.Update(ctx, percent); err != nil {
		log.Warn("progress update failed", logger.MergeWithError(logger.Fields("percent", percent), err))
	}
}

// index stores every word in s. Non-finite timestamps surface as a store
// invariant violation instead of a panic.
func index(s *intervalstore.Store, words []transcription.SpeechWord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if appErr, ok := r.(*errors.AppError); ok {
				err = appErr
				return
			}
			panic(r)
		}
	}()
	for _, w := range words {
		s.Store(w.Start, w.End, w.Text)
	}
	return nil
}

func join(s *intervalstore.Store, seg diarization.SpeakerSegment) output.Record {
	return output.Record{
		Start:   seg.Start,
		End:     seg.End,
		Text:    strings.Join(s.Get(seg.Start, seg.End), ""),
		Speaker: seg.Speaker,
	}
}

func stageError(stage Stage, err error) *errors.AppError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		if stderrors.Is(err, context.DeadlineExceeded) {
			appErr = errors.Timeout(string(stage)).WithCause(err)
		} else {
			appErr = errors.Internal(err)
		}
	}
	return appErr.WithDetail(logger.FieldStage, string(stage))
}

func errorType(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	if err != nil {
		return string(errors.ErrCodeInternal)
	}
	return ""
}
