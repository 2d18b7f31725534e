package orchestrator

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/kbukum/speakline/diarization"
	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/output"
	"github.com/kbukum/speakline/progress"
	"github.com/kbukum/speakline/transcription"
)

var audioBytes = []byte("RIFF....WAVEfmt pcm-samples")

type fakeAudio struct {
	*bytes.Reader
	seekErr error
	closed  int
}

func (a *fakeAudio) Seek(offset int64, whence int) (int64, error) {
	if a.seekErr != nil {
		return 0, a.seekErr
	}
	return a.Reader.Seek(offset, whence)
}

func (a *fakeAudio) Close() error {
	a.closed++
	return nil
}

type fakePreparer struct {
	audio *fakeAudio
	err   error
	path  string
}

func newFakePreparer() *fakePreparer {
	return &fakePreparer{audio: &fakeAudio{Reader: bytes.NewReader(audioBytes)}}
}

func (p *fakePreparer) Prepare(_ context.Context, path string) (io.ReadSeekCloser, error) {
	p.path = path
	if p.err != nil {
		return nil, p.err
	}
	return p.audio, nil
}

type fakeTranscriber struct {
	words []transcription.SpeechWord
	err   error
	read  []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader) ([]transcription.SpeechWord, error) {
	b, err := io.ReadAll(audio)
	if err != nil {
		return nil, err
	}
	f.read = b
	return f.words, f.err
}

type fakeDiarizer struct {
	segments []diarization.SpeakerSegment
	err      error
	read     []byte
	speakers int
}

func (f *fakeDiarizer) Diarize(_ context.Context, audio io.Reader, speakers int) ([]diarization.SpeakerSegment, error) {
	b, err := io.ReadAll(audio)
	if err != nil {
		return nil, err
	}
	f.read = b
	f.speakers = speakers
	return f.segments, f.err
}

type recordingSink struct {
	records  []output.Record
	opened   int
	closed   int
	openErr  error
	emitErr  error
	closeErr error
}

func (s *recordingSink) Open(context.Context) error {
	s.opened++
	return s.openErr
}

func (s *recordingSink) Emit(_ context.Context, rec output.Record) error {
	if s.emitErr != nil {
		return s.emitErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed++
	return s.closeErr
}

type recordingObserver struct {
	seen []int
}

func (o *recordingObserver) Update(_ context.Context, percent int) error {
	o.seen = append(o.seen, percent)
	return nil
}

type fixture struct {
	preparer    *fakePreparer
	transcriber *fakeTranscriber
	diarizer    *fakeDiarizer
	sink        *recordingSink
	observer    *recordingObserver
}

func newFixture() *fixture {
	return &fixture{
		preparer: newFakePreparer(),
		transcriber: &fakeTranscriber{words: []transcription.SpeechWord{
			{Start: 0.0, End: 1.0, Text: "Hello"},
			{Start: 1.0, End: 2.0, Text: " there."},
		}},
		diarizer: &fakeDiarizer{segments: []diarization.SpeakerSegment{
			{Start: 0.0, End: 2.0, Speaker: "SPEAKER_00"},
		}},
		sink:     &recordingSink{},
		observer: &recordingObserver{},
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	quiet := logger.NewWithWriter(&logger.Config{Level: "error", Format: "json"}, "test", io.Discard)
	opts = append([]Option{WithLogger(quiet)}, opts...)
	return New(f.preparer, f.transcriber, f.diarizer, opts...)
}

func (f *fixture) run(t *testing.T, req Request, opts ...Option) error {
	t.Helper()
	return f.orchestrator(opts...).Run(context.Background(), req, f.sink, f.observer)
}

func assertStageError(t *testing.T, err error, code errors.ErrorCode, stage Stage) {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
	if appErr.Details[logger.FieldStage] != string(stage) {
		t.Errorf("expected stage %q, got %v", stage, appErr.Details[logger.FieldStage])
	}
}

func TestRun_SingleSegment(t *testing.T) {
	f := newFixture()
	if err := f.run(t, Request{Path: "/media/interview.mp3", Speakers: 2}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []output.Record{{Start: 0, End: 2, Text: "Hello there.", Speaker: "SPEAKER_00"}}
	if !reflect.DeepEqual(f.sink.records, want) {
		t.Errorf("expected records %+v, got %+v", want, f.sink.records)
	}
	if f.preparer.path != "/media/interview.mp3" {
		t.Errorf("expected prepare on the request path, got %q", f.preparer.path)
	}
	if f.diarizer.speakers != 2 {
		t.Errorf("expected speaker hint 2, got %d", f.diarizer.speakers)
	}
	if !bytes.Equal(f.transcriber.read, audioBytes) || !bytes.Equal(f.diarizer.read, audioBytes) {
		t.Error("expected both models to read the whole audio from the start")
	}
	if f.sink.opened != 1 || f.sink.closed != 1 {
		t.Errorf("expected sink opened and closed once, got %d/%d", f.sink.opened, f.sink.closed)
	}
	if f.preparer.audio.closed != 1 {
		t.Errorf("expected audio closed once, got %d", f.preparer.audio.closed)
	}
	if !reflect.DeepEqual(f.observer.seen, []int{0, 5, 50, 100}) {
		t.Errorf("expected checkpoints [0 5 50 100], got %v", f.observer.seen)
	}
}

func TestRun_MultipleSpeakers(t *testing.T) {
	f := newFixture()
	f.transcriber.words = []transcription.SpeechWord{
		{Start: 0.0, End: 0.5, Text: " Hi"},
		{Start: 0.5, End: 1.0, Text: " Bob."},
		{Start: 1.2, End: 1.6, Text: " Hey"},
		{Start: 1.6, End: 2.4, Text: " Alice."},
	}
	f.diarizer.segments = []diarization.SpeakerSegment{
		{Start: 0.0, End: 1.1, Speaker: "SPEAKER_00"},
		{Start: 1.1, End: 2.5, Speaker: "SPEAKER_01"},
	}

	if err := f.run(t, Request{Path: "a.wav"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []output.Record{
		{Start: 0.0, End: 1.1, Text: " Hi Bob.", Speaker: "SPEAKER_00"},
		{Start: 1.1, End: 2.5, Text: " Hey Alice.", Speaker: "SPEAKER_01"},
	}
	if !reflect.DeepEqual(f.sink.records, want) {
		t.Errorf("expected records %+v, got %+v", want, f.sink.records)
	}
}

func TestRun_EmptySegmentEmitted(t *testing.T) {
	f := newFixture()
	f.diarizer.segments = append(f.diarizer.segments, diarization.SpeakerSegment{Start: 5, End: 6, Speaker: "SPEAKER_01"})

	if err := f.run(t, Request{Path: "a.wav"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.sink.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(f.sink.records))
	}
	if got := f.sink.records[1]; got.Text != "" || got.Speaker != "SPEAKER_01" {
		t.Errorf("expected empty record for SPEAKER_01, got %+v", got)
	}
}

func TestRun_SkipEmptySegments(t *testing.T) {
	f := newFixture()
	f.diarizer.segments = []diarization.SpeakerSegment{
		{Start: 5, End: 6, Speaker: "SPEAKER_01"},
		{Start: 0, End: 2, Speaker: "SPEAKER_00"},
	}

	if err := f.run(t, Request{Path: "a.wav"}, WithSkipEmptySegments()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.sink.records) != 1 || f.sink.records[0].Speaker != "SPEAKER_00" {
		t.Errorf("expected only the SPEAKER_00 record, got %+v", f.sink.records)
	}
}

func TestRun_NoWords(t *testing.T) {
	f := newFixture()
	f.transcriber.words = nil

	if err := f.run(t, Request{Path: "silence.wav"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.sink.records) != 1 || f.sink.records[0].Text != "" {
		t.Errorf("expected one empty record, got %+v", f.sink.records)
	}
}

func TestRun_StageFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*fixture)
		code       errors.ErrorCode
		stage      Stage
		checkpoint []int
		noAudio    bool
	}{
		{
			name:       "prepare not found",
			mutate:     func(f *fixture) { f.preparer.err = errors.NotFound("media file", "a.wav") },
			code:       errors.ErrCodeNotFound,
			stage:      StagePreparingMedia,
			checkpoint: []int{0},
			noAudio:    true,
		},
		{
			name:       "transcription invocation",
			mutate:     func(f *fixture) { f.transcriber.err = errors.ModelInvocation("whisper") },
			code:       errors.ErrCodeModelInvocation,
			stage:      StageTranscribing,
			checkpoint: []int{0, 5},
		},
		{
			name:       "rewind",
			mutate:     func(f *fixture) { f.preparer.audio.seekErr = fmt.Errorf("bad descriptor") },
			code:       errors.ErrCodeProcessing,
			stage:      StageDiarizing,
			checkpoint: []int{0, 5, 50},
		},
		{
			name:       "diarization invocation",
			mutate:     func(f *fixture) { f.diarizer.err = errors.ModelInvocation("pyannote") },
			code:       errors.ErrCodeModelInvocation,
			stage:      StageDiarizing,
			checkpoint: []int{0, 5, 50},
		},
		{
			name:       "diarization plain error",
			mutate:     func(f *fixture) { f.diarizer.err = fmt.Errorf("boom") },
			code:       errors.ErrCodeInternal,
			stage:      StageDiarizing,
			checkpoint: []int{0, 5, 50},
		},
		{
			name:       "deadline",
			mutate:     func(f *fixture) { f.transcriber.err = fmt.Errorf("submit: %w", context.DeadlineExceeded) },
			code:       errors.ErrCodeTimeout,
			stage:      StageTranscribing,
			checkpoint: []int{0, 5},
		},
		{
			name:       "emit",
			mutate:     func(f *fixture) { f.sink.emitErr = errors.Output("csv") },
			code:       errors.ErrCodeOutput,
			stage:      StageEmitting,
			checkpoint: []int{0, 5, 50},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			tc.mutate(f)

			err := f.run(t, Request{Path: "a.wav"})
			assertStageError(t, err, tc.code, tc.stage)

			if f.sink.closed != 1 {
				t.Errorf("expected sink closed once, got %d", f.sink.closed)
			}
			if !tc.noAudio && f.preparer.audio.closed != 1 {
				t.Errorf("expected audio closed once, got %d", f.preparer.audio.closed)
			}
			if !reflect.DeepEqual(f.observer.seen, tc.checkpoint) {
				t.Errorf("expected checkpoints %v, got %v", tc.checkpoint, f.observer.seen)
			}
		})
	}
}

func TestRun_OpenFailure(t *testing.T) {
	f := newFixture()
	f.sink.openErr = errors.Output("sqlite")

	err := f.run(t, Request{Path: "a.wav"})
	assertStageError(t, err, errors.ErrCodeOutput, StageOpeningOutput)
	if f.preparer.path != "" {
		t.Error("expected no media preparation when the sink cannot open")
	}
	if f.sink.closed != 0 {
		t.Errorf("expected an unopened sink not to be closed, got %d", f.sink.closed)
	}
}

func TestRun_CloseError(t *testing.T) {
	t.Run("reported on success", func(t *testing.T) {
		f := newFixture()
		f.sink.closeErr = errors.Output("txt")

		err := f.run(t, Request{Path: "a.wav"})
		assertStageError(t, err, errors.ErrCodeOutput, StageEmitting)
	})

	t.Run("run error wins", func(t *testing.T) {
		f := newFixture()
		f.sink.closeErr = errors.Output("txt")
		f.diarizer.err = errors.ModelInvocation("pyannote")

		err := f.run(t, Request{Path: "a.wav"})
		assertStageError(t, err, errors.ErrCodeModelInvocation, StageDiarizing)
	})
}

func TestRun_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"negative speakers", Request{Path: "a.wav", Speakers: -1}},
		{"missing path", Request{Path: "  "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			err := f.run(t, tc.req)
			if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if f.sink.opened != 0 {
				t.Error("expected the sink to stay closed")
			}
		})
	}
}

func TestRun_NilSink(t *testing.T) {
	f := newFixture()
	err := f.orchestrator().Run(context.Background(), Request{Path: "a.wav"}, nil, nil)
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRun_ObserverFailuresIgnored(t *testing.T) {
	var seen []int
	observer := progress.ObserverFunc(func(_ context.Context, percent int) error {
		seen = append(seen, percent)
		switch percent {
		case 5:
			return stderrors.New("terminal gone")
		case 50:
			panic("observer bug")
		}
		return nil
	})

	f := newFixture()
	err := f.orchestrator().Run(context.Background(), Request{Path: "a.wav"}, f.sink, observer)
	if err != nil {
		t.Fatalf("expected observer failures to be ignored, got %v", err)
	}
	if !reflect.DeepEqual(seen, []int{0, 5, 50, 100}) {
		t.Errorf("expected every checkpoint to be attempted, got %v", seen)
	}
	if len(f.sink.records) != 1 {
		t.Errorf("expected 1 record, got %d", len(f.sink.records))
	}
}

func TestRun_NilObserver(t *testing.T) {
	f := newFixture()
	if err := f.orchestrator().Run(context.Background(), Request{Path: "a.wav"}, f.sink, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestRun_Reusable(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()
	for i := range 2 {
		f.preparer.audio = &fakeAudio{Reader: bytes.NewReader(audioBytes)}
		sink := &recordingSink{}
		if err := o.Run(context.Background(), Request{Path: "a.wav"}, sink, nil); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if len(sink.records) != 1 || sink.records[0].Text != "Hello there." {
			t.Errorf("run %d: unexpected records %+v", i, sink.records)
		}
	}
}
