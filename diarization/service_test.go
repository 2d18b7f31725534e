package diarization

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/provider"
)

func TestService_Diarize(t *testing.T) {
	var got Request
	backend := provider.Func("fake", func(_ context.Context, req Request) ([]SpeakerSegment, error) {
		got = req
		return []SpeakerSegment{{Start: 0, End: 2, Speaker: "SPEAKER_00"}}, nil
	})

	segs, err := NewService(backend).Diarize(context.Background(), strings.NewReader("pcm"), 3)
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(segs) != 1 || segs[0].Speaker != "SPEAKER_00" {
		t.Errorf("unexpected segments %v", segs)
	}
	if string(got.Audio) != "pcm" || got.Speakers != 3 {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestService_NegativeSpeakers(t *testing.T) {
	backend := provider.Func("fake", func(context.Context, Request) ([]SpeakerSegment, error) { return nil, nil })
	_, err := NewService(backend).Diarize(context.Background(), strings.NewReader(""), -1)
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

type failingModel struct{}

func (failingModel) Name() string                     { return "failing" }
func (failingModel) IsAvailable(context.Context) bool { return true }
func (failingModel) Infer(context.Context, Request) ([]SpeakerSegment, error) {
	panic("segfault in native code")
}

func TestService_ModelPanicIsInvocationError(t *testing.T) {
	ex, err := executor.Spawn(context.Background(), ExecutorName, LoaderFor(failingModel{}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer func() { _ = ex.Shutdown(context.Background()) }()

	_, err = NewService(ex).Diarize(context.Background(), strings.NewReader("x"), 0)
	if !errors.IsCode(err, errors.ErrCodeModelInvocation) {
		t.Fatalf("expected model invocation error, got %v", err)
	}
}

func TestSpeakerSegmentDuration(t *testing.T) {
	if d := (SpeakerSegment{Start: 1.5, End: 4}).Duration(); d != 2.5 {
		t.Errorf("expected 2.5, got %v", d)
	}
}
