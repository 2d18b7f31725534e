// Package pyannote is a diarization backend that talks to a pyannote.audio
// HTTP sidecar exposing GET /health and POST /diarize.
package pyannote

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/speakline/diarization"
	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/httpclient"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/provider"
	"github.com/kbukum/speakline/resilience"
	"github.com/kbukum/speakline/validation"
)

const (
	// ProviderName is the registered name for the Pyannote backend.
	ProviderName = "pyannote"

	// DefaultMinSegmentDuration drops turns too short to carry a word.
	DefaultMinSegmentDuration = 0.05

	defaultPyannoteURL     = "http://localhost:8388"
	defaultPyannoteTimeout = 10 * time.Minute
)

// Config holds configuration for the Pyannote diarization backend.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// MinSegmentDuration is the length in seconds a turn must exceed to be kept.
	MinSegmentDuration float64 `yaml:"min_segment_duration" mapstructure:"min_segment_duration" validate:"gte=0"`

	// Ready bounds how long Loader waits for the sidecar to report healthy.
	Ready resilience.RetryConfig `yaml:"ready" mapstructure:"ready"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultPyannoteURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultPyannoteTimeout
	}
	if c.MinSegmentDuration == 0 {
		c.MinSegmentDuration = DefaultMinSegmentDuration
	}
	if c.Ready.MaxAttempts <= 0 {
		c.Ready = resilience.ReadinessConfig()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Model implements diarization.Model over the sidecar.
type Model struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// New creates a Pyannote model client. It does not contact the sidecar.
func New(cfg Config) (*Model, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, client: client, log: logger.Get(ProviderName)}, nil
}

// Factory returns a provider.Factory that creates Pyannote models from a
// generic config map.
func Factory() provider.Factory[diarization.Model] {
	return func(raw map[string]any) (diarization.Model, error) {
		var cfg Config
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			WeaklyTypedInput: true,
			Result:           &cfg,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("pyannote config: %w", err)
		}
		return New(cfg)
	}
}

// Loader returns an executor loader that builds the model and waits for
// the sidecar to report healthy.
func Loader(cfg Config) executor.Loader[diarization.Request, []diarization.SpeakerSegment] {
	return func(ctx context.Context) (executor.Model[diarization.Request, []diarization.SpeakerSegment], error) {
		m, err := New(cfg)
		if err != nil {
			return nil, err
		}
		if err := m.WaitReady(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// WaitReady polls the health endpoint with the configured backoff.
func (m *Model) WaitReady(ctx context.Context) error {
	if err := resilience.WaitReady(ctx, m.cfg.Ready, ProviderName, m.client.Healthy); err != nil {
		return err
	}
	m.log.Info("pyannote sidecar ready", logger.Fields("url", m.cfg.BaseURL))
	return nil
}

// Name returns the provider name.
func (m *Model) Name() string { return ProviderName }

// IsAvailable checks if the Pyannote sidecar is reachable.
func (m *Model) IsAvailable(ctx context.Context) bool {
	return m.client.Healthy(ctx)
}

// Infer uploads the audio and returns the speaker turns longer than
// MinSegmentDuration, ordered by start time.
func (m *Model) Infer(ctx context.Context, req diarization.Request) ([]diarization.SpeakerSegment, error) {
	fields := map[string]string{}
	if req.Speakers > 0 {
		fields["num_speakers"] = strconv.Itoa(req.Speakers)
	}

	resp, err := m.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/diarize",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{
				{FieldName: "audio", FileName: "audio.wav", ContentType: "audio/wav", Data: req.Audio},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}

	result, err := httpclient.DecodeJSON[pyannoteResponse](resp)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("diarization error: %s", result.Error)
	}

	segments := m.toSpeakerSegments(&result)
	m.log.Debug("diarization finished", logger.Fields(
		"segments", len(segments),
		"dropped", len(result.Segments)-len(segments),
		"num_speakers", result.NumSpeakers,
	))
	return segments, nil
}

// --- internal Pyannote API types ---

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func (m *Model) toSpeakerSegments(resp *pyannoteResponse) []diarization.SpeakerSegment {
	segments := make([]diarization.SpeakerSegment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		s := diarization.SpeakerSegment{Start: seg.StartTime, End: seg.EndTime, Speaker: seg.SpeakerID}
		if s.Duration() <= m.cfg.MinSegmentDuration {
			continue
		}
		segments = append(segments, s)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Start != segments[j].Start {
			return segments[i].Start < segments[j].Start
		}
		return segments[i].End < segments[j].End
	})
	return segments
}
