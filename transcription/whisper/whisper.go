// Package whisper is a transcription backend that talks to a faster-whisper
// HTTP sidecar.
//
// The sidecar exposes GET /health and POST /transcribe. The latter takes a
// multipart upload with an "audio" file and returns segments with
// word-level timestamps.
package whisper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/httpclient"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/provider"
	"github.com/kbukum/speakline/resilience"
	"github.com/kbukum/speakline/transcription"
	"github.com/kbukum/speakline/util"
	"github.com/kbukum/speakline/validation"
)

const (
	// ProviderName is the registered name for the Whisper backend.
	ProviderName = "whisper"

	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperModel   = "medium"
	defaultWhisperTimeout = 10 * time.Minute
)

// Config holds configuration for the Whisper transcription backend.
type Config struct {
	URL         string        `yaml:"url" mapstructure:"url" validate:"required,url"`
	Model       string        `yaml:"model" mapstructure:"model" validate:"required"`
	Language    string        `yaml:"language" mapstructure:"language"`
	Device      string        `yaml:"device" mapstructure:"device" validate:"omitempty,oneof=auto cpu cuda"`
	ComputeType string        `yaml:"compute_type" mapstructure:"compute_type"`
	VADFilter   *bool         `yaml:"vad_filter" mapstructure:"vad_filter"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Ready bounds how long Loader waits for the sidecar to report healthy.
	Ready resilience.RetryConfig `yaml:"ready" mapstructure:"ready"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultWhisperURL
	}
	if c.Model == "" {
		c.Model = defaultWhisperModel
	}
	if c.Device == "" {
		c.Device = "auto"
	}
	if c.VADFilter == nil {
		c.VADFilter = util.Ptr(true)
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultWhisperTimeout
	}
	if c.Ready.MaxAttempts <= 0 {
		c.Ready = resilience.ReadinessConfig()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Model implements transcription.Model over the sidecar.
type Model struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// New creates a Whisper model client. It does not contact the sidecar.
func New(cfg Config) (*Model, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL: strings.TrimRight(cfg.URL, "/"),
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, client: client, log: logger.Get(ProviderName)}, nil
}

// Factory returns a provider.Factory that builds Whisper models from a
// generic config map such as a viper sub-tree.
func Factory() provider.Factory[transcription.Model] {
	return func(raw map[string]any) (transcription.Model, error) {
		var cfg Config
		if err := decode(raw, &cfg); err != nil {
			return nil, err
		}
		return New(cfg)
	}
}

// Loader returns an executor loader that builds the model and waits for
// the sidecar to become healthy. A sidecar that never answers fails the load.
func Loader(cfg Config) executor.Loader[transcription.Request, []transcription.SpeechWord] {
	return func(ctx context.Context) (executor.Model[transcription.Request, []transcription.SpeechWord], error) {
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

// Name returns the provider name.
func (m *Model) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (m *Model) IsAvailable(ctx context.Context) bool {
	return m.client.Healthy(ctx)
}

// WaitReady polls the health endpoint with the configured backoff.
func (m *Model) WaitReady(ctx context.Context) error {
	if err := resilience.WaitReady(ctx, m.cfg.Ready, ProviderName, m.client.Healthy); err != nil {
		return err
	}
	m.log.Info("whisper sidecar ready", logger.Fields("url", m.cfg.URL, "model", m.cfg.Model))
	return nil
}

// Infer uploads the audio and flattens the returned segments into words.
func (m *Model) Infer(ctx context.Context, req transcription.Request) ([]transcription.SpeechWord, error) {
	lang := m.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	fields := map[string]string{
		"model":           m.cfg.Model,
		"word_timestamps": "true",
		"vad_filter":      fmt.Sprintf("%t", util.Deref(m.cfg.VADFilter)),
	}
	if lang != "" {
		fields["language"] = lang
	}
	if m.cfg.Device != "" {
		fields["device"] = m.cfg.Device
	}
	if m.cfg.ComputeType != "" {
		fields["compute_type"] = m.cfg.ComputeType
	}

	resp, err := m.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{
				{FieldName: "audio", FileName: "audio.wav", ContentType: "audio/wav", Data: req.Audio},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}

	result, err := httpclient.DecodeJSON[whisperResponse](resp)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("whisper error: %s", result.Error)
	}

	words := toSpeechWords(&result)
	m.log.Debug("transcription finished", logger.Fields(
		"segments", len(result.Segments),
		"words", len(words),
		"language", result.Language,
	))
	return words, nil
}

// --- internal Whisper API response types ---

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Error    string           `json:"error,omitempty"`
}

type whisperSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []whisperWord `json:"words"`
}

type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// toSpeechWords keeps the sidecar's word text verbatim, leading spaces
// included, so concatenated words read as the original sentence.
func toSpeechWords(resp *whisperResponse) []transcription.SpeechWord {
	words := make([]transcription.SpeechWord, 0, len(resp.Segments)*8)
	for _, seg := range resp.Segments {
		for _, w := range seg.Words {
			words = append(words, transcription.SpeechWord{Start: w.Start, End: w.End, Text: w.Word})
		}
	}
	return words
}

func decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("whisper config: %w", err)
	}
	return nil
}
