package main

import (
	"fmt"
	"os"

	"github.com/kbukum/speakline/config"
	"github.com/kbukum/speakline/diarization/pyannote"
	"github.com/kbukum/speakline/executor"
	"github.com/kbukum/speakline/media"
	"github.com/kbukum/speakline/observability"
	"github.com/kbukum/speakline/output"
	"github.com/kbukum/speakline/transcription/whisper"
	"github.com/kbukum/speakline/validation"
)

const serviceName = "speakline"

// BackendConfig selects a registered backend and passes its options to the
// backend factory untouched.
type BackendConfig struct {
	Provider string         `yaml:"provider" mapstructure:"provider" validate:"required"`
	Options  map[string]any `yaml:"options" mapstructure:"options"`
}

// AppConfig is the full speakline configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Transcription BackendConfig        `yaml:"transcription" mapstructure:"transcription"`
	Diarization   BackendConfig        `yaml:"diarization" mapstructure:"diarization"`
	Executor      executor.Config      `yaml:"executor" mapstructure:"executor"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Output        output.Config        `yaml:"output" mapstructure:"output"`

	Speakers          int    `yaml:"speakers" mapstructure:"speakers" validate:"gte=0"`
	Language          string `yaml:"language" mapstructure:"language"`
	SkipEmptySegments bool   `yaml:"skip_empty_segments" mapstructure:"skip_empty_segments"`
}

// ApplyDefaults fills unset fields of every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = whisper.ProviderName
	}
	if c.Diarization.Provider == "" {
		c.Diarization.Provider = pyannote.ProviderName
	}
	c.Executor.ApplyDefaults()
	c.Media.ApplyDefaults()
	c.Output.ApplyDefaults()
}

// Validate checks the configuration after defaults are applied.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Executor.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return validation.Validate(c)
}

// loadConfig reads the config file, .env file and SPEAKLINE_* environment.
func loadConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	opts := []config.LoaderOption{
		config.WithDefaults(map[string]any{
			"name":           serviceName,
			"output.formats": []string{output.FormatCSV, output.FormatTXT, output.FormatSimpleTXT},
		}),
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
