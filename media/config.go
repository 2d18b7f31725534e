package media

import (
	"os"
	"time"

	"github.com/kbukum/speakline/util"
	"github.com/kbukum/speakline/validation"
)

const (
	defaultSampleRate = 16000
	defaultChannels   = 1
	defaultTimeout    = 30 * time.Minute

	// LoudnormFilter targets -16 LUFS with a narrow loudness range.
	LoudnormFilter = "loudnorm=I=-16:LRA=5:TP=0"
	// DenoiseFilter is ffmpeg's FFT denoiser with default settings.
	DenoiseFilter = "afftdn"
)

// Config configures the ffmpeg preparer.
type Config struct {
	FFmpegPath  string        `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path" validate:"required"`
	FFprobePath string        `yaml:"ffprobe_path" mapstructure:"ffprobe_path" validate:"required"`
	TempDir     string        `yaml:"temp_dir" mapstructure:"temp_dir"`
	SampleRate  int           `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=8000,lte=48000"`
	Channels    int           `yaml:"channels" mapstructure:"channels" validate:"gte=1,lte=2"`
	Denoise     *bool         `yaml:"denoise" mapstructure:"denoise"`
	Loudnorm    *bool         `yaml:"loudnorm" mapstructure:"loudnorm"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	c.FFmpegPath = util.Coalesce(c.FFmpegPath, "ffmpeg")
	c.FFprobePath = util.Coalesce(c.FFprobePath, "ffprobe")
	c.TempDir = util.Coalesce(c.TempDir, os.TempDir())
	c.SampleRate = util.Coalesce(c.SampleRate, defaultSampleRate)
	c.Channels = util.Coalesce(c.Channels, defaultChannels)
	if c.Denoise == nil {
		c.Denoise = util.Ptr(true)
	}
	if c.Loudnorm == nil {
		c.Loudnorm = util.Ptr(true)
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
