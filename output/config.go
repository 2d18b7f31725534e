package output

import (
	"fmt"
	"path/filepath"

	"github.com/kbukum/speakline/util"
	"github.com/kbukum/speakline/validation"
)

// Output format names accepted in Config.Formats.
const (
	FormatCSV       = "csv"
	FormatTXT       = "txt"
	FormatSimpleTXT = "simple_txt"
	FormatSQLite    = "sqlite"
)

// Config selects where and in which formats transcripts are written.
type Config struct {
	Dir        string   `yaml:"dir" mapstructure:"dir" validate:"required"`
	Formats    []string `yaml:"formats" mapstructure:"formats" validate:"min=1,dive,oneof=csv txt simple_txt sqlite"`
	SQLitePath string   `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{FormatCSV, FormatTXT, FormatSimpleTXT}
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.Dir, "speakline.sqlite")
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// FromConfig builds the sinks for one input. File names are derived from
// baseName: <base>.csv, <base>.txt and <base>_simple.txt. The SQLite
// database is shared across runs.
func FromConfig(cfg Config, baseName string) (Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	formats := util.Unique(cfg.Formats)
	sinks := make([]Sink, 0, len(formats))
	for _, format := range formats {
		switch format {
		case FormatCSV:
			sinks = append(sinks, NewCSVSink(filepath.Join(cfg.Dir, baseName+".csv")))
		case FormatTXT:
			sinks = append(sinks, NewTXTSink(filepath.Join(cfg.Dir, baseName+".txt")))
		case FormatSimpleTXT:
			sinks = append(sinks, NewSimpleTXTSink(filepath.Join(cfg.Dir, baseName+"_simple.txt")))
		case FormatSQLite:
			sinks = append(sinks, NewSQLiteSink(cfg.SQLitePath))
		default:
			return nil, fmt.Errorf("output: unknown format %q", format)
		}
	}
	return Multi(sinks...), nil
}
