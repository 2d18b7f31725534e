package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "speakline"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging in development, got %q", cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "speakline" {
			t.Errorf("expected logging service name to follow Name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "speakline", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info logging in production, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Media         struct {
		FFmpegPath string `mapstructure:"ffmpeg_path"`
		SampleRate int    `mapstructure:"sample_rate"`
	} `mapstructure:"media"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return p
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", `
name: speakline
environment: staging
media:
  ffmpeg_path: /usr/bin/ffmpeg
`)

	var cfg testConfig
	if err := LoadConfig("speakline", &cfg, WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "none.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "speakline" {
		t.Errorf("expected name 'speakline', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Media.FFmpegPath != "/usr/bin/ffmpeg" {
		t.Errorf("expected ffmpeg path from file, got %q", cfg.Media.FFmpegPath)
	}
}

func TestLoadConfigDefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", "name: speakline\n")
	t.Setenv("SPEAKLINE_MEDIA_FFMPEG_PATH", "/opt/ffmpeg")

	var cfg testConfig
	err := LoadConfig("speakline", &cfg,
		WithConfigFile(configPath),
		WithEnvFile(filepath.Join(dir, "none.env")),
		WithDefaults(map[string]any{"media.sample_rate": 16000}),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Media.SampleRate != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Media.SampleRate)
	}
	if cfg.Media.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("expected env override, got %q", cfg.Media.FFmpegPath)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "SPEAKLINE_ENVIRONMENT=production\n")
	t.Cleanup(func() { os.Unsetenv("SPEAKLINE_ENVIRONMENT") })

	var cfg testConfig
	err := LoadConfig("speakline", &cfg, WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected environment from .env, got %q", cfg.Environment)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("speakline", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", "name: [unterminated\n")

	var cfg testConfig
	if err := LoadConfig("speakline", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected an error for a malformed config file")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/speakline/config.yml": true,
		"./.env":                     true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("speakline", LoaderConfig{})
	if files.ConfigFile != "./cmd/speakline/config.yml" {
		t.Errorf("expected config file at ./cmd/speakline/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected env file ./.env, got %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("speakline", LoaderConfig{ConfigFile: "/etc/speakline.yml"})
	if explicit.ConfigFile != "/etc/speakline.yml" {
		t.Errorf("expected explicit config path to win, got %q", explicit.ConfigFile)
	}
}

func TestEnvPrefix(t *testing.T) {
	if got := EnvPrefix("speakline"); got != "SPEAKLINE_" {
		t.Errorf("expected SPEAKLINE_, got %q", got)
	}
	if got := EnvPrefix("speak-line"); got != "SPEAK_LINE_" {
		t.Errorf("expected SPEAK_LINE_, got %q", got)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("MEDIA_FFMPEG_PATH")
	want := []string{"media_ffmpeg_path", "media.ffmpeg.path", "media.ffmpeg_path", "media_ffmpeg.path"}
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected variant %q in %v", w, got)
		}
	}

	if single := generateEnvKeyVariants("NAME"); len(single) != 1 || single[0] != "name" {
		t.Errorf("expected [name], got %v", single)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithDefaults(map[string]any{"a": 1})(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
	if lc.Defaults["a"] != 1 {
		t.Errorf("expected default a=1, got %v", lc.Defaults["a"])
	}
}
