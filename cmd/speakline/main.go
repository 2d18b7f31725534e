// Command speakline transcribes a media file and attributes every segment to
// a speaker.
//
// Usage:
//
//	speakline [flags] <media-file>
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/speakline/bootstrap"
	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/media"
	"github.com/kbukum/speakline/observability"
	"github.com/kbukum/speakline/orchestrator"
	"github.com/kbukum/speakline/output"
	"github.com/kbukum/speakline/progress"
	"github.com/kbukum/speakline/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	shutdownTimeout = 10 * time.Second
)

type flags struct {
	configFile  string
	speakers    int
	outDir      string
	formats     []string
	language    string
	skipEmpty   bool
	showVersion bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*flags, *pflag.FlagSet, error) {
	f := &flags{}
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.configFile, "config", "c", "", "path to config.yml")
	fs.IntVarP(&f.speakers, "speakers", "s", 0, "number of speakers, 0 to detect")
	fs.StringVarP(&f.outDir, "out-dir", "o", "", "directory for transcript files")
	fs.StringSliceVarP(&f.formats, "format", "f", nil, "output formats: csv, txt, simple_txt, sqlite")
	fs.StringVarP(&f.language, "language", "l", "", "language hint for transcription, e.g. en")
	fs.BoolVar(&f.skipEmpty, "skip-empty", false, "do not write segments without words")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <media-file>\n\nFlags:\n", serviceName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return f, fs, nil
}

// applyFlags lets explicitly set flags override the loaded configuration.
func applyFlags(cfg *AppConfig, f *flags, fs *pflag.FlagSet) {
	if fs.Changed("speakers") {
		cfg.Speakers = f.speakers
	}
	if fs.Changed("out-dir") {
		cfg.Output.Dir = f.outDir
		cfg.Output.SQLitePath = ""
		cfg.Output.ApplyDefaults()
	}
	if fs.Changed("format") {
		cfg.Output.Formats = f.formats
	}
	if fs.Changed("language") {
		cfg.Language = f.language
	}
	if fs.Changed("skip-empty") {
		cfg.SkipEmptySegments = f.skipEmpty
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	f, fs, err := parseFlags(args, stderr)
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if f.showVersion {
		fmt.Fprintln(stdout, version.GetFullVersion())
		return exitOK
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	input := fs.Arg(0)

	cfg, err := loadConfig(f.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return exitUsage
	}
	applyFlags(cfg, f, fs)

	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(shutdownTimeout))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return exitUsage
	}
	app.Logger.Info("speakline starting", version.GetVersionInfo().LogFields())

	if err := process(context.Background(), app, input, stderr); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

// process wires the pipeline for one input and runs it as a bootstrap task.
// The executors and the telemetry exporters are shut down on every path out.
func process(ctx context.Context, app *bootstrap.App[*AppConfig], input string, stderr io.Writer) error {
	cfg := app.Cfg

	shutdownObservability, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.GetShortVersion(), cfg.Environment)
	if err != nil {
		return err
	}
	app.OnStop(bootstrap.Hook(shutdownObservability))

	var metrics *observability.Metrics
	if cfg.Observability.Enabled {
		if metrics, err = observability.NewMetrics(observability.Meter(serviceName)); err != nil {
			_ = app.Shutdown(ctx)
			return err
		}
	}

	preparer, err := media.NewFFmpegPreparer(cfg.Media)
	if err != nil {
		_ = app.Shutdown(ctx)
		return err
	}

	b := newBackends(cfg, metrics)
	for _, c := range b.components {
		if err := app.RegisterComponent(c); err != nil {
			_ = app.Shutdown(ctx)
			return err
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithServiceName(cfg.Name),
		orchestrator.WithMetrics(metrics),
	}
	if cfg.SkipEmptySegments {
		opts = append(opts, orchestrator.WithSkipEmptySegments())
	}
	o := orchestrator.New(preparer, b.transcriber, b.diarizer, opts...)

	return app.RunTask(ctx, func(ctx context.Context) error {
		sink, err := output.FromConfig(cfg.Output, baseName(input))
		if err != nil {
			return err
		}
		observer := progress.Fanout(progress.NewLogObserver(nil), progress.NewTerminal(stderr))
		return o.Run(ctx, orchestrator.Request{Path: input, Speakers: cfg.Speakers}, sink, observer)
	})
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fail prints the classified error and returns the exit code.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "%s: %s\n", serviceName, describe(err))
	return exitError
}

func describe(err error) string {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return err.Error()
	}
	msg := appErr.Error()
	if stage, ok := appErr.Details[logger.FieldStage]; ok {
		msg = fmt.Sprintf("%s (stage: %v)", msg, stage)
	}
	if appErr.Retryable {
		msg += " [retryable]"
	}
	return msg
}
