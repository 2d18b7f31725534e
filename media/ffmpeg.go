package media

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/process"
	"github.com/kbukum/speakline/util"
)

// Preparer turns a media file into a rewindable stream of model-ready audio.
// The caller must Close the stream.
type Preparer interface {
	Prepare(ctx context.Context, path string) (io.ReadSeekCloser, error)
}

const stderrLines = 3

// FFmpegPreparer prepares media with the ffprobe and ffmpeg binaries.
type FFmpegPreparer struct {
	cfg     Config
	ffprobe *process.Adapter
	ffmpeg  *process.Adapter
	log     *logger.Logger
}

var _ Preparer = (*FFmpegPreparer)(nil)

// NewFFmpegPreparer creates a preparer. Binaries are resolved lazily.
func NewFFmpegPreparer(cfg Config) (*FFmpegPreparer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FFmpegPreparer{
		cfg:     cfg,
		ffprobe: process.NewAdapter(process.Config{Name: "ffprobe", Binary: cfg.FFprobePath, Timeout: cfg.Timeout}),
		ffmpeg:  process.NewAdapter(process.Config{Name: "ffmpeg", Binary: cfg.FFmpegPath, Timeout: cfg.Timeout}),
		log:     logger.Get("media"),
	}, nil
}

// Name identifies the preparer.
func (p *FFmpegPreparer) Name() string { return "ffmpeg" }

// IsAvailable reports whether both binaries resolve.
func (p *FFmpegPreparer) IsAvailable(ctx context.Context) bool {
	return p.ffprobe.IsAvailable(ctx) && p.ffmpeg.IsAvailable(ctx)
}

// Prepare probes path, converts it into a temporary WAV file and opens it.
//
// A missing file is NOT_FOUND, a file ffprobe rejects or that has no audio
// stream is UNREADABLE_INPUT, and a conversion failure is PROCESSING_ERROR.
// No temporary file outlives a failed call.
func (p *FFmpegPreparer) Prepare(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	log := p.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldPath, path))

	info, err := os.Stat(path)
	switch {
	case stderrors.Is(err, os.ErrNotExist):
		return nil, errors.NotFound("media file", path)
	case err != nil:
		return nil, errors.UnreadableInput(path).WithCause(err)
	case info.IsDir():
		return nil, errors.UnreadableInput(path).WithDetail("reason", "is a directory")
	}

	if err := p.probe(ctx, path); err != nil {
		return nil, err
	}

	tmp := filepath.Join(p.cfg.TempDir, "speakline-"+uuid.NewString()+".wav")
	res, err := p.ffmpeg.Run(ctx, process.Command{Args: p.Args(path, tmp)})
	if err != nil {
		removeQuietly(tmp)
		if appErr := commandError(ctx, "ffmpeg", err); appErr != nil {
			return nil, appErr
		}
		return nil, errors.ProcessingError("normalize").
			WithCause(err).
			WithDetail("stderr", res.StderrTail(stderrLines))
	}

	f, err := openTemp(tmp)
	if err != nil {
		removeQuietly(tmp)
		return nil, errors.ProcessingError("open prepared audio").WithCause(err)
	}

	log.Debug("media prepared", logger.MergeWithDuration(logger.Fields("size", humanize.Bytes(uint64(info.Size())), "temp", tmp), res.Duration))
	return f, nil
}

// Args returns the ffmpeg arguments converting src into dst.
func (p *FFmpegPreparer) Args(src, dst string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", src}
	if filters := p.filters(); filters != "" {
		args = append(args, "-af", filters)
	}
	return append(args,
		"-vn",
		"-ar", strconv.Itoa(p.cfg.SampleRate),
		"-ac", strconv.Itoa(p.cfg.Channels),
		"-c:a", "pcm_s16le",
		dst,
	)
}

func (p *FFmpegPreparer) filters() string {
	var chain []string
	if util.Deref(p.cfg.Denoise) {
		chain = append(chain, DenoiseFilter)
	}
	if util.Deref(p.cfg.Loudnorm) {
		chain = append(chain, LoudnormFilter)
	}
	return strings.Join(chain, ",")
}

func (p *FFmpegPreparer) probe(ctx context.Context, path string) error {
	res, err := p.ffprobe.Run(ctx, process.Command{
		Args: []string{"-v", "error", "-show_format", "-show_streams", path},
	})
	if err != nil {
		if appErr := commandError(ctx, "ffprobe", err); appErr != nil {
			return appErr
		}
		return errors.UnreadableInput(path).
			WithCause(err).
			WithDetail("stderr", res.StderrTail(stderrLines))
	}
	if !strings.Contains(string(res.Stdout), "codec_type=audio") {
		return errors.UnreadableInput(path).WithDetail("reason", "no audio stream")
	}
	return nil
}

// commandError maps failures that are not about the input itself.
func commandError(ctx context.Context, tool string, err error) *errors.AppError {
	switch {
	case stderrors.Is(err, process.ErrBinaryNotFound):
		return errors.ProcessingError(tool).WithCause(err).WithDetail("reason", "binary not found")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(tool).WithCause(err)
	case ctx.Err() != nil:
		return errors.ProcessingError(tool).WithCause(fmt.Errorf("canceled: %w", ctx.Err()))
	}
	return nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		logger.Get("media").Warn("removing temp file failed", logger.Fields("temp", path, logger.FieldError, err.Error()))
	}
}
