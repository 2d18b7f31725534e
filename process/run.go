package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/speakline/logger"
)

// ErrBinaryNotFound is returned when the command binary is not on PATH.
var ErrBinaryNotFound = errors.New("process: binary not found")

// Run starts the command in its own process group and waits for it. On
// context cancellation the whole group gets SIGTERM, then SIGKILL once the
// grace period has passed.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}
	if !lookPath(cmd.Binary) {
		return &Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrBinaryNotFound, cmd.Binary)
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // arguments are built by the media layer
	c.Dir = cmd.Dir
	c.Env = cmd.environ(os.Environ())
	c.Stdin = cmd.Stdin
	c.Stdout, c.Stderr = &stdout, &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.gracePeriod()

	log := logger.Get("process").WithContext(ctx)
	log.Debug("running subprocess", logger.Fields("command", cmd.String()))

	start := time.Now()
	runErr := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	fields := logger.DurationFields(cmd.Binary, res.Duration)
	fields["exit_code"] = res.ExitCode
	switch {
	case runErr == nil:
		log.Debug("subprocess finished", fields)
		return res, nil
	case ctx.Err() != nil:
		log.Debug("subprocess canceled", logger.MergeWithError(fields, runErr))
		return res, fmt.Errorf("process: killed by context: %w", ctx.Err())
	default:
		log.Debug("subprocess failed", logger.MergeWithError(fields, runErr))
		return res, fmt.Errorf("process: exit code %d: %w", res.ExitCode, runErr)
	}
}

func lookPath(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
