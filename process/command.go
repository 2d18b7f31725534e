package process

import (
	"io"
	"strings"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Command describes one invocation of an external tool such as ffmpeg.
type Command struct {
	Binary string
	Args   []string
	// Dir defaults to the working directory of the caller.
	Dir string
	// Env entries (KEY=value) are appended to the inherited environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod is the wait between SIGTERM and SIGKILL on cancellation.
	GracePeriod time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return defaultGracePeriod
}

func (c Command) environ(base []string) []string {
	if len(c.Env) == 0 {
		return nil
	}
	return append(base, c.Env...)
}
