// Package progress reports how far a pipeline run has come.
package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/kbukum/speakline/logger"
)

// DefaultWidth is the number of cells in a rendered bar.
const DefaultWidth = 10

// Observer receives progress updates in percent. Errors are reported to the
// caller but must not be treated as run failures.
type Observer interface {
	Update(ctx context.Context, percent int) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, percent int) error

// Update calls f.
func (f ObserverFunc) Update(ctx context.Context, percent int) error { return f(ctx, percent) }

// Nop ignores every update.
var Nop Observer = ObserverFunc(func(context.Context, int) error { return nil })

// Bar renders percent as "[██░░░] 40%". Percent is clamped to 0..100.
func Bar(percent, width int) string {
	percent = max(0, min(percent, 100))
	if width <= 0 {
		width = DefaultWidth
	}
	filled := width * percent / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "] " + fmt.Sprintf("%d%%", percent)
}

// LogObserver logs each update at info level.
type LogObserver struct {
	log   *logger.Logger
	width int
}

// NewLogObserver creates an observer logging through log, or the
// "progress" component logger when log is nil.
func NewLogObserver(log *logger.Logger) *LogObserver {
	if log == nil {
		log = logger.Get("progress")
	}
	return &LogObserver{log: log, width: DefaultWidth}
}

// Update logs percent and the rendered bar.
func (o *LogObserver) Update(ctx context.Context, percent int) error {
	o.log.WithContext(ctx).Info("progress", logger.Fields("percent", percent, "bar", Bar(percent, o.width)))
	return nil
}

// Terminal draws the bar on w. On a terminal the bar is redrawn in place,
// otherwise each update is written on its own line.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	width  int
	inline bool
}

// NewTerminal creates a Terminal observer writing to w.
func NewTerminal(w io.Writer) *Terminal {
	inline := false
	if f, ok := w.(*os.File); ok {
		inline = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Terminal{w: w, width: 20, inline: inline}
}

// Update draws the bar.
func (t *Terminal) Update(_ context.Context, percent int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bar := Bar(percent, t.width)
	if !t.inline {
		_, err := fmt.Fprintln(t.w, bar)
		return err
	}
	end := ""
	if percent >= 100 {
		end = "\n"
	}
	_, err := fmt.Fprintf(t.w, "\r%s%s", bar, end)
	return err
}

// Fanout forwards each update to every observer and joins their errors.
func Fanout(observers ...Observer) Observer {
	return ObserverFunc(func(ctx context.Context, percent int) error {
		var errs []error
		for _, o := range observers {
			if err := o.Update(ctx, percent); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
