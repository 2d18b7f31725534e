package executor

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kbukum/speakline/component"
	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/logger"
	"github.com/kbukum/speakline/observability"
	"github.com/kbukum/speakline/provider"
)

// compile-time assertions
var (
	_ provider.RequestResponse[int, int] = (*Executor[int, int])(nil)
	_ component.Component                = (*Executor[int, int])(nil)
)

// Model performs one inference. It is only called from the worker goroutine.
type Model[I, O any] interface {
	Infer(ctx context.Context, input I) (O, error)
}

// Loader builds the model on the worker goroutine.
type Loader[I, O any] func(ctx context.Context) (Model[I, O], error)

// State is the lifecycle state of an executor.
type State int

const (
	StateCreated State = iota
	StateLoading
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type result[O any] struct {
	out O
	err error
}

type task[I, O any] struct {
	ctx      context.Context
	input    I
	enqueued time.Time
	result   chan result[O]
}

// Executor owns one worker goroutine and one model instance.
type Executor[I, O any] struct {
	name    string
	loader  Loader[I, O]
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	state State
	queue []*task[I, O]

	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}

	startOnce sync.Once
	startErr  error
	stopOnce  sync.Once
}

// Option configures an Executor.
type Option func(*options)

type options struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
}

// WithConfig sets the worker loop configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the executor logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records queue depth, queue wait and inference results.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates an executor that has not started yet. Call Start to spawn the
// worker and load the model.
func New[I, O any](name string, loader Loader[I, O], opts ...Option) *Executor[I, O] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	o.cfg.ApplyDefaults()
	if o.log == nil {
		o.log = logger.Get("executor")
	}

	return &Executor[I, O]{
		name:    name,
		loader:  loader,
		cfg:     o.cfg,
		log:     o.log.WithFields(logger.Fields(logger.FieldExecutor, name)),
		metrics: o.metrics,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Spawn creates an executor and starts it. A load failure is returned as a
// MODEL_LOAD_FAILED error and leaves no goroutine behind.
func Spawn[I, O any](ctx context.Context, name string, loader Loader[I, O], opts ...Option) (*Executor[I, O], error) {
	e := New(name, loader, opts...)
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns the executor name.
func (e *Executor[I, O]) Name() string { return e.name }

// State returns the current lifecycle state.
func (e *Executor[I, O]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending returns the number of queued tasks not yet picked up by the worker.
func (e *Executor[I, O]) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Start spawns the worker and blocks until the model has loaded.
// The loader receives ctx and is expected to honor its cancellation.
// Calling Start again returns the first outcome.
func (e *Executor[I, O]) Start(ctx context.Context) error {
	e.startOnce.Do(func() {
		e.mu.Lock()
		if e.state != StateCreated {
			state := e.state
			e.mu.Unlock()
			e.startErr = errors.ExecutorShutdown(e.name).WithDetail("state", state.String())
			return
		}
		e.state = StateLoading
		e.mu.Unlock()

		loaded := make(chan error, 1)
		go e.run(ctx, loaded)

		if err := <-loaded; err != nil {
			e.startErr = errors.ModelLoad(e.name).WithCause(err)
			e.log.Error("model load failed", logger.ErrorFields("load", err))
			return
		}
		e.log.Info("executor started")
	})
	return e.startErr
}

// Submit enqueues input and waits for the model result or for ctx to be done.
// A caller that gives up receives ctx.Err() while the task still runs to
// completion. The model sees a context that keeps the caller's values but
// not its cancellation.
func (e *Executor[I, O]) Submit(ctx context.Context, input I) (O, error) {
	var zero O
	t := &task[I, O]{
		ctx:      context.WithoutCancel(ctx),
		input:    input,
		enqueued: time.Now(),
		result:   make(chan result[O], 1),
	}

	e.mu.Lock()
	if e.state != StateRunning {
		state := e.state
		e.mu.Unlock()
		return zero, errors.ExecutorShutdown(e.name).WithDetail("state", state.String())
	}
	e.queue = append(e.queue, t)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordQueueDepth(ctx, e.name, 1)
	}
	e.wake()

	select {
	case r := <-t.result:
		return r.out, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Shutdown stops the worker. Tasks still queued are failed with
// EXECUTOR_SHUTDOWN; an in-flight task is allowed to finish. The wait is
// bounded by the configured ShutdownTimeout or ctx, whichever ends first.
// A timed-out wait is logged and abandoned, never reported as an error.
// Only the first call does any work.
func (e *Executor[I, O]) Shutdown(ctx context.Context) error {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		started := e.state != StateCreated
		if started {
			if e.state != StateTerminated {
				e.state = StateStopping
			}
		} else {
			e.state = StateTerminated
		}
		e.mu.Unlock()

		close(e.stop)
		if !started {
			return
		}
		e.wake()

		waitCtx, cancel := context.WithTimeout(ctx, e.cfg.ShutdownTimeout)
		defer cancel()

		select {
		case <-e.done:
			e.log.Info("executor stopped")
		case <-waitCtx.Done():
			e.log.Warn("executor shutdown timed out, abandoning worker",
				logger.Fields("timeout", e.cfg.ShutdownTimeout.String()))
		}
	})
	return nil
}

// IsAvailable reports whether the executor accepts new tasks.
func (e *Executor[I, O]) IsAvailable(_ context.Context) bool {
	return e.State() == StateRunning
}

// Execute is Submit. It makes the executor a provider.RequestResponse.
func (e *Executor[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return e.Submit(ctx, input)
}

// Stop is Shutdown. It makes the executor a component.Component.
func (e *Executor[I, O]) Stop(ctx context.Context) error {
	return e.Shutdown(ctx)
}

// Health maps the lifecycle state to a component health report.
func (e *Executor[I, O]) Health(_ context.Context) component.Health {
	e.mu.Lock()
	state, pending := e.state, len(e.queue)
	e.mu.Unlock()

	h := component.Health{Name: e.name}
	switch state {
	case StateRunning:
		h.Status = component.StatusHealthy
		h.Message = fmt.Sprintf("%d queued", pending)
	case StateLoading, StateStopping:
		h.Status = component.StatusDegraded
		h.Message = state.String()
	default:
		h.Status = component.StatusUnhealthy
		h.Message = state.String()
	}
	return h
}

// wake signals the worker without blocking. One pending signal is enough
// because the worker drains the whole queue before it sleeps again.
func (e *Executor[I, O]) wake() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Executor[I, O]) dequeue() *task[I, O] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil
	}
	t := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return t
}

func (e *Executor[I, O]) stopping() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

func (e *Executor[I, O]) run(ctx context.Context, loaded chan<- error) {
	defer close(e.done)

	model, err := e.load(ctx)
	if err != nil {
		e.mu.Lock()
		e.state = StateTerminated
		e.mu.Unlock()
		loaded <- err
		return
	}

	e.mu.Lock()
	if e.state == StateLoading {
		e.state = StateRunning
	}
	e.mu.Unlock()
	loaded <- nil

	defer e.closeModel(model)
	defer e.failPending()

	poll := time.NewTicker(e.cfg.PollInterval)
	defer poll.Stop()

	for {
		if e.stopping() {
			return
		}
		if t := e.dequeue(); t != nil {
			e.process(model, t)
			continue
		}
		select {
		case <-e.notify:
		case <-e.stop:
			return
		case <-poll.C:
		}
	}
}

func (e *Executor[I, O]) load(ctx context.Context) (model Model[I, O], err error) {
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	model, err = e.loader(ctx)
	if err == nil && model == nil {
		err = fmt.Errorf("loader returned no model")
	}
	return model, err
}

func (e *Executor[I, O]) process(model Model[I, O], t *task[I, O]) {
	wait := time.Since(t.enqueued)
	if e.metrics != nil {
		e.metrics.RecordQueueDepth(t.ctx, e.name, -1)
		e.metrics.RecordQueueWait(t.ctx, e.name, wait)
	}

	start := time.Now()
	out, err := e.invoke(model, t)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		e.log.WithContext(t.ctx).Warn("inference failed", logger.MergeWithError(logger.DurationFields("infer", duration), err))
	}
	if e.metrics != nil {
		e.metrics.RecordOperation(t.ctx, e.name, "infer", status, duration)
	}

	t.result <- result[O]{out: out, err: err}
}

func (e *Executor[I, O]) invoke(model Model[I, O], t *task[I, O]) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero O
			out = zero
			err = errors.ModelInvocation(e.name).
				WithCause(fmt.Errorf("panic: %v", r)).
				WithDetail("stack", string(debug.Stack()))
		}
	}()

	out, err = model.Infer(t.ctx, t.input)
	if err != nil {
		invErr := errors.ModelInvocation(e.name).WithCause(err)
		invErr.Retryable = errors.IsTemporary(err)
		return out, invErr
	}
	return out, nil
}

// failPending resolves every task left in the queue once the worker exits.
func (e *Executor[I, O]) failPending() {
	e.mu.Lock()
	pending := e.queue
	e.queue = nil
	e.state = StateTerminated
	e.mu.Unlock()

	if len(pending) > 0 {
		e.log.Warn("failing queued tasks at shutdown", logger.Fields("count", len(pending)))
	}
	for _, t := range pending {
		if e.metrics != nil {
			e.metrics.RecordQueueDepth(t.ctx, e.name, -1)
		}
		t.result <- result[O]{err: errors.ExecutorShutdown(e.name).WithDetail("state", StateStopping.String())}
	}
}

func (e *Executor[I, O]) closeModel(model Model[I, O]) {
	var err error
	if c, ok := model.(io.Closer); ok {
		err = c.Close()
	} else {
		err = provider.CloseIfCloseable(context.Background(), model)
	}
	if err != nil {
		e.log.Warn("closing model failed", logger.ErrorFields("close", err))
	}
}
