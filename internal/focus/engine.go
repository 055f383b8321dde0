package focus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNoCompleter is reported when a work interval expires on an engine that
// was built without a Completer.
var ErrNoCompleter = errors.New("no task completer configured")

// Dispatcher runs a completion job away from the transition that produced
// it. The job performs the completion call and returns its outcome.
type Dispatcher func(job func() Outcome)

// Engine owns the timer state. It is the only writer of the countdown, the
// mode, the running flag and the session counter.
type Engine struct {
	mu sync.Mutex

	clock        Clock
	completer    Completer
	dispatch     Dispatcher
	onCompletion func(Outcome)
	onExpire     func(Expiry)
	logger       *slog.Logger
	now          func() time.Time

	state  State
	gen    uint64
	cancel func()
	closed bool

	subs    map[int]func(State)
	nextSub int
}

type Option func(*Engine)

// WithDispatch replaces the default dispatcher, which runs each completion
// job on a new goroutine.
func WithDispatch(d Dispatcher) Option {
	return func(e *Engine) { e.dispatch = d }
}

// WithOnCompletion registers a callback for completion outcomes. It runs at
// the end of the completion job, on whatever goroutine the dispatcher uses.
func WithOnCompletion(fn func(Outcome)) Option {
	return func(e *Engine) { e.onCompletion = fn }
}

// WithOnExpire registers a callback invoked after every interval expiry.
func WithOnExpire(fn func(Expiry)) Option {
	return func(e *Engine) { e.onExpire = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns a stopped engine in work mode with a full work interval.
func New(clock Clock, completer Completer, opts ...Option) *Engine {
	e := &Engine{
		clock:     clock,
		completer: completer,
		dispatch:  func(job func() Outcome) { go job() },
		logger:    slog.Default(),
		now:       time.Now,
		state:     initialState(),
		subs:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a snapshot of the timer.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// CanStart reports whether Start would start the countdown. Hosts use it to
// disable their start control.
func (e *Engine) CanStart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canStart()
}

func (e *Engine) canStart() bool {
	return !e.closed && !e.state.Running && e.state.Task != nil && !e.state.Task.Done()
}

// Start resumes the countdown. It does nothing unless a task that is not
// done is bound and the timer is stopped.
func (e *Engine) Start() {
	e.mu.Lock()
	if !e.canStart() {
		e.mu.Unlock()
		return
	}
	e.state.Running = true
	e.arm()
	s := e.snapshot()
	e.mu.Unlock()

	e.logger.Debug("focus timer started", "mode", s.Mode, "remaining", s.Remaining, "task_id", s.Task.ID)
	e.notify(s)
}

// Pause stops the countdown and cancels the pending tick.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.Running {
		e.mu.Unlock()
		return
	}
	e.state.Running = false
	e.disarm()
	s := e.snapshot()
	e.mu.Unlock()

	e.logger.Debug("focus timer paused", "mode", s.Mode, "remaining", s.Remaining)
	e.notify(s)
}

// Reset stops the countdown and refills the current interval. The mode and
// the session counter are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.state.Running = false
	e.disarm()
	e.state.Remaining = DurationFor(e.state.Mode)
	s := e.snapshot()
	e.mu.Unlock()

	e.logger.Debug("focus timer reset", "mode", s.Mode)
	e.notify(s)
}

// SelectTask binds t to the timer, or unbinds when t is nil. Selection is
// refused while the countdown runs.
func (e *Engine) SelectTask(t *Task) bool {
	e.mu.Lock()
	if e.closed || e.state.Running {
		e.mu.Unlock()
		return false
	}
	if t == nil {
		e.state.Task = nil
	} else {
		bound := *t
		e.state.Task = &bound
	}
	s := e.snapshot()
	e.mu.Unlock()

	e.notify(s)
	return true
}

// Subscribe registers fn to receive a snapshot after every state change.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Close tears the timer down. The pending tick is cancelled and no further
// transitions or notifications happen.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.state.Running = false
	e.disarm()
	e.subs = make(map[int]func(State))
}

// arm schedules the next tick. Must hold mu.
func (e *Engine) arm() {
	e.gen++
	gen := e.gen
	e.cancel = e.clock.Schedule(TickInterval, func() { e.tick(gen) })
}

// disarm cancels the pending tick and invalidates any tick already in
// flight. Must hold mu.
func (e *Engine) disarm() {
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen || !e.state.Running {
		e.mu.Unlock()
		return
	}
	e.cancel = nil

	var (
		exp *Expiry
		job func() Outcome
	)
	if e.state.Remaining > 1 {
		e.state.Remaining--
		e.arm()
	} else {
		e.state.Remaining = 0
		exp, job = e.expire()
	}
	s := e.snapshot()
	onExpire := e.onExpire
	e.mu.Unlock()

	e.notify(s)
	if exp != nil {
		e.logger.Debug("focus interval expired", "mode", exp.Mode, "next_mode", s.Mode, "sessions", s.SessionsCompleted)
		if onExpire != nil {
			onExpire(*exp)
		}
	}
	if job != nil {
		e.dispatch(job)
	}
}

// expire applies the end-of-interval transition. Must hold mu.
func (e *Engine) expire() (*Expiry, func() Outcome) {
	exp := &Expiry{
		Mode:    e.state.Mode,
		Seconds: DurationFor(e.state.Mode),
		At:      e.now(),
	}
	if e.state.Task != nil {
		t := *e.state.Task
		exp.Task = &t
	}

	e.state.Running = false
	e.gen++

	if e.state.Mode == ModeWork && e.state.Task != nil {
		e.state.Mode = ModeBreak
		e.state.Remaining = BreakSeconds
		e.state.SessionsCompleted++
		return exp, e.completionJob(e.state.Task.ID)
	}
	// Break expiry, or a work interval with no task bound.
	e.state.Mode = ModeWork
	e.state.Remaining = WorkSeconds
	return exp, nil
}

func (e *Engine) completionJob(taskID int64) func() Outcome {
	completer := e.completer
	onCompletion := e.onCompletion
	logger := e.logger
	now := e.now

	return func() Outcome {
		o := Outcome{TaskID: taskID}
		if completer == nil {
			o.Err = ErrNoCompleter
		} else {
			o.Err = completer.CompleteTask(context.Background(), taskID)
		}
		o.At = now()
		if o.Err != nil {
			logger.Warn("task completion signal failed", "task_id", taskID, "error", o.Err)
		}
		if onCompletion != nil {
			onCompletion(o)
		}
		return o
	}
}

// snapshot copies the state so callers never alias the bound task. Must
// hold mu.
func (e *Engine) snapshot() State {
	s := e.state
	if s.Task != nil {
		t := *s.Task
		s.Task = &t
	}
	return s
}

func (e *Engine) notify(s State) {
	e.mu.Lock()
	subs := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
