package focus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingCompleter struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (r *recordingCompleter) CompleteTask(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return r.err
}

func (r *recordingCompleter) calls() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

// syncDispatch runs completion jobs inline so tests can assert on them
// right after the tick that produced them.
func syncDispatch(job func() Outcome) { job() }

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *ManualClock, *recordingCompleter) {
	t.Helper()
	clock := NewManualClock()
	rc := &recordingCompleter{}
	opts = append([]Option{WithDispatch(syncDispatch)}, opts...)
	e := New(clock, rc, opts...)
	t.Cleanup(e.Close)
	return e, clock, rc
}

func sampleTask() *Task {
	return &Task{ID: 42, Title: "Write report", EstimatedMinutes: 30, Difficulty: 3, Status: StatusPending}
}

// runTo advances the clock one tick at a time until the countdown shows
// remaining seconds.
func runTo(t *testing.T, e *Engine, c *ManualClock, remaining int) {
	t.Helper()
	for e.State().Remaining > remaining {
		if !e.State().Running {
			t.Fatalf("timer stopped at %d before reaching %d", e.State().Remaining, remaining)
		}
		c.Advance(TickInterval)
	}
}

// ============================================================
// Initial state and formatting
// ============================================================

func TestInitialState(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := e.State()
	if s.Mode != ModeWork || s.Remaining != 1500 || s.Running || s.SessionsCompleted != 0 || s.Task != nil {
		t.Fatalf("unexpected initial state: %+v", s)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{125, "02:05"},
		{0, "00:00"},
		{1500, "25:00"},
		{300, "05:00"},
		{59, "00:59"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := Format(tt.secs); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestDurationFor(t *testing.T) {
	if DurationFor(ModeWork) != 1500 {
		t.Fatalf("work = %d", DurationFor(ModeWork))
	}
	if DurationFor(ModeBreak) != 300 {
		t.Fatalf("break = %d", DurationFor(ModeBreak))
	}
}

func TestModeString(t *testing.T) {
	if ModeWork.String() != "work" || ModeBreak.String() != "break" {
		t.Fatal("unexpected mode names")
	}
}

func TestAvailable(t *testing.T) {
	tasks := []Task{
		{ID: 1, Status: StatusPending},
		{ID: 2, Status: StatusDone},
		{ID: 3, Status: StatusQuick},
	}
	got := Available(tasks)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected available tasks: %+v", got)
	}
}

// ============================================================
// Start guard
// ============================================================

func TestStartWithoutTask(t *testing.T) {
	e, c, _ := newTestEngine(t)
	if e.CanStart() {
		t.Fatal("CanStart should be false without a task")
	}
	e.Start()
	if e.State().Running {
		t.Fatal("start without a task must be ignored")
	}
	if c.Pending() != 0 {
		t.Fatal("no tick should be scheduled")
	}
}

func TestStartWithDoneTask(t *testing.T) {
	e, _, _ := newTestEngine(t)
	task := sampleTask()
	task.Status = StatusDone
	e.SelectTask(task)
	if e.CanStart() {
		t.Fatal("CanStart should be false for a done task")
	}
	e.Start()
	if e.State().Running {
		t.Fatal("start with a done task must be ignored")
	}
}

func TestStartWhileRunningSchedulesOneTick(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	e.Start()
	if !e.State().Running {
		t.Fatal("timer should be running")
	}
	if c.Pending() != 1 {
		t.Fatalf("expected exactly one pending tick, got %d", c.Pending())
	}
}

// ============================================================
// Ticks
// ============================================================

func TestTickDecrements(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()

	c.Advance(TickInterval)
	s := e.State()
	if s.Remaining != 1499 || !s.Running || s.Mode != ModeWork {
		t.Fatalf("unexpected state after one tick: %+v", s)
	}

	c.Advance(10 * TickInterval)
	if got := e.State().Remaining; got != 1489 {
		t.Fatalf("remaining = %d, want 1489", got)
	}
}

func TestTickIsNotDeliveredBeforeInterval(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(TickInterval - time.Millisecond)
	if got := e.State().Remaining; got != 1500 {
		t.Fatalf("remaining = %d, want 1500", got)
	}
}

func TestWorkExpiryWithTask(t *testing.T) {
	e, c, rc := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	runTo(t, e, c, 1)

	c.Advance(TickInterval)
	s := e.State()
	if s.Mode != ModeBreak || s.Remaining != 300 || s.Running || s.SessionsCompleted != 1 {
		t.Fatalf("unexpected state after work expiry: %+v", s)
	}
	if calls := rc.calls(); len(calls) != 1 || calls[0] != 42 {
		t.Fatalf("expected one completion for task 42, got %v", calls)
	}
	if c.Pending() != 0 {
		t.Fatal("expiry must not leave a tick scheduled")
	}
}

func TestBreakExpiry(t *testing.T) {
	e, c, rc := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(WorkSeconds * TickInterval)
	if e.State().Mode != ModeBreak {
		t.Fatal("expected break mode")
	}

	e.Start()
	c.Advance(BreakSeconds * TickInterval)
	s := e.State()
	if s.Mode != ModeWork || s.Remaining != 1500 || s.Running || s.SessionsCompleted != 1 {
		t.Fatalf("unexpected state after break expiry: %+v", s)
	}
	if len(rc.calls()) != 1 {
		t.Fatalf("break expiry must not signal completion, calls=%v", rc.calls())
	}
}

func TestWorkExpiryWithoutTask(t *testing.T) {
	e, c, rc := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	runTo(t, e, c, 1)

	// Expire a work interval with no task: unbind it under a running timer.
	e.mu.Lock()
	e.state.Task = nil
	e.mu.Unlock()

	c.Advance(TickInterval)
	s := e.State()
	if s.Mode != ModeWork || s.Remaining != 1500 || s.Running || s.SessionsCompleted != 0 {
		t.Fatalf("unexpected state: %+v", s)
	}
	if len(rc.calls()) != 0 {
		t.Fatal("no completion expected without a task")
	}
}

func TestSessionsCountAcrossCycles(t *testing.T) {
	e, c, rc := newTestEngine(t)
	e.SelectTask(sampleTask())
	for i := 0; i < 3; i++ {
		e.Start()
		c.Advance(WorkSeconds * TickInterval)
		e.Start()
		c.Advance(BreakSeconds * TickInterval)
	}
	if got := e.State().SessionsCompleted; got != 3 {
		t.Fatalf("sessions = %d, want 3", got)
	}
	if len(rc.calls()) != 3 {
		t.Fatalf("completions = %d, want 3", len(rc.calls()))
	}
}

// ============================================================
// Pause and reset
// ============================================================

func TestPauseIdempotent(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(5 * TickInterval)

	e.Pause()
	once := e.State()
	e.Pause()
	twice := e.State()
	if once.Running || twice.Running {
		t.Fatal("timer should be paused")
	}
	if once.Remaining != twice.Remaining || once.Mode != twice.Mode || once.SessionsCompleted != twice.SessionsCompleted {
		t.Fatalf("second pause changed state: %+v vs %+v", once, twice)
	}
}

func TestPauseCancelsTick(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(3 * TickInterval)
	e.Pause()

	if c.Pending() != 0 {
		t.Fatalf("pause must cancel the pending tick, %d left", c.Pending())
	}
	c.Advance(time.Minute)
	if got := e.State().Remaining; got != 1497 {
		t.Fatalf("remaining = %d after pause, want 1497", got)
	}
}

func TestPauseThenResume(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(2 * TickInterval)
	e.Pause()
	e.Start()
	c.Advance(2 * TickInterval)
	if got := e.State().Remaining; got != 1496 {
		t.Fatalf("remaining = %d, want 1496", got)
	}
}

func TestResetPreservesMode(t *testing.T) {
	e, c, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(WorkSeconds * TickInterval)
	e.Start()
	c.Advance(180 * TickInterval)
	if s := e.State(); s.Mode != ModeBreak || s.Remaining != 120 {
		t.Fatalf("setup failed: %+v", s)
	}

	e.Reset()
	s := e.State()
	if s.Remaining != 300 || s.Mode != ModeBreak || s.Running || s.SessionsCompleted != 1 {
		t.Fatalf("unexpected state after reset: %+v", s)
	}
	if c.Pending() != 0 {
		t.Fatal("reset must cancel the pending tick")
	}
}

func TestResetKeepsTask(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Reset()
	if e.State().Task == nil {
		t.Fatal("reset should keep the bound task")
	}
}

// ============================================================
// Stray ticks
// ============================================================

// capturingClock hands out callbacks without ever running them and ignores
// cancellation, so tests can replay a tick that lost the race with a stop.
type capturingClock struct {
	fns []func()
}

func (c *capturingClock) Schedule(_ time.Duration, fn func()) func() {
	c.fns = append(c.fns, fn)
	return func() {}
}

func TestNoStrayTickAfterPause(t *testing.T) {
	cc := &capturingClock{}
	e := New(cc, &recordingCompleter{}, WithDispatch(syncDispatch))
	defer e.Close()
	e.SelectTask(sampleTask())
	e.Start()
	cc.fns[0]()
	if e.State().Remaining != 1499 {
		t.Fatal("first tick should decrement")
	}

	stale := cc.fns[1]
	e.Pause()
	stale()
	if got := e.State().Remaining; got != 1499 {
		t.Fatalf("stale tick decremented a paused timer: %d", got)
	}

	// Resuming arms a new tick; the stale one must still be inert.
	e.Start()
	stale()
	if got := e.State().Remaining; got != 1499 {
		t.Fatalf("stale tick decremented a resumed timer: %d", got)
	}
	cc.fns[len(cc.fns)-1]()
	if got := e.State().Remaining; got != 1498 {
		t.Fatalf("fresh tick should decrement, got %d", got)
	}
}

func TestNoStrayTickAfterReset(t *testing.T) {
	cc := &capturingClock{}
	e := New(cc, &recordingCompleter{}, WithDispatch(syncDispatch))
	defer e.Close()
	e.SelectTask(sampleTask())
	e.Start()
	stale := cc.fns[0]
	e.Reset()
	stale()
	if s := e.State(); s.Remaining != 1500 || s.Running {
		t.Fatalf("stale tick applied after reset: %+v", s)
	}
}

func TestNoTickAfterClose(t *testing.T) {
	e, c, rc := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	runTo(t, e, c, 1)
	e.Close()
	c.Advance(time.Hour)
	if e.State().SessionsCompleted != 0 || len(rc.calls()) != 0 {
		t.Fatal("closed engine must not expire")
	}
	e.Start()
	if e.State().Running {
		t.Fatal("closed engine must not start")
	}
}

// ============================================================
// Task selection
// ============================================================

func TestSelectTaskWhileRunningRefused(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.Start()
	other := &Task{ID: 7, Title: "Other", Status: StatusPending}
	if e.SelectTask(other) {
		t.Fatal("selection should be refused while running")
	}
	if e.State().Task.ID != 42 {
		t.Fatal("bound task changed while running")
	}
}

func TestSelectTaskCopies(t *testing.T) {
	e, _, _ := newTestEngine(t)
	task := sampleTask()
	e.SelectTask(task)
	task.Title = "mutated"
	if e.State().Task.Title != "Write report" {
		t.Fatal("engine should hold its own copy of the task")
	}
	s := e.State()
	s.Task.Title = "also mutated"
	if e.State().Task.Title != "Write report" {
		t.Fatal("snapshots must not alias engine state")
	}
}

func TestSelectNilUnbinds(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SelectTask(sampleTask())
	e.SelectTask(nil)
	if e.State().Task != nil || e.CanStart() {
		t.Fatal("nil selection should unbind")
	}
}

// ============================================================
// Completion outcome and observers
// ============================================================

func TestCompletionFailureStillAdvances(t *testing.T) {
	var got []Outcome
	e, c, rc := newTestEngine(t, WithOnCompletion(func(o Outcome) { got = append(got, o) }))
	rc.err = errors.New("service unavailable")
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(WorkSeconds * TickInterval)

	s := e.State()
	if s.Mode != ModeBreak || s.SessionsCompleted != 1 {
		t.Fatalf("state should advance regardless of failure: %+v", s)
	}
	if len(got) != 1 || got[0].OK() || got[0].TaskID != 42 {
		t.Fatalf("expected one failed outcome, got %+v", got)
	}
	if len(rc.calls()) != 1 {
		t.Fatal("completion must not be retried")
	}
}

func TestCompletionWithoutCompleter(t *testing.T) {
	var got Outcome
	clock := NewManualClock()
	e := New(clock, nil, WithDispatch(syncDispatch), WithOnCompletion(func(o Outcome) { got = o }))
	defer e.Close()
	e.SelectTask(sampleTask())
	e.Start()
	clock.Advance(WorkSeconds * TickInterval)
	if !errors.Is(got.Err, ErrNoCompleter) {
		t.Fatalf("expected ErrNoCompleter, got %v", got.Err)
	}
}

func TestCompletionDispatchedAsynchronously(t *testing.T) {
	done := make(chan Outcome, 1)
	clock := NewManualClock()
	e := New(clock, &recordingCompleter{}, WithOnCompletion(func(o Outcome) { done <- o }))
	defer e.Close()
	e.SelectTask(sampleTask())
	e.Start()
	clock.Advance(WorkSeconds * TickInterval)

	select {
	case o := <-done:
		if !o.OK() || o.TaskID != 42 {
			t.Fatalf("unexpected outcome: %+v", o)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion was never delivered")
	}
}

func TestOnExpire(t *testing.T) {
	var got []Expiry
	e, c, _ := newTestEngine(t, WithOnExpire(func(x Expiry) { got = append(got, x) }))
	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(WorkSeconds * TickInterval)
	e.Start()
	c.Advance(BreakSeconds * TickInterval)

	if len(got) != 2 {
		t.Fatalf("expected 2 expiries, got %d", len(got))
	}
	if got[0].Mode != ModeWork || got[0].Seconds != 1500 || got[0].Task == nil || got[0].Task.ID != 42 {
		t.Fatalf("unexpected work expiry: %+v", got[0])
	}
	if got[1].Mode != ModeBreak || got[1].Seconds != 300 {
		t.Fatalf("unexpected break expiry: %+v", got[1])
	}
}

func TestSubscribe(t *testing.T) {
	e, c, _ := newTestEngine(t)
	var states []State
	unsub := e.Subscribe(func(s State) { states = append(states, s) })

	e.SelectTask(sampleTask())
	e.Start()
	c.Advance(TickInterval)
	e.Pause()
	if len(states) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(states))
	}
	if states[2].Remaining != 1499 || states[3].Running {
		t.Fatalf("unexpected notifications: %+v", states)
	}

	unsub()
	e.Reset()
	if len(states) != 4 {
		t.Fatal("unsubscribed observer was notified")
	}
}

func TestSystemClockRuns(t *testing.T) {
	fired := make(chan struct{})
	cancel := SystemClock{}.Schedule(time.Millisecond, func() { close(fired) })
	defer cancel()
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("system clock never fired")
	}
}

func TestSystemClockCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	cancel := SystemClock{}.Schedule(50*time.Millisecond, func() { fired <- struct{}{} })
	cancel()
	select {
	case <-fired:
		t.Fatal("cancelled callback ran")
	case <-time.After(150 * time.Millisecond):
	}
}
