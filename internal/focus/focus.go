// Package focus implements the Pomodoro focus timer: a countdown that
// alternates between work and break intervals, bound to a single task that
// is signalled complete when a work interval runs out.
package focus

import (
	"context"
	"fmt"
	"time"
)

// Mode is the interval the timer is counting down.
type Mode int

const (
	ModeWork Mode = iota
	ModeBreak
)

// Interval lengths in seconds.
const (
	WorkSeconds  = 25 * 60
	BreakSeconds = 5 * 60
)

// TickInterval is the period between decrements while running.
const TickInterval = time.Second

func (m Mode) String() string {
	switch m {
	case ModeWork:
		return "work"
	case ModeBreak:
		return "break"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// DurationFor returns the full length of an interval in seconds.
func DurationFor(m Mode) int {
	if m == ModeBreak {
		return BreakSeconds
	}
	return WorkSeconds
}

// TaskStatus mirrors the task service's status column.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusQuick     TaskStatus = "quick"
	StatusScheduled TaskStatus = "scheduled"
	StatusDone      TaskStatus = "done"
)

// Task is a task owned by the task service. The timer only keeps a copy of
// it to gate Start and to address the completion signal.
type Task struct {
	ID               int64
	Title            string
	Description      string
	EstimatedMinutes int
	Difficulty       int
	Status           TaskStatus
	CreatedAt        time.Time
}

func (t Task) Done() bool { return t.Status == StatusDone }

// TaskSource lists the tasks a session can be bound to.
type TaskSource interface {
	ListTasks(ctx context.Context) ([]Task, error)
}

// Completer marks a task done in the task store.
type Completer interface {
	CompleteTask(ctx context.Context, taskID int64) error
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, taskID int64) error

func (f CompleterFunc) CompleteTask(ctx context.Context, taskID int64) error {
	return f(ctx, taskID)
}

// Available returns the tasks that are not done, preserving order.
func Available(tasks []Task) []Task {
	var out []Task
	for _, t := range tasks {
		if !t.Done() {
			out = append(out, t)
		}
	}
	return out
}

// Outcome is the result of one completion signal.
type Outcome struct {
	TaskID int64
	Err    error
	At     time.Time
}

func (o Outcome) OK() bool { return o.Err == nil }

// Expiry describes an interval that ran out.
type Expiry struct {
	Mode    Mode
	Task    *Task
	Seconds int
	At      time.Time
}

// State is a snapshot of the timer.
type State struct {
	Remaining         int
	Mode              Mode
	Running           bool
	SessionsCompleted int
	Task              *Task
}

func initialState() State {
	return State{
		Remaining: WorkSeconds,
		Mode:      ModeWork,
	}
}

// Format renders seconds as MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
