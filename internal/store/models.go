package store

import (
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

type Task struct {
	ID               int64
	Title            string
	Description      string
	EstimatedMinutes int
	Difficulty       int
	Status           string // pending, quick, scheduled, done
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Focus converts the row into the timer's task type.
func (t Task) Focus() focus.Task {
	return focus.Task{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		EstimatedMinutes: t.EstimatedMinutes,
		Difficulty:       t.Difficulty,
		Status:           focus.TaskStatus(t.Status),
		CreatedAt:        t.CreatedAt,
	}
}

// Session outcomes.
const (
	OutcomeNone      = "none"
	OutcomePending   = "pending"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// FocusSession is one interval of the focus timer that ran out.
type FocusSession struct {
	ID        int64
	TaskID    *int64
	TaskTitle string
	Mode      string // work, break
	Duration  int64  // seconds
	Outcome   string
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

type Setting struct {
	Key   string
	Value string
}

// SessionFilter is used to filter focus sessions in queries.
type SessionFilter struct {
	TaskID *int64
	Mode   string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailyFocus aggregates work sessions per day.
type DailyFocus struct {
	Date         string
	Sessions     int
	TotalSeconds int64
}
