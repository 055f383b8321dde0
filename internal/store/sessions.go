package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

// RecordExpiry stores an interval the timer ran to the end. Work intervals
// with a task start out pending until the completion outcome arrives.
func (s *Store) RecordExpiry(x focus.Expiry) (*FocusSession, error) {
	fs := FocusSession{
		Mode:     x.Mode.String(),
		Duration: int64(x.Seconds),
		Outcome:  OutcomeNone,
		EndedAt:  x.At.UTC(),
	}
	fs.StartedAt = fs.EndedAt.Add(-time.Duration(x.Seconds) * time.Second)
	if x.Task != nil {
		id := x.Task.ID
		fs.TaskID = &id
		fs.TaskTitle = x.Task.Title
		if x.Mode == focus.ModeWork {
			fs.Outcome = OutcomePending
		}
	}
	return s.RecordSession(fs)
}

func (s *Store) RecordSession(fs FocusSession) (*FocusSession, error) {
	res, err := s.db.Exec(
		`INSERT INTO focus_sessions (task_id, task_title, mode, duration, outcome, error, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fs.TaskID, fs.TaskTitle, fs.Mode, fs.Duration, fs.Outcome, fs.Error,
		fs.StartedAt.UTC().Format(time.RFC3339), fs.EndedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(id)
}

// ResolveOutcome settles the newest pending work session of a task with the
// result of its completion signal.
func (s *Store) ResolveOutcome(o focus.Outcome) error {
	outcome, errText := OutcomeCompleted, ""
	if !o.OK() {
		outcome, errText = OutcomeFailed, o.Err.Error()
	}
	_, err := s.db.Exec(`
		UPDATE focus_sessions SET outcome = ?, error = ?
		WHERE id = (
			SELECT id FROM focus_sessions
			WHERE task_id = ? AND outcome = 'pending'
			ORDER BY id DESC LIMIT 1
		)`,
		outcome, errText, o.TaskID,
	)
	if err != nil {
		return fmt.Errorf("resolve outcome for task %d: %w", o.TaskID, err)
	}
	return nil
}

const sessionColumns = `id, task_id, task_title, mode, duration, outcome, error, started_at, ended_at`

func scanSession(r rowScanner) (FocusSession, error) {
	var fs FocusSession
	var taskID sql.NullInt64
	var startedAt, endedAt string
	if err := r.Scan(&fs.ID, &taskID, &fs.TaskTitle, &fs.Mode, &fs.Duration, &fs.Outcome, &fs.Error, &startedAt, &endedAt); err != nil {
		return fs, err
	}
	if taskID.Valid {
		fs.TaskID = &taskID.Int64
	}
	fs.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	fs.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
	return fs, nil
}

func (s *Store) GetSession(id int64) (*FocusSession, error) {
	fs, err := scanSession(s.db.QueryRow(`SELECT `+sessionColumns+` FROM focus_sessions WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return &fs, nil
}

func (s *Store) ListSessions(f SessionFilter) ([]FocusSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM focus_sessions WHERE 1=1`
	var args []any

	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, f.Mode)
	}
	if f.From != nil {
		query += ` AND ended_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND ended_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY ended_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []FocusSession
	for rows.Next() {
		fs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, fs)
	}
	return sessions, rows.Err()
}

// GetDailyFocus sums work sessions per local day in [from, to). Days
// without sessions are left out.
func (s *Store) GetDailyFocus(from, to time.Time) ([]DailyFocus, error) {
	rows, err := s.db.Query(`
		SELECT ended_at, duration
		FROM focus_sessions
		WHERE mode = 'work'
		  AND ended_at >= ? AND ended_at < ?
		ORDER BY ended_at`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily focus: %w", err)
	}
	defer rows.Close()

	var days []DailyFocus
	for rows.Next() {
		var (
			ended    string
			duration int64
		)
		if err := rows.Scan(&ended, &duration); err != nil {
			return nil, err
		}
		end, err := time.Parse(time.RFC3339, ended)
		if err != nil {
			return nil, fmt.Errorf("daily focus: parse %q: %w", ended, err)
		}
		day := end.In(s.loc).Format("2006-01-02")
		if n := len(days); n == 0 || days[n-1].Date != day {
			days = append(days, DailyFocus{Date: day})
		}
		days[len(days)-1].Sessions++
		days[len(days)-1].TotalSeconds += duration
	}
	return days, rows.Err()
}

// GetTodayFocus returns the work session count and focused seconds of the
// current local day.
func (s *Store) GetTodayFocus() (sessions int, seconds int64, err error) {
	from := StartOfDay(time.Now(), s.loc)
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(duration), 0)
		FROM focus_sessions
		WHERE mode = 'work' AND ended_at >= ? AND ended_at < ?`,
		from.UTC().Format(time.RFC3339), from.AddDate(0, 0, 1).UTC().Format(time.RFC3339),
	).Scan(&sessions, &seconds)
	return
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
