package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyTitle   = errors.New("task title is empty")
)

// quickTaskMinutes is the two-minute rule: tasks this short are flagged quick.
const quickTaskMinutes = 2

const taskColumns = `id, title, description, estimated_minutes, difficulty, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var createdAt, updatedAt string
	if err := r.Scan(&t.ID, &t.Title, &t.Description, &t.EstimatedMinutes, &t.Difficulty, &t.Status, &createdAt, &updatedAt); err != nil {
		return t, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func (s *Store) CreateTask(title, description string, estimatedMinutes, difficulty int) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 5 {
		difficulty = 5
	}
	if estimatedMinutes < 0 {
		estimatedMinutes = 0
	}
	status := string(focus.StatusPending)
	if estimatedMinutes > 0 && estimatedMinutes <= quickTaskMinutes {
		status = string(focus.StatusQuick)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, description, estimated_minutes, difficulty, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, description, estimatedMinutes, difficulty, status, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns tasks newest first.
func (s *Store) ListTasks(includeDone bool) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if !includeDone {
		query += ` WHERE status != 'done'`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) CompleteTask(id int64) error {
	return s.setTaskStatus(id, string(focus.StatusDone))
}

func (s *Store) setTaskStatus(id int64, status string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, status, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update task %d: %w", id, ErrTaskNotFound)
	}
	return nil
}

func (s *Store) DeleteTask(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrTaskNotFound)
	}
	return nil
}

// Focus exposes the task table as the timer's task source and completer
// for offline use.
func (s *Store) Focus() FocusTasks {
	return FocusTasks{s: s}
}

type FocusTasks struct {
	s *Store
}

func (f FocusTasks) ListTasks(ctx context.Context) ([]focus.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := f.s.ListTasks(true)
	if err != nil {
		return nil, err
	}
	tasks := make([]focus.Task, len(rows))
	for i, t := range rows {
		tasks[i] = t.Focus()
	}
	return tasks, nil
}

func (f FocusTasks) CompleteTask(ctx context.Context, taskID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.s.CompleteTask(taskID)
}

func (f FocusTasks) AddTask(ctx context.Context, title string, estimatedMinutes, difficulty int) (focus.Task, error) {
	if err := ctx.Err(); err != nil {
		return focus.Task{}, err
	}
	t, err := f.s.CreateTask(title, "", estimatedMinutes, difficulty)
	if err != nil {
		return focus.Task{}, err
	}
	return t.Focus(), nil
}
