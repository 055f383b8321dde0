package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/levelup/internal/focus"
)

// TaskService is the task backend behind the TUI: the remote API client
// online, the local task table offline.
type TaskService interface {
	focus.TaskSource
	focus.Completer
	AddTask(ctx context.Context, title string, estimatedMinutes, difficulty int) (focus.Task, error)
}

// requestTimeout bounds every call into the TaskService.
const requestTimeout = 10 * time.Second

// viewState represents the currently active view.
type viewState int

const (
	viewFocus viewState = iota
	viewTasks
	viewStats
	viewProfile
	viewSettings
)

var viewNames = []string{"Focus", "Tasks", "Stats", "Profile", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tasksDataMsg struct {
	tasks []focus.Task
	err   error
}

// bindTaskMsg asks the focus view to bind a task picked elsewhere.
type bindTaskMsg struct {
	task focus.Task
}

type taskCreatedMsg struct {
	task focus.Task
}

type taskCompletedMsg struct {
	id int64
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func errorCmd(prefix string, err error) tea.Cmd {
	return statusCmd(fmt.Sprintf("%s: %v", prefix, err), true)
}

// loadTasks fetches the whole task list. The focus, tasks and profile views
// all consume the resulting tasksDataMsg.
func loadTasks(svc TaskService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := svc.ListTasks(ctx)
		return tasksDataMsg{tasks: tasks, err: err}
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatMinutes(secs int64) string {
	return fmt.Sprintf("%dm", secs/60)
}
