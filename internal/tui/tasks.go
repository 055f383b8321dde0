package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/levelup/internal/focus"
)

type tasksModel struct {
	svc    TaskService
	width  int
	height int

	tasks    []focus.Task
	cursor   int
	showDone bool
	loadErr  error

	viewingDetail bool
	detail        string

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle      *string
	formEstimate   *string
	formDifficulty *int
}

func newTasksModel(svc TaskService) tasksModel {
	title, estimate, difficulty := "", "", 1
	return tasksModel{
		svc:            svc,
		formTitle:      &title,
		formEstimate:   &estimate,
		formDifficulty: &difficulty,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) refresh() tea.Cmd {
	return loadTasks(m.svc)
}

// visible returns the tasks the list shows, newest first.
func (m tasksModel) visible() []focus.Task {
	if m.showDone {
		return m.tasks
	}
	return focus.Available(m.tasks)
}

func (m tasksModel) selected() (focus.Task, bool) {
	v := m.visible()
	if m.cursor < 0 || m.cursor >= len(v) {
		return focus.Task{}, false
	}
	return v[m.cursor], true
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	// The list stays current while the form is open.
	if data, ok := msg.(tasksDataMsg); ok {
		m.loadErr = data.err
		if data.err == nil {
			m.tasks = data.tasks
		}
		m.clampCursor()
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case taskCreatedMsg, taskCompletedMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		if m.viewingDetail {
			if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Enter) {
				m.viewingDetail = false
				m.detail = ""
			}
			return m, nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *tasksModel) clampCursor() {
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.ShowDone):
		m.showDone = !m.showDone
		m.clampCursor()
	case key.Matches(msg, keys.New):
		return m.showNewTaskForm()
	case key.Matches(msg, keys.Enter):
		if t, ok := m.selected(); ok {
			m.viewingDetail = true
			m.detail = renderTaskDetail(t, m.width-8)
		}
	case key.Matches(msg, keys.Complete):
		if t, ok := m.selected(); ok && !t.Done() {
			return m, m.complete(t)
		}
	case key.Matches(msg, keys.Focus):
		if t, ok := m.selected(); ok {
			return m, func() tea.Msg { return bindTaskMsg{task: t} }
		}
	}
	return m, nil
}

func (m tasksModel) complete(t focus.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := svc.CompleteTask(ctx, t.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Could not complete %q: %v", t.Title, err), isError: true}
		}
		return taskCompletedMsg{id: t.ID}
	}
}

func (m tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formEstimate = ""
	*m.formDifficulty = 1

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(m.formTitle).Validate(validateTitle),
			huh.NewInput().Title("Estimate (min)").
				Description("Two minutes or less makes it a quick task").
				Value(m.formEstimate).Validate(validateEstimate),
			huh.NewSelect[int]().Title("Difficulty").
				Options(huh.NewOptions(1, 2, 3, 4, 5)...).
				Value(m.formDifficulty),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("title is required")
	}
	return nil
}

func validateEstimate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number of minutes")
	}
	return nil
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		title := strings.TrimSpace(*m.formTitle)
		estimate, _ := strconv.Atoi(strings.TrimSpace(*m.formEstimate))
		return m, m.create(title, estimate, *m.formDifficulty)
	}

	return m, cmd
}

func (m tasksModel) create(title string, estimate, difficulty int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := svc.AddTask(ctx, title, estimate, difficulty)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Could not create task: %v", err), isError: true}
		}
		return taskCreatedMsg{task: t}
	}
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if m.viewingDetail {
		hint := mutedStyle.Render("  esc: back")
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, m.detail, hint))
	}

	return m.renderList(w)
}

func (m tasksModel) renderList(w int) string {
	heading := "Tasks"
	if m.showDone {
		heading = "All Tasks"
	}
	title := titleStyle.Render(heading)

	if m.loadErr != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			errorStyle.Render("Could not load tasks: "+m.loadErr.Error()),
		)
		return panelStyle.Width(w).Render(content)
	}

	tasks := m.visible()
	if len(tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No open tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-32s %-10s %-8s %s", "", "Title", "Status", "Estimate", "Difficulty"))
	rows = append(rows, header)

	for i, t := range tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		estimate := "-"
		if t.EstimatedMinutes > 0 {
			estimate = fmt.Sprintf("%d min", t.EstimatedMinutes)
		}
		row := style.Render(fmt.Sprintf("%s%s %-32s %-10s %-8s %s",
			cursor, statusDot(t.Status), truncate(t.Title, 32), t.Status, estimate, strings.Repeat("★", t.Difficulty)))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  c: complete  f: focus  enter: details  a: show done"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusDot(s focus.TaskStatus) string {
	switch s {
	case focus.StatusDone:
		return successStyle.Render("✓")
	case focus.StatusQuick:
		return warningStyle.Render("⚡")
	case focus.StatusScheduled:
		return highlightStyle.Render("◷")
	}
	return mutedStyle.Render("○")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderTaskDetail renders a task as markdown. It falls back to the raw
// markdown when glamour fails.
func renderTaskDetail(t focus.Task, width int) string {
	md := taskMarkdown(t)
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return lipgloss.NewStyle().Width(max(width, 20)).Render(md)
	}
	return strings.TrimRight(out, "\n")
}

func taskMarkdown(t focus.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "- **Status:** %s\n", t.Status)
	if t.EstimatedMinutes > 0 {
		fmt.Fprintf(&b, "- **Estimate:** %d min\n", t.EstimatedMinutes)
	}
	fmt.Fprintf(&b, "- **Difficulty:** %d/5\n", t.Difficulty)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Created:** %s\n", t.CreatedAt.Local().Format("Jan 02, 2006 15:04"))
	}
	return b.String()
}
