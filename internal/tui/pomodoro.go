package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/levelup/internal/focus"
	"github.com/sadopc/levelup/internal/store"
)

// maxSessionDots caps the session counter drawn as dots.
const maxSessionDots = 8

type focusModel struct {
	store  *store.Store
	engine *focus.Engine
	clock  *teaClock
	queue  *focusQueue
	logger *slog.Logger
	width  int
	height int

	state     focus.State
	available []focus.Task
	loadErr   error

	// Task picker state
	picking      bool
	pickerCursor int
}

func newFocusModel(s *store.Store, svc TaskService, logger *slog.Logger) focusModel {
	clock := newTeaClock()
	q := &focusQueue{}
	eng := focus.New(clock, svc,
		focus.WithDispatch(q.dispatch),
		focus.WithOnExpire(q.expired),
		focus.WithLogger(logger),
	)
	return focusModel{
		store:  s,
		engine: eng,
		clock:  clock,
		queue:  q,
		logger: logger,
		state:  eng.State(),
	}
}

func (p *focusModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p focusModel) running() bool { return p.state.Running }

func (p focusModel) close() { p.engine.Close() }

// bind binds t unless the countdown is running.
func (p focusModel) bind(t focus.Task) (focusModel, tea.Cmd) {
	if t.Done() {
		return p, statusCmd(fmt.Sprintf("%q is already done", t.Title), true)
	}
	if !p.engine.SelectTask(&t) {
		return p, statusCmd("Pause the timer before switching tasks", true)
	}
	p.picking = false
	p, cmd := p.sync()
	return p, tea.Batch(cmd, statusCmd("Focusing on "+t.Title, false))
}

func (p focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case focusTickMsg:
		p.clock.fire(msg.seq)
		return p.sync()

	case focusCompletedMsg:
		return p.resolve(msg.outcome)

	case tasksDataMsg:
		p.loadErr = msg.err
		if msg.err == nil {
			p.available = focus.Available(msg.tasks)
			if p.pickerCursor >= len(p.available) {
				p.pickerCursor = max(0, len(p.available)-1)
			}
			p.refreshBound(msg.tasks)
		}
		return p, nil

	case tea.KeyMsg:
		if p.picking {
			return p.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if !p.engine.CanStart() {
				return p, nil
			}
			p.engine.Start()
			return p.sync()

		case key.Matches(msg, keys.Pause):
			p.engine.Pause()
			return p.sync()

		case key.Matches(msg, keys.Reset):
			p.engine.Reset()
			return p.sync()

		case key.Matches(msg, keys.Pick), key.Matches(msg, keys.Enter):
			if p.state.Running {
				return p, statusCmd("Pause the timer before switching tasks", true)
			}
			if len(p.available) == 0 {
				return p, statusCmd("No open tasks. Press 2 to go to Tasks and add one.", true)
			}
			p.picking = true
			p.pickerCursor = 0
			return p, nil
		}
	}
	return p, nil
}

// refreshBound replaces the bound task with its copy from tasks while the
// timer is stopped, so a task completed by the last work interval can no
// longer be started.
func (p *focusModel) refreshBound(tasks []focus.Task) {
	bound := p.state.Task
	if bound == nil || p.state.Running {
		return
	}
	for _, t := range tasks {
		if t.ID == bound.ID {
			if t != *bound && p.engine.SelectTask(&t) {
				p.state = p.engine.State()
			}
			return
		}
	}
}

func (p focusModel) updatePicker(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.pickerCursor > 0 {
			p.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.pickerCursor < len(p.available)-1 {
			p.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		if p.pickerCursor < len(p.available) {
			return p.bind(p.available[p.pickerCursor])
		}
	case key.Matches(msg, keys.Back):
		p.picking = false
	}
	return p, nil
}

// sync refreshes the snapshot after an engine call and turns whatever the
// call armed or dispatched into commands. Expiries are written before the
// completion jobs are handed to the runtime so each outcome finds its row.
func (p focusModel) sync() (focusModel, tea.Cmd) {
	p.state = p.engine.State()
	cmds := p.clock.cmds()

	jobs, expiries := p.queue.take()
	for _, x := range expiries {
		if p.store != nil {
			if _, err := p.store.RecordExpiry(x); err != nil {
				p.logger.Error("record focus session", "error", err)
				cmds = append(cmds, errorCmd("Could not save session", err))
				continue
			}
		}
		cmds = append(cmds, statusCmd(expiryText(x), false))
	}
	for _, job := range jobs {
		cmds = append(cmds, func() tea.Msg {
			return focusCompletedMsg{outcome: job()}
		})
	}
	return p, tea.Batch(cmds...)
}

func (p focusModel) resolve(o focus.Outcome) (focusModel, tea.Cmd) {
	if p.store != nil {
		if err := p.store.ResolveOutcome(o); err != nil {
			p.logger.Error("resolve focus session", "task_id", o.TaskID, "error", err)
		}
	}
	if !o.OK() {
		return p, statusCmd(fmt.Sprintf("Could not mark task #%d done: %v", o.TaskID, o.Err), true)
	}
	return p, statusCmd(fmt.Sprintf("Task #%d marked done", o.TaskID), false)
}

func expiryText(x focus.Expiry) string {
	if x.Mode == focus.ModeWork {
		if x.Task != nil {
			return "Work session complete. Take a break! \a"
		}
		return "Work interval over \a"
	}
	return "Break over. Back to work! \a"
}

func (p focusModel) view() string {
	w := p.width - 4

	title := titleStyle.Render("Focus Timer")

	clock := focus.Format(p.state.Remaining)
	var timeDisplay, phaseLabel string
	switch {
	case p.state.Mode == focus.ModeBreak:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(clock)
		phaseLabel = successStyle.Bold(true).Render("BREAK")
	default:
		timeDisplay = accentStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(clock)
		phaseLabel = accentStyle.Bold(true).Render("WORK")
	}

	var indicator string
	switch {
	case p.state.Running:
		indicator = successStyle.Render("●  RUNNING")
	case p.state.Remaining < focus.DurationFor(p.state.Mode):
		indicator = warningStyle.Render("⏸  PAUSED")
	default:
		indicator = mutedStyle.Render("■  READY")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		indicator,
		"",
		p.renderTask(),
		"",
		p.renderSessions(),
	)

	panel := panelStyle
	if p.state.Running {
		panel = activePanelStyle
	}
	timerPanel := panel.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", p.renderControls()),
	)

	if p.picking {
		return lipgloss.JoinVertical(lipgloss.Left, timerPanel, p.renderPicker(w))
	}
	return timerPanel
}

func (p focusModel) renderTask() string {
	t := p.state.Task
	if t == nil {
		if p.loadErr != nil {
			return errorStyle.Render("Could not load tasks: " + p.loadErr.Error())
		}
		return mutedStyle.Render("No task selected. Press t to pick one.")
	}
	line := highlightStyle.Render(t.Title)
	if meta := taskMeta(*t); meta != "" {
		line += mutedStyle.Render("  " + meta)
	}
	if t.Done() {
		line += "\n" + successStyle.Render("✓ done. Press t to pick the next task.")
	}
	return line
}

func (p focusModel) renderSessions() string {
	n := p.state.SessionsCompleted
	var parts []string
	for i := 0; i < min(n, maxSessionDots); i++ {
		parts = append(parts, successStyle.Render("●"))
	}
	if p.state.Mode == focus.ModeWork && p.state.Running {
		parts = append(parts, accentStyle.Render("◐"))
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d sessions", n))
	return strings.Join(parts, " ") + counter
}

func (p focusModel) renderControls() string {
	var parts []string
	if p.engine.CanStart() {
		parts = append(parts, "s: start")
	} else if !p.state.Running {
		parts = append(parts, subtitleStyle.Strikethrough(true).Render("s: start"))
	}
	if p.state.Running {
		parts = append(parts, "space: pause")
	} else {
		parts = append(parts, "t: pick task")
	}
	parts = append(parts, "r: reset")
	return mutedStyle.Render(strings.Join(parts, "  "))
}

func (p focusModel) renderPicker(w int) string {
	title := titleStyle.Render("Select Task")

	var rows []string
	rows = append(rows, title)
	for i, t := range p.available {
		cursor := "  "
		style := normalItemStyle
		if i == p.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+t.Title)+mutedStyle.Render("  "+taskMeta(t)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// taskMeta renders the estimate and difficulty of a task.
func taskMeta(t focus.Task) string {
	var parts []string
	if t.EstimatedMinutes > 0 {
		parts = append(parts, fmt.Sprintf("~%d min", t.EstimatedMinutes))
	}
	if t.Difficulty > 0 {
		parts = append(parts, strings.Repeat("★", t.Difficulty))
	}
	return strings.Join(parts, "  ")
}
