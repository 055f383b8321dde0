package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/levelup/internal/focus"
	"github.com/sadopc/levelup/internal/insight"
)

// profileModel shows the productivity profile, today's analysis and the
// energy calendar, all computed from the task list.
type profileModel struct {
	width  int
	height int
	now    func() time.Time

	tasks   []focus.Task
	loadErr error
	month   int // months back from the current one

	week barchart.Model
}

func newProfileModel() profileModel {
	return profileModel{
		now:  time.Now,
		week: barchart.New(42, 8),
	}
}

func (m *profileModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildWeek()
}

func (m profileModel) update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksDataMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.tasks = msg.tasks
		}
		m.buildWeek()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.month++
		case key.Matches(msg, keys.Right):
			if m.month > 0 {
				m.month--
			}
		}
	}
	return m, nil
}

// shownMonth returns the first day of the month on screen.
func (m profileModel) shownMonth() time.Time {
	now := m.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -m.month, 0)
}

func (m *profileModel) buildWeek() {
	p := insight.BuildProfile(m.tasks, m.now())
	m.week = barchart.New(42, 8)

	var bars []barchart.BarData
	for _, d := range p.Week {
		bars = append(bars, barchart.BarData{
			Label: d.Date.Format("Mon"),
			Values: []barchart.BarValue{{
				Name:  "tasks",
				Value: float64(d.Tasks),
				Style: lipgloss.NewStyle().Foreground(activityColor(insight.ActivityFor(d.Tasks))),
			}},
		})
	}
	m.week.PushAll(bars)
	m.week.Draw()
}

func (m profileModel) view() string {
	w := m.width - 4

	if m.loadErr != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Profile"), "",
			errorStyle.Render("Could not load tasks: "+m.loadErr.Error()),
		))
	}

	now := m.now()
	p := insight.BuildProfile(m.tasks, now)
	d := insight.AnalyzeDay(m.tasks, now)

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderProfile(p), "",
		titleStyle.Render("Tasks this week"),
		m.week.View(),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		renderDaily(d), "",
		m.renderCalendar(),
	)

	body := lipgloss.JoinVertical(lipgloss.Left, left, "", right)
	if lipgloss.Width(left)+lipgloss.Width(right)+4 <= w-4 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)
	}

	nav := mutedStyle.Render("  ←/→: previous/next month")
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, body, "", nav))
}

func (m profileModel) renderProfile(p insight.Profile) string {
	tier := lipgloss.NewStyle().Bold(true).Foreground(tierColor(p.Tier)).Render(strings.ToUpper(p.Tier.String()))
	lines := []string{
		titleStyle.Render("Profile") + "  " + tier,
		mutedStyle.Render(p.Tier.Blurb()),
		"",
		fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
			mutedStyle.Render("Tasks"), highlightStyle.Render(fmt.Sprint(p.Total)),
			mutedStyle.Render("Done"), successStyle.Render(fmt.Sprint(p.Completed)),
			mutedStyle.Render("Rate"), highlightStyle.Render(fmt.Sprintf("%d%%", p.CompletionRate)),
			mutedStyle.Render("Planned"), warningStyle.Render(fmt.Sprintf("%dh", p.WorkHours)),
		),
		"",
		badge("Task master", p.TaskMaster(), fmt.Sprintf("%d/%d tasks", min(p.Completed, insight.TaskMasterGoal), insight.TaskMasterGoal)),
		badge("Workhorse", p.Workhorse(), fmt.Sprintf("%d/%d hours", min(p.WorkHours, insight.WorkhorseGoal), insight.WorkhorseGoal)),
	}
	return strings.Join(lines, "\n")
}

func badge(name string, earned bool, progress string) string {
	if earned {
		return successStyle.Render("★ " + name + "  earned")
	}
	return mutedStyle.Render("☆ "+name+"  ") + progress
}

func renderDaily(d insight.Daily) string {
	lines := []string{
		titleStyle.Render("Today"),
		moodStyle(d.Mood).Render(d.Mood.Message()),
		mutedStyle.Render(fmt.Sprintf("%d new  %d done  %d open", d.Total, d.Completed, d.Pending)),
	}
	for _, tip := range d.Tips {
		lines = append(lines, mutedStyle.Render("• "+tip))
	}
	return strings.Join(lines, "\n")
}

func (m profileModel) renderCalendar() string {
	month := m.shownMonth()
	now := m.now()

	rows := []string{
		titleStyle.Render("Energy ") + mutedStyle.Render(month.Format("January 2006")),
		mutedStyle.Render(" Mo  Tu  We  Th  Fr  Sa  Su"),
	}
	var week []string
	for i, d := range insight.Month(m.tasks, month) {
		cell := fmt.Sprintf("%3d ", d.Date.Day())
		style := lipgloss.NewStyle().Foreground(heatColor(d.Heat))
		switch {
		case !d.InMonth:
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		case insight.SameDay(d.Date, now):
			style = style.Bold(true).Underline(true)
		}
		week = append(week, style.Render(cell))
		if i%7 == 6 {
			rows = append(rows, strings.Join(week, ""))
			week = nil
		}
	}
	legend := fmt.Sprintf("%s none %s low %s medium %s high %s peak",
		heatDot(insight.HeatNone), heatDot(insight.HeatLow), heatDot(insight.HeatMedium),
		heatDot(insight.HeatHigh), heatDot(insight.HeatPeak))
	rows = append(rows, mutedStyle.Render(legend))
	return strings.Join(rows, "\n")
}

func heatDot(h insight.Heat) string {
	return lipgloss.NewStyle().Foreground(heatColor(h)).Render("■")
}

func heatColor(h insight.Heat) lipgloss.Color {
	switch h {
	case insight.HeatLow:
		return colorSuccess
	case insight.HeatMedium:
		return colorWarning
	case insight.HeatHigh:
		return colorOrange
	case insight.HeatPeak:
		return colorPink
	}
	return colorMuted
}

func activityColor(a insight.Activity) lipgloss.Color {
	switch a {
	case insight.ActivityLight:
		return colorSuccess
	case insight.ActivityBusy:
		return colorWarning
	case insight.ActivityHeavy:
		return colorError
	}
	return colorSubtle
}

func tierColor(t insight.Tier) lipgloss.Color {
	switch t {
	case insight.TierMaster:
		return colorAccent
	case insight.TierPro:
		return colorOrange
	case insight.TierSteady:
		return colorWarning
	case insight.TierGrowing:
		return colorSuccess
	}
	return colorHighlight
}

func moodStyle(mood insight.Mood) lipgloss.Style {
	switch mood {
	case insight.MoodPraise:
		return successStyle.Bold(true)
	case insight.MoodProgress:
		return warningStyle.Bold(true)
	case insight.MoodEffort:
		return lipgloss.NewStyle().Foreground(colorOrange).Bold(true)
	case insight.MoodNudge:
		return lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	}
	return highlightStyle.Bold(true)
}
