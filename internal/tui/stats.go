package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/levelup/internal/store"
)

// recentLimit is how many sessions the history table shows.
const recentLimit = 8

type statsModel struct {
	store  *store.Store
	width  int
	height int

	daily    []store.DailyFocus
	recent   []store.FocusSession
	todayN   int
	todaySec int64
	offset   int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newStatsModel(s *store.Store) statsModel {
	return statsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *statsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type statsDataMsg struct {
	daily    []store.DailyFocus
	recent   []store.FocusSession
	todayN   int
	todaySec int64
	err      error
}

func (r statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		daily, err := r.store.GetDailyFocus(from, to)
		if err != nil {
			return statsDataMsg{err: err}
		}
		recent, err := r.store.ListSessions(store.SessionFilter{Limit: recentLimit})
		if err != nil {
			return statsDataMsg{err: err}
		}
		n, secs, err := r.store.GetTodayFocus()
		return statsDataMsg{daily: daily, recent: recent, todayN: n, todaySec: secs, err: err}
	}
}

// dateRange returns the seven local days ending today, shifted back by
// offset.
func (r statsModel) dateRange() (time.Time, time.Time) {
	today := store.StartOfDay(time.Now(), time.Local)
	end := today.AddDate(0, 0, 1-7*r.offset)
	return end.AddDate(0, 0, -7), end
}

func (r statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		if msg.err != nil {
			return r, errorCmd("Could not load stats", msg.err)
		}
		r.daily = msg.daily
		r.recent = msg.recent
		r.todayN = msg.todayN
		r.todaySec = msg.todaySec
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *statsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 30 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]store.DailyFocus, len(r.daily))
	for _, d := range r.daily {
		byDate[d.Date] = d
	}

	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		day := byDate[d.Format("2006-01-02")]
		style := lipgloss.NewStyle().Foreground(colorAccent)
		if day.TotalSeconds == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "focus",
				Value: float64(day.TotalSeconds) / 60.0,
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r statsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Focus minutes"), "  ", dateLabel,
	)

	today := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("Today"),
		highlightStyle.Render(formatSeconds(r.todaySec)),
		mutedStyle.Render(fmt.Sprintf("(%d sessions)", r.todayN)),
	)

	nav := mutedStyle.Render("  ←/→: previous/next week  e: export history")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", today, "", r.renderRecent(w), "", nav,
		),
	)
}

func (r statsModel) renderRecent(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(r.recent) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("  No sessions yet"))
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-6s %-28s %8s  %s", "Ended", "Mode", "Task", "Length", "Outcome")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 68))))
	for _, s := range r.recent {
		task := s.TaskTitle
		if task == "" {
			task = "-"
		}
		rows = append(rows, fmt.Sprintf("  %-12s %-6s %-28s %8s  %s",
			s.EndedAt.Local().Format("Jan 02 15:04"),
			s.Mode,
			truncate(task, 28),
			formatMinutes(s.Duration),
			outcomeLabel(s),
		))
	}
	return strings.Join(rows, "\n")
}

func outcomeLabel(s store.FocusSession) string {
	switch s.Outcome {
	case store.OutcomeCompleted:
		return successStyle.Render("✓ completed")
	case store.OutcomeFailed:
		return errorStyle.Render("✗ " + s.Error)
	case store.OutcomePending:
		return warningStyle.Render("… pending")
	}
	return mutedStyle.Render("-")
}
