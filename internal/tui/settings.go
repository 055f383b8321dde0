package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/levelup/internal/config"
	"github.com/sadopc/levelup/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	apiBaseURL *string
	userID     *string
}

func newSettingsModel(s *store.Store) settingsModel {
	base, user := "", ""
	return settingsModel{
		store:      s,
		apiBaseURL: &base,
		userID:     &user,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	err      error
}

type settingsSavedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			return s, errorCmd("Could not load settings", msg.err)
		}
		s.settings = msg.settings
		return s, nil

	case settingsSavedMsg:
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved. They apply on next start.", false))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	// Load current values
	*s.apiBaseURL = s.getVal(store.SettingAPIBaseURL, "")
	*s.userID = s.getVal(store.SettingUserID, "")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task service URL").
				Description("Leave empty to work offline from the local task list").
				Value(s.apiBaseURL).
				Validate(func(v string) error { return config.CheckBaseURL(strings.TrimSpace(v)) }),
			huh.NewInput().Title("User ID").
				Description("external_id sent with every request").
				Value(s.userID).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return errors.New("user id is required")
					}
					return nil
				}),
		).Title("Account"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save()
	}

	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	base := strings.TrimSpace(*s.apiBaseURL)
	user := strings.TrimSpace(*s.userID)
	st := s.store
	return func() tea.Msg {
		if err := st.SetSetting(store.SettingAPIBaseURL, base); err != nil {
			return statusMsg{text: fmt.Sprintf("Could not save settings: %v", err), isError: true}
		}
		if err := st.SetSetting(store.SettingUserID, user); err != nil {
			return statusMsg{text: fmt.Sprintf("Could not save settings: %v", err), isError: true}
		}
		return settingsSavedMsg{}
	}
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabel(setting.Key))
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingLabel(k string) string {
	switch k {
	case store.SettingAPIBaseURL:
		return "Task service URL"
	case store.SettingUserID:
		return "User ID"
	}
	return k
}

func formatSettingValue(k, v string) string {
	if v == "" {
		switch k {
		case store.SettingAPIBaseURL:
			return "(offline)"
		default:
			return "(not set)"
		}
	}
	return v
}
