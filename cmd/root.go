// Package cmd wires the levelup command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sadopc/levelup/internal/api"
	"github.com/sadopc/levelup/internal/config"
	"github.com/sadopc/levelup/internal/logging"
	"github.com/sadopc/levelup/internal/store"
	"github.com/sadopc/levelup/internal/tui"
)

// version is the application version, overridden at build time.
var version = "0.1.0"

// errUnsupportedOnline is returned for operations the task service has no
// endpoint for.
var errUnsupportedOnline = errors.New("not supported by the task service; clear api.base_url to work offline")

// NewRootCmd builds the levelup command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "levelup",
		Short: "Focus timer and task list for the LevelUp task service",
		Long: `levelup runs Pomodoro focus sessions against your task list.

Without a subcommand it opens the terminal UI. Tasks come from the LevelUp
task service when api.base_url is set and from a local database otherwise.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			p := tea.NewProgram(tui.NewApp(a.store, a.tasks, a.logger), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/levelup/levelup.yaml or ./levelup.yaml)")

	root.AddCommand(
		newTasksCmd(&cfgFile),
		newFocusCmd(&cfgFile),
		newSessionsCmd(&cfgFile),
		newStatusCmd(&cfgFile),
		newConfigCmd(&cfgFile),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	store  *store.Store
	tasks  tui.TaskService
	client *api.Client // nil offline
	userID string
	logger *slog.Logger
	logs   io.Closer
}

func openApp(cfgFile string) (*app, error) {
	cfg, err := config.Load(viper.New(), cfgFile)
	if err != nil {
		return nil, err
	}

	logger, logs, err := logging.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.DB.Path)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, store: s, logger: logger, logs: logs}
	if err := a.connect(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// connect resolves the user id and picks the task backend. Values from the
// config win over the ones saved from the settings view.
func (a *app) connect() error {
	a.userID = a.cfg.User.ExternalID
	if a.userID == "" {
		id, err := a.store.EnsureUserID(config.NewUserID)
		if err != nil {
			return fmt.Errorf("resolve user id: %w", err)
		}
		a.userID = id
	}

	if a.cfg.API.BaseURL == "" {
		if v, err := a.store.GetSetting(store.SettingAPIBaseURL); err == nil {
			a.cfg.API.BaseURL = v
		}
	}

	if !a.cfg.Online() {
		a.tasks = a.store.Focus()
		a.logger.Debug("using local task list", "db", a.cfg.DB.Path)
		return nil
	}

	var opts []api.Option
	if a.cfg.API.Timeout > 0 {
		opts = append(opts, api.WithTimeout(a.cfg.API.Timeout))
	}
	client, err := api.New(a.cfg.API.BaseURL, a.userID, opts...)
	if err != nil {
		return fmt.Errorf("connect to task service: %w", err)
	}
	a.client = client
	a.tasks = client
	a.logger.Debug("using task service", "base_url", a.cfg.API.BaseURL, "user", a.userID)
	return nil
}

func (a *app) Close() error {
	err := a.store.Close()
	if cerr := a.logs.Close(); err == nil {
		err = cerr
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the levelup version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "levelup %s\n", version)
		},
	}
}
