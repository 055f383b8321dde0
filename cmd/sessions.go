package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sadopc/levelup/internal/export"
	"github.com/sadopc/levelup/internal/store"
)

func newSessionsCmd(cfgFile *string) *cobra.Command {
	sessions := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"history"},
		Short:   "Show and export focus history",
	}
	sessions.AddCommand(newSessionsListCmd(cfgFile), newSessionsExportCmd(cfgFile, afero.NewOsFs()))
	return sessions
}

func newSessionsListCmd(cfgFile *string) *cobra.Command {
	var (
		limit int
		mode  string
	)
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent focus sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMode(mode); err != nil {
				return err
			}
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.store.ListSessions(store.SessionFilter{Mode: mode, Limit: limit})
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to show, 0 for all")
	c.Flags().StringVarP(&mode, "mode", "m", "", "only show work or break sessions")
	return c
}

func checkMode(mode string) error {
	switch mode {
	case "", "work", "break":
		return nil
	}
	return fmt.Errorf("invalid mode %q: want work or break", mode)
}

func printSessions(w io.Writer, sessions []store.FocusSession) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No focus sessions yet.")
		return
	}
	fmt.Fprintf(w, "%-6s %-16s %-6s %-6s %-10s %s\n", "ID", "ENDED", "MODE", "LENGTH", "OUTCOME", "TASK")
	for _, s := range sessions {
		task := s.TaskTitle
		if task == "" {
			task = "-"
		}
		fmt.Fprintf(w, "%-6d %-16s %-6s %-6s %-10s %s\n",
			s.ID, s.EndedAt.Local().Format("2006-01-02 15:04"), s.Mode,
			fmt.Sprintf("%dm", s.Duration/60), s.Outcome, task)
	}
}

func newSessionsExportCmd(cfgFile *string, fs afero.Fs) *cobra.Command {
	var (
		format string
		out    string
	)
	c := &cobra.Command{
		Use:   "export",
		Short: "Export focus history as CSV or JSON",
		Example: `  levelup sessions export --format csv
  levelup sessions export --format json --out focus.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format %q: want csv or json", format)
			}
			if out == "" {
				out = filepath.Join(".", fmt.Sprintf("levelup-focus-%s.%s", time.Now().Format("2006-01-02"), format))
			}

			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.store.ListSessions(store.SessionFilter{})
			if err != nil {
				return err
			}
			if format == "csv" {
				err = export.ToCSV(fs, sessions, out)
			} else {
				err = export.ToJSON(fs, sessions, out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(sessions), out)
			return nil
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	c.Flags().StringVarP(&out, "out", "o", "", "output file (default levelup-focus-DATE.FORMAT)")
	return c
}
