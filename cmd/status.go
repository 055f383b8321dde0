package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which task backend is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "User:     %s\n", a.userID)
			fmt.Fprintf(w, "Database: %s\n", a.cfg.DB.Path)

			sessions, seconds, err := a.store.GetTodayFocus()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Today:    %d sessions, %dm focused\n", sessions, seconds/60)

			if a.client == nil {
				fmt.Fprintln(w, "Backend:  local task list (offline)")
				return nil
			}
			fmt.Fprintf(w, "Backend:  %s\n", a.cfg.API.BaseURL)
			if err := a.client.Health(cmd.Context()); err != nil {
				fmt.Fprintf(w, "Service:  unreachable (%v)\n", err)
				return nil
			}
			fmt.Fprintln(w, "Service:  ok")

			p, err := a.client.Profile(cmd.Context())
			if err != nil {
				a.logger.Warn("load profile", "error", err)
				return nil
			}
			fmt.Fprintf(w, "Level:    %d (%d energy)\n", p.Level, p.Energy)
			// completion_rate is already a percentage.
			fmt.Fprintf(w, "Tasks:    %d of %d done (%.0f%%)\n", p.CompletedTasks, p.TotalTasks, p.CompletionRate)
			return nil
		},
	}
}
