package export

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/sadopc/levelup/internal/store"
)

func ToCSV(fs afero.Fs, sessions []store.FocusSession, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Task ID", "Task", "Mode", "Start", "End", "Duration (s)", "Duration", "Outcome", "Error"}); err != nil {
		return err
	}

	for _, s := range sessions {
		taskID := ""
		if s.TaskID != nil {
			taskID = strconv.FormatInt(*s.TaskID, 10)
		}
		row := []string{
			strconv.FormatInt(s.ID, 10),
			taskID,
			s.TaskTitle,
			s.Mode,
			s.StartedAt.Local().Format(time.RFC3339),
			s.EndedAt.Local().Format(time.RFC3339),
			strconv.FormatInt(s.Duration, 10),
			formatDuration(s.Duration),
			s.Outcome,
			s.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
