package api

import (
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

type taskDTO struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	Difficulty       int     `json:"difficulty"`
	Status           string  `json:"status"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	CreatedAt        string  `json:"created_at"`
}

// The service emits naive ISO timestamps with optional fractional seconds.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (d taskDTO) focus() focus.Task {
	t := focus.Task{
		ID:               d.ID,
		Title:            d.Title,
		EstimatedMinutes: d.EstimatedMinutes,
		Difficulty:       d.Difficulty,
		Status:           focus.TaskStatus(d.Status),
		CreatedAt:        parseTime(d.CreatedAt),
	}
	if d.Description != nil {
		t.Description = *d.Description
	}
	if t.Status == "" {
		t.Status = focus.StatusPending
	}
	return t
}
