// Package insight derives the energy calendar, the productivity profile and
// the daily analysis from a task list. Everything here is plain arithmetic
// over tasks; days are calendar days in the location of the time passed in.
package insight

import (
	"math"
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

// MaxDayEnergy caps the energy of a single day.
const MaxDayEnergy = 100.0

// doneEnergyFactor discounts the energy of tasks already done.
const doneEnergyFactor = 0.7

// Heat buckets a day's energy for the calendar.
type Heat int

const (
	HeatNone Heat = iota
	HeatLow
	HeatMedium
	HeatHigh
	HeatPeak
)

// HeatFor maps an energy value to its bucket.
func HeatFor(energy float64) Heat {
	switch {
	case energy <= 0:
		return HeatNone
	case energy < 25:
		return HeatLow
	case energy < 50:
		return HeatMedium
	case energy < 75:
		return HeatHigh
	}
	return HeatPeak
}

// TaskEnergy is difficulty times estimated hours, discounted once done.
func TaskEnergy(t focus.Task) float64 {
	e := float64(t.Difficulty) * float64(t.EstimatedMinutes) / 60
	if t.Done() {
		e *= doneEnergyFactor
	}
	return e
}

// SameDay reports whether a and b fall on the same calendar day in b's
// location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CreatedOn returns the tasks created on day's calendar day.
func CreatedOn(tasks []focus.Task, day time.Time) []focus.Task {
	var out []focus.Task
	for _, t := range tasks {
		if !t.CreatedAt.IsZero() && SameDay(t.CreatedAt, day) {
			out = append(out, t)
		}
	}
	return out
}

// DayEnergy sums the energy of the tasks created on day, capped at
// MaxDayEnergy.
func DayEnergy(tasks []focus.Task, day time.Time) float64 {
	var sum float64
	for _, t := range CreatedOn(tasks, day) {
		sum += TaskEnergy(t)
	}
	return math.Min(sum, MaxDayEnergy)
}

// CalendarDay is one cell of the energy calendar.
type CalendarDay struct {
	Date    time.Time
	InMonth bool
	Tasks   int
	Energy  float64
	Heat    Heat
}

// calendarCells is six Monday-first weeks.
const calendarCells = 42

// Month lays out the energy calendar of month's month as six weeks starting
// on the Monday on or before the first.
func Month(tasks []focus.Task, month time.Time) []CalendarDay {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	start := first.AddDate(0, 0, -((int(first.Weekday()) + 6) % 7))

	days := make([]CalendarDay, calendarCells)
	for i := range days {
		d := start.AddDate(0, 0, i)
		e := DayEnergy(tasks, d)
		days[i] = CalendarDay{
			Date:    d,
			InMonth: d.Month() == first.Month(),
			Tasks:   len(CreatedOn(tasks, d)),
			Energy:  e,
			Heat:    HeatFor(e),
		}
	}
	return days
}
