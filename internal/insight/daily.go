package insight

import (
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

// Mood is the tone of the daily analysis.
type Mood int

const (
	MoodStart Mood = iota
	MoodPraise
	MoodProgress
	MoodEffort
	MoodNudge
)

// Message is the headline shown for the mood.
func (m Mood) Message() string {
	switch m {
	case MoodPraise:
		return "Great work! You are on fire today."
	case MoodProgress:
		return "Good progress. Keep going!"
	case MoodEffort:
		return "There is work left. Don't give up!"
	case MoodNudge:
		return "Time to get going. Start small!"
	}
	return "Start your productive day!"
}

// MoodFor picks the mood from today's done and open task counts.
func MoodFor(completed, pending int) Mood {
	switch {
	case completed == 0 && pending == 0:
		return MoodStart
	case completed >= pending*2:
		return MoodPraise
	case completed > pending:
		return MoodProgress
	case completed > 0:
		return MoodEffort
	}
	return MoodNudge
}

var (
	startTips = []string{
		"Start with the easiest task. Five minutes of work beats none.",
		"Use the two-minute rule: if it takes less than two minutes, do it now.",
		"Break a big task into small steps.",
	}
	catchUpTips = []string{
		"Finish what you started before taking on new tasks.",
		"Use focus sessions to concentrate.",
		"Find the most important tasks and do them first.",
	}
	aheadTips = []string{
		"Plan the next tasks around your own pace.",
		"Take breaks to stay productive.",
		"Review your goals and progress regularly.",
	}
)

// TipsFor returns the productivity tips for today's counts.
func TipsFor(completed, pending int) []string {
	switch {
	case completed == 0:
		return startTips
	case pending > completed:
		return catchUpTips
	}
	return aheadTips
}

// Daily is the analysis of the tasks created today.
type Daily struct {
	Total     int
	Completed int
	Pending   int
	Mood      Mood
	Tips      []string
}

// AnalyzeDay looks at the tasks created on now's calendar day.
func AnalyzeDay(tasks []focus.Task, now time.Time) Daily {
	var d Daily
	for _, t := range CreatedOn(tasks, now) {
		d.Total++
		if t.Done() {
			d.Completed++
		} else {
			d.Pending++
		}
	}
	d.Mood = MoodFor(d.Completed, d.Pending)
	d.Tips = TipsFor(d.Completed, d.Pending)
	return d
}
