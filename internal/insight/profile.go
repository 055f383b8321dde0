package insight

import (
	"math"
	"time"

	"github.com/sadopc/levelup/internal/focus"
)

// Tier is the productivity level earned by the completion rate.
type Tier int

const (
	TierBeginner Tier = iota
	TierGrowing
	TierSteady
	TierPro
	TierMaster
)

func (t Tier) String() string {
	switch t {
	case TierMaster:
		return "Master"
	case TierPro:
		return "Pro"
	case TierSteady:
		return "Steady"
	case TierGrowing:
		return "Growing"
	}
	return "Beginner"
}

// Blurb is the one-line description shown under the tier.
func (t Tier) Blurb() string {
	switch t {
	case TierMaster:
		return "You are at the top of your game."
	case TierPro:
		return "Great results."
	case TierSteady:
		return "A good working pace."
	case TierGrowing:
		return "Keep it up."
	}
	return "Time to pick up speed."
}

// TierFor maps a completion rate in percent to a tier.
func TierFor(rate int) Tier {
	switch {
	case rate >= 80:
		return TierMaster
	case rate >= 60:
		return TierPro
	case rate >= 40:
		return TierSteady
	case rate >= 20:
		return TierGrowing
	}
	return TierBeginner
}

// Activity buckets the number of tasks created on a day.
type Activity int

const (
	ActivityNone Activity = iota
	ActivityLight
	ActivityBusy
	ActivityHeavy
)

func ActivityFor(tasks int) Activity {
	switch {
	case tasks == 0:
		return ActivityNone
	case tasks <= 2:
		return ActivityLight
	case tasks <= 4:
		return ActivityBusy
	}
	return ActivityHeavy
}

// DayActivity counts the tasks created on one day.
type DayActivity struct {
	Date  time.Time
	Tasks int
}

// Achievement goals.
const (
	TaskMasterGoal = 10 // tasks done
	WorkhorseGoal  = 5  // estimated hours
)

// Profile summarizes the whole task list.
type Profile struct {
	Total          int
	Completed      int
	CompletionRate int // percent, rounded
	WorkHours      int // estimated, rounded
	Tier           Tier
	Week           []DayActivity // oldest first, ending today
}

// TaskMaster reports whether enough tasks are done for the badge.
func (p Profile) TaskMaster() bool { return p.Completed >= TaskMasterGoal }

// Workhorse reports whether enough hours are planned for the badge.
func (p Profile) Workhorse() bool { return p.WorkHours >= WorkhorseGoal }

// BuildProfile summarizes tasks as of now.
func BuildProfile(tasks []focus.Task, now time.Time) Profile {
	p := Profile{Total: len(tasks)}
	var minutes int
	for _, t := range tasks {
		if t.Done() {
			p.Completed++
		}
		minutes += t.EstimatedMinutes
	}
	if p.Total > 0 {
		p.CompletionRate = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	p.WorkHours = int(math.Round(float64(minutes) / 60))
	p.Tier = TierFor(p.CompletionRate)

	for i := 6; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		p.Week = append(p.Week, DayActivity{Date: d, Tasks: len(CreatedOn(tasks, d))})
	}
	return p
}
