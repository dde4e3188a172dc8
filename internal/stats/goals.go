package stats

import (
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
)

type GoalDay struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Met   bool      `json:"met"`
}

type GoalProgress struct {
	Metric  aggregate.Metric `json:"metric"`
	Goal    float64          `json:"goal"`
	Days    []GoalDay        `json:"days"`
	DaysMet int              `json:"daysMet"`
	// Share of days meeting the goal, 0..1; 0 when there are no days.
	Share  float64 `json:"share"`
	Streak int     `json:"streak"`
}

// NewGoalProgress marks every day meeting the goal (value >= goal).
func NewGoalProgress(days []aggregate.Day, m aggregate.Metric, goal float64) GoalProgress {
	gp := GoalProgress{
		Metric: m,
		Goal:   goal,
		Days:   make([]GoalDay, 0, len(days)),
	}
	for _, d := range days {
		v := d.Value(m)
		met := v >= goal
		if met {
			gp.DaysMet++
		}
		gp.Days = append(gp.Days, GoalDay{Date: d.Date, Value: v, Met: met})
	}
	if len(days) > 0 {
		gp.Share = float64(gp.DaysMet) / float64(len(days))
	}
	gp.Streak = ThresholdStreak(days, m, goal)
	return gp
}
