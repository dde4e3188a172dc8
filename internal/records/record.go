package records

import (
	"fmt"
	"time"
)

const (
	ActivityInactive = "Inactive"
	LocationUnknown  = "Unknown"
)

// Activity binds an activity name to the input column carrying its duration in ms.
type Activity struct {
	Name   string
	Column string
}

// Activities is the fixed declaration order used for labels and tie-breaks.
// Adding an activity is a matter of extending this list.
var Activities = []Activity{
	{Name: "Walking", Column: ColWalkingMs},
	{Name: "Cycling", Column: ColCyclingMs},
	{Name: "Paced Walking", Column: ColPacedWalkingMs},
	{Name: "Running", Column: ColRunningMs},
}

// ActivityNames returns the names of Activities, in declaration order.
func ActivityNames() []string {
	names := make([]string, 0, len(Activities))
	for _, a := range Activities {
		names = append(names, a.Name)
	}
	return names
}

type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
	Millis int `json:"millis"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour, t.Minute, t.Second, t.Millis)
}

// Record is one observation row. Pointer measures are nil when absent.
// Derived fields are filled once by Classify and Derive and never change afterwards.
type Record struct {
	Date       time.Time          `json:"date"`
	StartTime  *TimeOfDay         `json:"startTime,omitempty"`
	EndTime    *TimeOfDay         `json:"endTime,omitempty"`
	DurationMs map[string]float64 `json:"durationMs"`

	StepCount    *float64 `json:"stepCount,omitempty"`
	CaloriesKcal *float64 `json:"caloriesKcal,omitempty"`
	DistanceM    *float64 `json:"distanceM,omitempty"`
	HeartPoints  *float64 `json:"heartPoints,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	ActivityType         string  `json:"activityType"`
	PrimaryActivity      string  `json:"primaryActivity"`
	TotalExerciseMinutes float64 `json:"totalExerciseMinutes"`
	Location             string  `json:"location"`

	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	MonthName string     `json:"monthName"`
	DayOfWeek int        `json:"dayOfWeek"` // 0 = Monday
	DayName   string     `json:"dayName"`
	ISOWeek   int        `json:"isoWeek"`
	IsWeekend bool       `json:"isWeekend"`
}

func (r *Record) HasDate() bool {
	return !r.Date.IsZero()
}

func (r *Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Duration returns the duration in ms for the activity, and whether it was present.
func (r *Record) Duration(activity string) (float64, bool) {
	d, ok := r.DurationMs[activity]
	return d, ok
}

// DurationOrZero is Duration with absent treated as 0.
func (r *Record) DurationOrZero(activity string) float64 {
	return r.DurationMs[activity]
}

// HourOfDay is the start time hour; false when the start time is absent.
func (r *Record) HourOfDay() (int, bool) {
	if r.StartTime == nil {
		return 0, false
	}
	return r.StartTime.Hour, true
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (r *Record) Steps() float64 {
	return valueOrZero(r.StepCount)
}

func (r *Record) Calories() float64 {
	return valueOrZero(r.CaloriesKcal)
}

func (r *Record) Distance() float64 {
	return valueOrZero(r.DistanceM)
}

func (r *Record) Heart() float64 {
	return valueOrZero(r.HeartPoints)
}
