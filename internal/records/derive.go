package records

import "time"

const msPerMinute = 60000

// TotalExerciseMinutes sums all activity durations, absent as 0, in minutes.
func TotalExerciseMinutes(r *Record) float64 {
	total := 0.0
	for _, a := range Activities {
		total += r.DurationOrZero(a.Name)
	}
	return total / msPerMinute
}

// MondayIndex maps a weekday to 0 (Monday) .. 6 (Sunday).
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekdayNames are indexed by MondayIndex.
var WeekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Derive fills the exercise total and calendar fields of every record in place.
// Calendar fields stay zero for records without a date.
func Derive(recs []Record) {
	for i := range recs {
		r := &recs[i]
		r.TotalExerciseMinutes = TotalExerciseMinutes(r)
		if !r.HasDate() {
			continue
		}
		r.Year = r.Date.Year()
		r.Month = r.Date.Month()
		r.MonthName = r.Date.Month().String()
		r.DayOfWeek = MondayIndex(r.Date.Weekday())
		r.DayName = WeekdayNames[r.DayOfWeek]
		_, r.ISOWeek = r.Date.ISOWeek()
		r.IsWeekend = r.DayOfWeek >= 5
	}
}

// WeekOfYear is the Monday-start week number within the date's own year:
// days before the first Monday are week 0.
func WeekOfYear(d time.Time) int {
	yday := d.YearDay() - 1
	return (yday + 7 - MondayIndex(d.Weekday())) / 7
}
