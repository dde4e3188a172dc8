package records

// Column names of the fitness export. The header must carry all of them.
const (
	ColDate           = "Date"
	ColStartTime      = "Start time"
	ColEndTime        = "End time"
	ColWalkingMs      = "Walking duration (ms)"
	ColCyclingMs      = "Cycling duration (ms)"
	ColPacedWalkingMs = "Paced walking duration (ms)"
	ColRunningMs      = "Running duration (ms)"
	ColStepCount      = "Step count"
	ColCalories       = "Calories (kcal)"
	ColDistance       = "Distance (m)"
	ColHeartPoints    = "Heart Points"
	ColLatitude       = "Low latitude (deg)"
	ColLongitude      = "Low longitude (deg)"
)

func RequiredColumns() []string {
	cols := []string{ColDate, ColStartTime, ColEndTime}
	for _, a := range Activities {
		cols = append(cols, a.Column)
	}
	return append(cols,
		ColStepCount,
		ColCalories,
		ColDistance,
		ColHeartPoints,
		ColLatitude,
		ColLongitude,
	)
}

// DateLayouts are tried in order. Day-first only; day and month may be
// written with or without a leading zero. Two-digit years follow the time
// package convention (69-99 -> 19xx, 00-68 -> 20xx).
var DateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2006-01-02",
	"2-1-2006",
	"2.1.2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/06 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// TimeOfDayLayouts accept an optional fractional seconds part after the
// seconds field, e.g. 07:15:00.000+01:00.
var TimeOfDayLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05",
	"15:04",
}
