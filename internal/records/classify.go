package records

import "strings"

// ActivityType lists every activity with a present, strictly positive duration,
// joined with ", " in declaration order, or "Inactive" when there is none.
func ActivityType(r *Record) string {
	var active []string
	for _, a := range Activities {
		if d, ok := r.Duration(a.Name); ok && d > 0 {
			active = append(active, a.Name)
		}
	}
	if len(active) == 0 {
		return ActivityInactive
	}
	return strings.Join(active, ", ")
}

// PrimaryActivity is the activity with the largest duration (absent as 0).
// Ties go to the first one in declaration order; a zero maximum means "Inactive".
func PrimaryActivity(r *Record) string {
	primary := ActivityInactive
	maxDuration := 0.0
	for _, a := range Activities {
		// strict comparison keeps the earlier activity on ties
		if d := r.DurationOrZero(a.Name); d > maxDuration {
			maxDuration = d
			primary = a.Name
		}
	}
	return primary
}

// Classify fills the activity labels of every record in place.
func Classify(recs []Record) {
	for i := range recs {
		recs[i].ActivityType = ActivityType(&recs[i])
		recs[i].PrimaryActivity = PrimaryActivity(&recs[i])
	}
}

// SplitActivityType reverses the ", " join of an activity label.
func SplitActivityType(label string) []string {
	return strings.Split(label, ", ")
}
