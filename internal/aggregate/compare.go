package aggregate

import (
	"fmt"
	"time"
)

type WeekComparison struct {
	Metric       Metric    `json:"metric"`
	CurrentFrom  time.Time `json:"currentFrom"`
	CurrentTo    time.Time `json:"currentTo"`
	PreviousFrom time.Time `json:"previousFrom"`
	PreviousTo   time.Time `json:"previousTo"`
	Current      float64   `json:"current"`
	Previous     float64   `json:"previous"`
	Change       float64   `json:"change"`
	ChangePct    float64   `json:"changePct"`
}

// CompareWeeks sums the metric over the 7 days ending at end and over the 7
// days before that. A zero end means the last day in days. An empty or
// all-zero baseline week gives ErrInsufficientData instead of a ratio.
func CompareWeeks(days []Day, end time.Time, m Metric) (*WeekComparison, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no days", ErrInsufficientData)
	}
	if end.IsZero() {
		end = days[len(days)-1].Date
		for _, d := range days {
			if d.Date.After(end) {
				end = d.Date
			}
		}
	}
	end = truncateDay(end)

	wc := &WeekComparison{
		Metric:       m,
		CurrentTo:    end,
		CurrentFrom:  end.AddDate(0, 0, -6),
		PreviousTo:   end.AddDate(0, 0, -7),
		PreviousFrom: end.AddDate(0, 0, -13),
	}

	baselineDays := 0
	for _, d := range days {
		switch {
		case within(d.Date, wc.CurrentFrom, wc.CurrentTo):
			wc.Current += d.Value(m)
		case within(d.Date, wc.PreviousFrom, wc.PreviousTo):
			wc.Previous += d.Value(m)
			baselineDays++
		}
	}

	if baselineDays == 0 {
		return nil, fmt.Errorf("%w: no %s recorded between %s and %s", ErrInsufficientData,
			m, wc.PreviousFrom.Format(dateLayout), wc.PreviousTo.Format(dateLayout))
	}
	if wc.Previous == 0 {
		return nil, fmt.Errorf("%w: %s baseline week sums to zero", ErrInsufficientData, m)
	}

	wc.Change = wc.Current - wc.Previous
	wc.ChangePct = wc.Change / wc.Previous * 100
	return wc, nil
}

func within(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}
