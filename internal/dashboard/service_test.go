package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/dataset"
	"github.com/2beens/fitdash/internal/filter"
	"github.com/2beens/fitdash/internal/records"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkingDay(date time.Time, steps float64) records.Record {
	walkMs := 30 * 60000.0
	rec := records.Record{
		Date:       date,
		DurationMs: map[string]float64{"Walking": walkMs},
		StepCount:  &steps,
		Location:   records.LocationUnknown,
	}
	return rec
}

func twoWeeksDataset() *dataset.Dataset {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var recs []records.Record
	for i := 0; i < 14; i++ {
		steps := 1000.0
		if i >= 7 {
			steps = 1500
		}
		recs = append(recs, walkingDay(start.AddDate(0, 0, i), steps))
	}
	records.Classify(recs)
	records.Derive(recs)
	return &dataset.Dataset{ID: uuid.New(), Records: recs}
}

func TestService_Dashboard_WeekComparison(t *testing.T) {
	ds := twoWeeksDataset()
	service := NewService(nil, nil, Goals{Steps: 1200, HeartPoints: 5})
	service.now = func() time.Time { return time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC) }

	view, err := service.Dashboard(context.Background(), ds, filter.State{Activities: []string{"Walking"}})
	require.NoError(t, err)
	assert.Equal(t, 14, view.Records)
	assert.Len(t, view.Daily, 14)

	require.Len(t, view.WeekComparisons, 5)
	steps := view.WeekComparisons[0]
	assert.Equal(t, aggregate.MetricSteps, steps.Metric)
	require.False(t, steps.Insufficient)
	require.NotNil(t, steps.Comparison)
	assert.Equal(t, 10500.0, steps.Comparison.Current)
	assert.Equal(t, 7000.0, steps.Comparison.Previous)
	assert.InDelta(t, 50.0, steps.Comparison.ChangePct, 1e-9)

	// no heart points recorded at all
	hp := view.WeekComparisons[3]
	assert.Equal(t, aggregate.MetricHeartPoints, hp.Metric)
	assert.True(t, hp.Insufficient)

	assert.Equal(t, 7, view.Goals[0].DaysMet)
	assert.Equal(t, 7, view.Goals[0].Streak)
	assert.Equal(t, 14, view.Streaks.Current)
	assert.Equal(t, 14, view.Streaks.Longest)
	assert.InDelta(t, 7.0, view.Timeshare.ActiveHours, 1e-9)
	assert.InDelta(t, 14*24-7.0, view.Timeshare.InactiveHours, 1e-9)
}

func TestService_Dashboard_InvalidRange(t *testing.T) {
	service := NewService(nil, nil, Goals{})
	_, err := service.Dashboard(context.Background(), twoWeeksDataset(), filter.State{
		From: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, filter.ErrInvalidRange)
}

func TestService_Dashboard_NoRecords(t *testing.T) {
	service := NewService(nil, nil, Goals{Steps: 1})
	view, err := service.Dashboard(context.Background(), &dataset.Dataset{ID: uuid.New()}, filter.State{})
	require.NoError(t, err)
	assert.Zero(t, view.Records)
	assert.Empty(t, view.Daily)
	assert.Empty(t, view.PersonalRecords)
	for _, wc := range view.WeekComparisons {
		assert.True(t, wc.Insufficient)
	}
}

func TestService_Calendar_OnlyCountsItsYear(t *testing.T) {
	service := NewService(nil, nil, Goals{})
	heatmap := service.Calendar(twoWeeksDataset(), 2024, aggregate.MetricSteps)
	total := 0.0
	for _, d := range heatmap.Days {
		total += d.Value
	}
	assert.Equal(t, 7*1000.0+7*1500.0, total)

	empty := service.Calendar(twoWeeksDataset(), 2023, aggregate.MetricSteps)
	for _, d := range empty.Days {
		assert.Zero(t, d.Value)
	}
}

func TestService_Dashboard_TimeshareUsesRecordedSpan(t *testing.T) {
	ds := twoWeeksDataset()
	service := NewService(nil, nil, Goals{Steps: 1200, HeartPoints: 5})

	// two months selected, two weeks recorded
	view, err := service.Dashboard(context.Background(), ds, filter.State{
		From:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Activities: []string{"Walking"},
	})
	require.NoError(t, err)
	assert.Equal(t, 14, view.Records)
	assert.Len(t, view.Daily, 61)
	assert.InDelta(t, 7.0, view.Timeshare.ActiveHours, 1e-9)
	assert.InDelta(t, 14*24-7.0, view.Timeshare.InactiveHours, 1e-9)
}
