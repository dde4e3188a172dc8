package aggregate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fitdash/internal/aggregate"
	"github.com/2beens/fitdash/internal/records"
)

func activityRecord(date time.Time, durations map[string]float64, heart float64) records.Record {
	r := records.Record{Date: date, DurationMs: durations, HeartPoints: ptr(heart)}
	return r
}

func TestNewOverview(t *testing.T) {
	recs := []records.Record{
		{Date: day(2024, 3, 4), StepCount: ptr(100), DistanceM: ptr(500), CaloriesKcal: ptr(10), HeartPoints: ptr(1)},
		{Date: day(2024, 3, 4), StepCount: ptr(150), DistanceM: ptr(500), CaloriesKcal: ptr(20)},
		{Date: day(2024, 3, 5), StepCount: ptr(400), DistanceM: ptr(1000), CaloriesKcal: ptr(30), HeartPoints: ptr(3),
			DurationMs: map[string]float64{"Running": 1200000}},
	}
	records.Derive(recs)

	o := aggregate.NewOverview(aggregate.Daily(recs))
	assert.Equal(t, 2, o.Days)
	assert.Equal(t, 325.0, o.AvgDailySteps)
	assert.Equal(t, 30.0, o.AvgDailyCalories)
	assert.Equal(t, 10.0, o.AvgDailyExerciseMinutes)
	assert.Equal(t, 2.0, o.AvgDailyHeartPoints)
	assert.Equal(t, 650.0, o.TotalSteps)
	assert.Equal(t, 2.0, o.TotalDistanceKm)
	assert.Equal(t, 60.0, o.TotalCalories)
	assert.Equal(t, 4.0, o.TotalHeartPoints)
	assert.Equal(t, 20.0, o.TotalExerciseMinutes)

	empty := aggregate.NewOverview(nil)
	assert.Zero(t, empty.Days)
	assert.Zero(t, empty.AvgDailySteps)
}

func TestNewTimeshare(t *testing.T) {
	recs := []records.Record{
		{Date: day(2024, 3, 4), DurationMs: map[string]float64{"Walking": 3600000}},
		{Date: day(2024, 3, 5), DurationMs: map[string]float64{"Cycling": 1800000}},
	}
	records.Derive(recs)

	ts := aggregate.NewTimeshare(recs)
	assert.InDelta(t, 1.5, ts.ActiveHours, 1e-9)
	assert.InDelta(t, 46.5, ts.InactiveHours, 1e-9)

	// no dated records: no inactive time to speak of
	ts = aggregate.NewTimeshare([]records.Record{{TotalExerciseMinutes: 30}})
	assert.InDelta(t, 0.5, ts.ActiveHours, 1e-9)
	assert.Zero(t, ts.InactiveHours)

	huge := []records.Record{{Date: day(2024, 3, 4), TotalExerciseMinutes: 60 * 30}}
	ts = aggregate.NewTimeshare(huge)
	assert.Equal(t, 30.0, ts.ActiveHours)
	assert.Zero(t, ts.InactiveHours)
}

func TestHeartPointsByExercise(t *testing.T) {
	recs := []records.Record{
		activityRecord(day(2024, 3, 4), map[string]float64{"Walking": 300000, "Running": 900000}, 8),
		activityRecord(day(2024, 3, 4), map[string]float64{"Running": 600000}, 4),
		activityRecord(day(2024, 3, 3), nil, 2),
		activityRecord(day(2024, 3, 5), map[string]float64{"Cycling": 60000}, 0),
	}

	out := aggregate.HeartPointsByExercise(recs)
	// the 2 heart points of the day without any exercise are left out
	require.Len(t, out, 2)
	assert.Equal(t, day(2024, 3, 4), out[0].Date)
	assert.Equal(t, "Walking", out[0].Activity)
	assert.InDelta(t, 2.0, out[0].Value, 1e-9)
	assert.Equal(t, "Running", out[1].Activity)
	assert.InDelta(t, 10.0, out[1].Value, 1e-9)
	for _, v := range out {
		assert.NotEqual(t, "Inactive", v.Activity)
	}

	total := 0.0
	for _, v := range out {
		total += v.Value
	}
	assert.InDelta(t, 12.0, total, 1e-9)
}

func TestExerciseMinutesByType_AndDistribution(t *testing.T) {
	recs := []records.Record{
		activityRecord(day(2024, 3, 4), map[string]float64{"Walking": 600000, "Running": 1200000}, 0),
		activityRecord(day(2024, 3, 4), map[string]float64{"Walking": 600000}, 0),
		activityRecord(day(2024, 3, 5), map[string]float64{"Paced Walking": 1800000}, 0),
	}

	byType := aggregate.ExerciseMinutesByType(recs)
	require.Len(t, byType, 3)
	assert.Equal(t, aggregate.ActivityDayValue{Date: day(2024, 3, 4), Activity: "Walking", Value: 20}, byType[0])
	assert.Equal(t, aggregate.ActivityDayValue{Date: day(2024, 3, 4), Activity: "Running", Value: 20}, byType[1])
	assert.Equal(t, aggregate.ActivityDayValue{Date: day(2024, 3, 5), Activity: "Paced Walking", Value: 30}, byType[2])

	dist := aggregate.ActivityDistribution(recs)
	require.Len(t, dist, 3)
	assert.Equal(t, "Walking", dist[0].Activity)
	assert.Equal(t, 20.0, dist[0].Minutes)
	assert.InDelta(t, 20.0/70.0, dist[0].Share, 1e-9)
	assert.Equal(t, "Paced Walking", dist[1].Activity)
	assert.Equal(t, "Running", dist[2].Activity)

	assert.Empty(t, aggregate.ActivityDistribution(nil))
}

func TestCalorieChanges(t *testing.T) {
	days := []aggregate.Day{
		{Date: day(2024, 3, 4), Calories: 2000},
		{Date: day(2024, 3, 5), Calories: 2300},
		{Date: day(2024, 3, 6), Calories: 1900},
	}
	steps := aggregate.CalorieChanges(days)
	require.Len(t, steps, 3)
	assert.True(t, steps[0].Absolute)
	assert.Equal(t, 2000.0, steps[0].Delta)
	assert.False(t, steps[1].Absolute)
	assert.Equal(t, 300.0, steps[1].Delta)
	assert.Equal(t, -400.0, steps[2].Delta)
	assert.Equal(t, 1900.0, steps[2].Total)

	assert.Empty(t, aggregate.CalorieChanges(nil))
}

func TestCompareWeeks(t *testing.T) {
	var days []aggregate.Day
	for i := 0; i < 14; i++ {
		steps := 1000.0
		if i >= 7 {
			steps = 1500
		}
		days = append(days, aggregate.Day{Date: day(2024, 3, 1).AddDate(0, 0, i), Steps: steps})
	}

	wc, err := aggregate.CompareWeeks(days, time.Time{}, aggregate.MetricSteps)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 14), wc.CurrentTo)
	assert.Equal(t, day(2024, 3, 8), wc.CurrentFrom)
	assert.Equal(t, day(2024, 3, 1), wc.PreviousFrom)
	assert.Equal(t, 10500.0, wc.Current)
	assert.Equal(t, 7000.0, wc.Previous)
	assert.Equal(t, 3500.0, wc.Change)
	assert.Equal(t, 50.0, wc.ChangePct)
}

func TestCompareWeeks_InsufficientData(t *testing.T) {
	_, err := aggregate.CompareWeeks(nil, time.Time{}, aggregate.MetricSteps)
	assert.True(t, errors.Is(err, aggregate.ErrInsufficientData))

	// single day range: no baseline week at all
	single := []aggregate.Day{{Date: day(2024, 3, 4), Steps: 5000}}
	_, err = aggregate.CompareWeeks(single, time.Time{}, aggregate.MetricSteps)
	assert.True(t, errors.Is(err, aggregate.ErrInsufficientData))

	zeroBaseline := []aggregate.Day{
		{Date: day(2024, 3, 1), Steps: 5000},
		{Date: day(2024, 3, 8), Steps: 5000},
	}
	_, err = aggregate.CompareWeeks(zeroBaseline, time.Time{}, aggregate.MetricHeartPoints)
	assert.True(t, errors.Is(err, aggregate.ErrInsufficientData))
}

func TestLocationBreakdown(t *testing.T) {
	recs := []records.Record{
		{Location: "Berlin, Germany", TotalExerciseMinutes: 10, CaloriesKcal: ptr(100), Latitude: ptr(52.50), Longitude: ptr(13.40)},
		{Location: "Berlin, Germany", TotalExerciseMinutes: 20, CaloriesKcal: ptr(50), Latitude: ptr(52.52), Longitude: ptr(13.42)},
		{Location: "Paris, France", TotalExerciseMinutes: 40, Latitude: ptr(48.85), Longitude: ptr(2.35)},
		{Location: records.LocationUnknown, TotalExerciseMinutes: 30},
		{TotalExerciseMinutes: 0},
	}

	out := aggregate.LocationBreakdown(recs)
	require.Len(t, out, 3)
	assert.Equal(t, "Paris, France", out[0].Location)
	assert.Equal(t, "Berlin, Germany", out[1].Location)
	assert.Equal(t, records.LocationUnknown, out[2].Location)

	berlin := out[1]
	assert.Equal(t, 30.0, berlin.ExerciseMinutes)
	assert.Equal(t, 150.0, berlin.Calories)
	assert.Equal(t, 2, berlin.Records)
	assert.Equal(t, 2, berlin.Points)
	require.NotNil(t, berlin.Centroid)
	assert.InDelta(t, 13.41, berlin.Centroid.Lon(), 1e-9)
	assert.InDelta(t, 52.51, berlin.Centroid.Lat(), 1e-9)
	require.NotNil(t, berlin.Bound)
	assert.InDelta(t, 52.50, berlin.Bound.Min.Lat(), 1e-9)
	assert.InDelta(t, 13.42, berlin.Bound.Max.Lon(), 1e-9)
	// the points are ~2.6 km apart, the centroid sits halfway
	assert.InDelta(t, 1320, berlin.RadiusM, 150)

	paris := out[0]
	assert.Equal(t, 1, paris.Points)
	assert.Zero(t, paris.RadiusM)

	unknown := out[2]
	assert.Equal(t, 2, unknown.Records)
	assert.Nil(t, unknown.Centroid)
}
