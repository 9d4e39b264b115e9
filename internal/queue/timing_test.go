package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankon/cidash/internal/entity"
)

func TestJobTimingAt_Finished(t *testing.T) {
	job := entity.Job{Name: "a", StartTime: floatPtr(1000), EndTime: floatPtr(1100), EstimatedTime: floatPtr(500)}

	timing := JobTimingAt(job, time.Unix(5000, 0))
	require.NotNil(t, timing.Elapsed)
	assert.Equal(t, 100*time.Second, *timing.Elapsed)
	assert.Nil(t, timing.Remaining)
}

func TestJobTimingAt_Running(t *testing.T) {
	job := entity.Job{Name: "b", StartTime: floatPtr(1050), EstimatedTime: floatPtr(200)}

	timing := JobTimingAt(job, time.Unix(1150, 0))
	require.NotNil(t, timing.Elapsed)
	require.NotNil(t, timing.Remaining)
	assert.Equal(t, 100*time.Second, *timing.Elapsed)
	assert.Equal(t, 100*time.Second, *timing.Remaining)
	assert.Equal(t, int64(100000), *timing.RemainingMillis())
}

func TestJobTimingAt_NeverNegative(t *testing.T) {
	// Overran its estimate.
	job := entity.Job{Name: "slow", StartTime: floatPtr(1000), EstimatedTime: floatPtr(60)}
	timing := JobTimingAt(job, time.Unix(2000, 0))
	require.NotNil(t, timing.Remaining)
	assert.Equal(t, time.Duration(0), *timing.Remaining)

	// Clock skew: start reported in the future.
	timing = JobTimingAt(job, time.Unix(900, 0))
	require.NotNil(t, timing.Elapsed)
	assert.Equal(t, time.Duration(0), *timing.Elapsed)
	assert.Equal(t, 60*time.Second, *timing.Remaining)

	// End before start.
	job = entity.Job{Name: "odd", StartTime: floatPtr(1000), EndTime: floatPtr(990)}
	timing = JobTimingAt(job, time.Unix(2000, 0))
	assert.Equal(t, time.Duration(0), *timing.Elapsed)
}

func TestJobTimingAt_NotStarted(t *testing.T) {
	timing := JobTimingAt(entity.Job{Name: "c", Queued: boolPtr(true), EstimatedTime: floatPtr(30)}, time.Unix(1, 0))
	assert.Nil(t, timing.Elapsed)
	assert.Nil(t, timing.Remaining)
}

func TestItemTimingAt_NoRunningEstimate(t *testing.T) {
	item := entity.QueueItem{Jobs: []entity.Job{
		{Name: "finished", StartTime: floatPtr(10), EndTime: floatPtr(20), Result: strPtr("SUCCESS")},
		{Name: "running-no-estimate", StartTime: floatPtr(15)},
		{Name: "finished-with-estimate", StartTime: floatPtr(10), EndTime: floatPtr(30), EstimatedTime: floatPtr(40)},
	}}

	for _, policy := range []RemainingPolicy{Strict, Computable} {
		timing := ItemTimingAt(item, time.Unix(100, 0), policy)
		assert.Nil(t, timing.Remaining, policy.String())
	}
}

func TestItemTimingAt_MaxRemaining(t *testing.T) {
	item := entity.QueueItem{Jobs: []entity.Job{
		{Name: "a", StartTime: floatPtr(100), EstimatedTime: floatPtr(60)},
		{Name: "b", StartTime: floatPtr(100), EstimatedTime: floatPtr(300)},
		{Name: "c", StartTime: floatPtr(50), EndTime: floatPtr(90), Result: strPtr("SUCCESS")},
		{Name: "d", Result: strPtr("SKIPPED")},
	}}

	timing := ItemTimingAt(item, time.Unix(160, 0), Strict)
	require.NotNil(t, timing.Remaining)
	assert.Equal(t, 240*time.Second, *timing.Remaining)
	assert.Len(t, timing.Jobs, 4)
}

func scenarioItem() entity.QueueItem {
	return entity.QueueItem{Jobs: []entity.Job{
		{Name: "A", StartTime: floatPtr(1000), EndTime: floatPtr(1100), Result: strPtr("SUCCESS")},
		{Name: "B", StartTime: floatPtr(1050), EstimatedTime: floatPtr(200), URL: strPtr("stream/b")},
		{Name: "C", Queued: boolPtr(true)},
	}}
}

func TestItemTimingAt_ScenarioStrict(t *testing.T) {
	timing := ItemTimingAt(scenarioItem(), time.Unix(1150, 0), Strict)

	a := timing.Jobs["A"]
	require.NotNil(t, a.Elapsed)
	assert.Equal(t, 100*time.Second, *a.Elapsed)
	assert.Nil(t, a.Remaining)

	b := timing.Jobs["B"]
	require.NotNil(t, b.Elapsed)
	require.NotNil(t, b.Remaining)
	assert.Equal(t, 100*time.Second, *b.Elapsed)
	assert.Equal(t, 100*time.Second, *b.Remaining)

	c := timing.Jobs["C"]
	assert.Nil(t, c.Elapsed)
	assert.Nil(t, c.Remaining)

	assert.Nil(t, timing.Remaining)
	assert.Nil(t, timing.RemainingMillis())
}

func TestItemTimingAt_ScenarioComputable(t *testing.T) {
	timing := ItemTimingAt(scenarioItem(), time.Unix(1150, 0), Computable)
	require.NotNil(t, timing.Remaining)
	assert.Equal(t, 100*time.Second, *timing.Remaining)
}

func TestCalculator_UsesClock(t *testing.T) {
	calc := NewCalculator(Computable)
	calc.Now = func() time.Time { return time.Unix(1150, 0) }

	timing := calc.Item(scenarioItem())
	require.NotNil(t, timing.Remaining)
	assert.Equal(t, int64(100000), *timing.RemainingMillis())
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, Computable, ParsePolicy("computable"))
	assert.Equal(t, Strict, ParsePolicy("strict"))
	assert.Equal(t, Strict, ParsePolicy(""))
}
