package queue

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankon/cidash/internal/entity"
)

func TestBar_SkipsSkippedJobs(t *testing.T) {
	jobs := []entity.Job{
		{Name: "lint", Result: strPtr("SUCCESS")},
		{Name: "docs", Result: strPtr("SKIPPED")},
		{Name: "unit", URL: strPtr("stream/u")},
		{Name: "integration", Queued: boolPtr(false)},
	}

	segments := Bar(jobs)
	require.Len(t, segments, 3)
	assert.Equal(t, "lint", segments[0].Job)
	assert.Equal(t, BucketSuccess, segments[0].Bucket)
	assert.Equal(t, "unit", segments[1].Job)
	assert.Equal(t, ResultInProgress, segments[1].Category)
	assert.Equal(t, ResultWaiting, segments[2].Category)
	assert.Equal(t, 10000, TotalWidth(segments))
	assert.Equal(t, "33.34%", segments[0].Percent())
	assert.Equal(t, "33.33%", segments[2].Percent())
}

func TestBar_WidthsAlwaysSumToFull(t *testing.T) {
	for n := 1; n <= 40; n++ {
		jobs := make([]entity.Job, n)
		for i := range jobs {
			jobs[i] = entity.Job{Name: strings.Repeat("j", i+1), Result: strPtr("SUCCESS")}
		}
		segments := Bar(jobs)
		assert.Len(t, segments, n)
		assert.Equal(t, 10000, TotalWidth(segments), "jobs=%d", n)
	}
}

func TestBar_AllSkipped(t *testing.T) {
	segments := Bar([]entity.Job{{Name: "a", Result: strPtr("SKIPPED")}})
	assert.Empty(t, segments)
	assert.Equal(t, "[    ]", RenderText(segments, 4))
}

func TestRenderText(t *testing.T) {
	segments := Bar([]entity.Job{
		{Name: "a", Result: strPtr("SUCCESS")},
		{Name: "b", Result: strPtr("FAILURE")},
		{Name: "c", Result: strPtr("POST_FAILURE")},
	})
	assert.Equal(t, "[====XXX!!!]", RenderText(segments, 10))
	assert.Equal(t, "", RenderText(segments, 0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m 5s", FormatDuration(185*time.Second))
	assert.Equal(t, "2h 1m", FormatDuration(121*time.Minute))
	assert.Equal(t, "1d 2h", FormatDuration(26*time.Hour))
	assert.Equal(t, "unknown", FormatOptional(nil))
}

func TestBuildView(t *testing.T) {
	id := "1234,5"
	enqueued := float64(time.Unix(1000, 0).UnixMilli())
	status := entity.Status{Pipelines: []entity.Pipeline{{
		Name: "check",
		ChangeQueues: []entity.ChangeQueue{{
			Name:  "org/project",
			Heads: [][]entity.QueueItem{{{ID: &id, Project: "org/project", EnqueueTime: &enqueued, Jobs: scenarioItem().Jobs}}},
		}},
	}}}

	views := BuildView(status, time.Unix(1150, 0), Computable)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].ItemCount)
	require.Len(t, views[0].Queues, 1)
	require.Len(t, views[0].Queues[0].Items, 1)

	item := views[0].Queues[0].Items[0]
	assert.Equal(t, "1234,5", item.Item.Title())
	assert.Len(t, item.Segments, 3)
	assert.Equal(t, "2 minutes ago", item.Enqueued)
	require.Len(t, item.Jobs, 3)
	assert.Equal(t, ResultQueued, item.Jobs[2].Category)
	require.NotNil(t, item.Timing.Remaining)
}
