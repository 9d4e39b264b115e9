package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blankon/cidash/internal/entity"
)

func TestClassify_Precedence(t *testing.T) {
	results := []*string{nil, strPtr("FAILURE"), strPtr("Success")}
	urls := []*string{nil, strPtr("stream/abc")}
	queuedValues := []*bool{nil, boolPtr(true), boolPtr(false)}

	for _, result := range results {
		for _, url := range urls {
			for _, paused := range []bool{false, true} {
				for _, queued := range queuedValues {
					job := entity.Job{Name: "job", Result: result, URL: url, Paused: paused, Queued: queued}

					var want string
					switch {
					case result != nil && *result == "FAILURE":
						want = "failure"
					case result != nil:
						want = "success"
					case url == nil && queued != nil && !*queued:
						want = ResultWaiting
					case url == nil:
						want = ResultQueued
					case paused:
						want = ResultPaused
					default:
						want = ResultInProgress
					}

					name := fmt.Sprintf("result=%v url=%v paused=%v queued=%v", deref(result), deref(url), paused, queued)
					assert.Equal(t, want, Classify(job), name)
				}
			}
		}
	}
}

func TestClassify_Examples(t *testing.T) {
	assert.Equal(t, ResultWaiting, Classify(entity.Job{Queued: boolPtr(false)}))
	assert.Equal(t, ResultQueued, Classify(entity.Job{Queued: boolPtr(true)}))
	assert.Equal(t, "failure", Classify(entity.Job{
		Result: strPtr("FAILURE"),
		URL:    strPtr("stream/x"),
		Paused: true,
		Queued: boolPtr(false),
	}))
	assert.Equal(t, "node_failure", Classify(entity.Job{Result: strPtr("NODE_FAILURE")}))
	assert.Equal(t, ResultQueued, Classify(entity.Job{Result: strPtr("")}))
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		category string
		want     Bucket
	}{
		{"success", BucketSuccess},
		{"failure", BucketDanger},
		{"timed_out", BucketDanger},
		{"merge_conflict", BucketDanger},
		{"post_failure", BucketWarning},
		{"retry_limit", BucketWarning},
		{"paused", BucketInfo},
		{"in progress", BucketInfo},
		{"waiting", BucketInfo},
		{"skipped", BucketDefault},
		{"something_new", BucketDefault},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketFor(tt.category))
		})
	}
	assert.True(t, IsFailing("retry_limit"))
	assert.False(t, IsFailing("success"))
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
