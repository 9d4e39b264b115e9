// Package queue computes the derived view of queue items: job result
// categories, elapsed and remaining times, and progress bar segments.
package queue

import (
	"strings"

	"github.com/blankon/cidash/internal/entity"
)

// Job result categories that are not raw results.
const (
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultSkipped    = "skipped"
	ResultPaused     = "paused"
	ResultInProgress = "in progress"
	ResultQueued     = "queued"
	ResultWaiting    = "waiting"
)

// Bucket is the colour family a result category renders with.
type Bucket string

const (
	BucketSuccess Bucket = "success"
	BucketDanger  Bucket = "danger"
	BucketWarning Bucket = "warning"
	BucketInfo    Bucket = "info"
	BucketDefault Bucket = "default"
)

// Classify maps a job to its result category. The order of the checks
// matters: the result wins, then the missing url, then the paused flag.
func Classify(job entity.Job) string {
	if job.Result != nil && *job.Result != "" {
		return strings.ToLower(*job.Result)
	}
	if job.URL == nil || *job.URL == "" {
		if job.Queued != nil && !*job.Queued {
			return ResultWaiting
		}
		return ResultQueued
	}
	if job.Paused {
		return ResultPaused
	}
	return ResultInProgress
}

// BucketFor returns the colour bucket of a result category.
func BucketFor(category string) Bucket {
	switch category {
	case ResultSuccess:
		return BucketSuccess
	case ResultFailure, "timed_out", "timeout", "node_failure", "merge_conflict",
		"merge_failure", "config_error", "lost", "error", "aborted", "canceled":
		return BucketDanger
	case "post_failure", "retry_limit", "unstable", "disk_full":
		return BucketWarning
	case ResultPaused, ResultInProgress, ResultQueued, ResultWaiting:
		return BucketInfo
	}
	return BucketDefault
}

// IsFailing reports whether a job category will fail a voting job.
func IsFailing(category string) bool {
	bucket := BucketFor(category)
	return bucket == BucketDanger || bucket == BucketWarning
}
