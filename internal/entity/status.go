package entity

import (
	"math"
	"time"
)

// Status is the document served by the status endpoint.
type Status struct {
	ZuulVersion          string     `json:"zuul_version"`
	LastReconfigured     float64    `json:"last_reconfigured"`
	TriggerEventQueue    *QueueSize `json:"trigger_event_queue,omitempty"`
	ManagementEventQueue *QueueSize `json:"management_event_queue,omitempty"`
	ResultEventQueue     *QueueSize `json:"result_event_queue,omitempty"`
	Pipelines            []Pipeline `json:"pipelines" validate:"dive"`
}

type QueueSize struct {
	Length int `json:"length"`
}

type Pipeline struct {
	Name         string        `json:"name" validate:"required"`
	Description  string        `json:"description"`
	Trigger      string        `json:"trigger,omitempty"`
	ChangeQueues []ChangeQueue `json:"change_queues" validate:"dive"`
}

// ChangeQueue groups queue items into heads. Each head is an ordered run of
// items sharing dependencies.
type ChangeQueue struct {
	Name   string        `json:"name"`
	Window int           `json:"window"`
	Heads  [][]QueueItem `json:"heads"`
}

// Items flattens the queue heads in display order.
func (q ChangeQueue) Items() []QueueItem {
	var items []QueueItem
	for _, head := range q.Heads {
		items = append(items, head...)
	}
	return items
}

// ItemCount returns the number of queue items across all change queues.
func (p Pipeline) ItemCount() int {
	count := 0
	for _, queue := range p.ChangeQueues {
		for _, head := range queue.Heads {
			count += len(head)
		}
	}
	return count
}

// QueueItem is a change progressing through a pipeline.
type QueueItem struct {
	ID             *string  `json:"id"`
	Project        string   `json:"project"`
	URL            *string  `json:"url"`
	Owner          *string  `json:"owner,omitempty"`
	Live           bool     `json:"live"`
	Active         bool     `json:"active"`
	EnqueueTime    *float64 `json:"enqueue_time"`
	RemainingTime  *float64 `json:"remaining_time"`
	FailingReasons []string `json:"failing_reasons"`
	ZuulRef        string   `json:"zuul_ref"`
	ItemAhead      *string  `json:"item_ahead"`
	ItemsBehind    []string `json:"items_behind"`
	Jobs           []Job    `json:"jobs"`
}

// Title is a short label for the item: its change id or the project name.
func (i QueueItem) Title() string {
	if i.ID != nil && *i.ID != "" {
		return *i.ID
	}
	return i.Project
}

// Enqueued returns the time the item entered the pipeline.
// enqueue_time is reported in milliseconds.
func (i QueueItem) Enqueued() (time.Time, bool) {
	if i.EnqueueTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(*i.EnqueueTime)), true
}

// Job is one job of a queue item. Times are seconds since the epoch and
// estimated_time is seconds.
type Job struct {
	Name          string   `json:"name"`
	UUID          *string  `json:"uuid"`
	URL           *string  `json:"url"`
	ReportURL     *string  `json:"report_url"`
	Result        *string  `json:"result"`
	Voting        *bool    `json:"voting"`
	StartTime     *float64 `json:"start_time"`
	EndTime       *float64 `json:"end_time"`
	EstimatedTime *float64 `json:"estimated_time"`
	Paused        bool     `json:"paused"`
	Queued        *bool    `json:"queued"`
	Retry         *int     `json:"retry,omitempty"`
	Tries         int      `json:"tries,omitempty"`
	Canceled      bool     `json:"canceled"`
	PreFail       bool     `json:"pre_fail"`
}

// Started returns the job start time when known.
func (j Job) Started() (time.Time, bool) {
	return secondsToTime(j.StartTime)
}

// Ended returns the job end time when known.
func (j Job) Ended() (time.Time, bool) {
	return secondsToTime(j.EndTime)
}

// Estimate returns the estimated run time when known.
func (j Job) Estimate() (time.Duration, bool) {
	if j.EstimatedTime == nil {
		return 0, false
	}
	return time.Duration(*j.EstimatedTime * float64(time.Second)), true
}

// IsVoting defaults to true when the field is absent.
func (j Job) IsVoting() bool {
	return j.Voting == nil || *j.Voting
}

func secondsToTime(v *float64) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	sec, frac := math.Modf(*v)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))), true
}
