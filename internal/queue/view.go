package queue

import (
	"time"

	"github.com/blankon/cidash/internal/entity"
)

// JobView is a job with its derived category and timing.
type JobView struct {
	entity.Job
	Category string
	Bucket   Bucket
	Timing   JobTiming
}

// ItemView is a queue item ready to render.
type ItemView struct {
	Item     entity.QueueItem
	Jobs     []JobView
	Segments []Segment
	Timing   ItemTiming
	Enqueued string
}

// QueueView is a change queue with its item views.
type QueueView struct {
	Name   string
	Window int
	Items  []ItemView
}

// PipelineView is a pipeline with its queue views.
type PipelineView struct {
	Name        string
	Description string
	ItemCount   int
	Queues      []QueueView
}

// BuildView derives the render model of a status document at now.
func BuildView(status entity.Status, now time.Time, policy RemainingPolicy) []PipelineView {
	pipelines := make([]PipelineView, 0, len(status.Pipelines))
	for _, pipeline := range status.Pipelines {
		pv := PipelineView{
			Name:        pipeline.Name,
			Description: pipeline.Description,
			ItemCount:   pipeline.ItemCount(),
		}
		for _, queue := range pipeline.ChangeQueues {
			qv := QueueView{Name: queue.Name, Window: queue.Window}
			for _, item := range queue.Items() {
				qv.Items = append(qv.Items, NewItemView(item, now, policy))
			}
			pv.Queues = append(pv.Queues, qv)
		}
		pipelines = append(pipelines, pv)
	}
	return pipelines
}

// NewItemView derives the render model of one item at now.
func NewItemView(item entity.QueueItem, now time.Time, policy RemainingPolicy) ItemView {
	timing := ItemTimingAt(item, now, policy)
	view := ItemView{
		Item:     item,
		Segments: Bar(item.Jobs),
		Timing:   timing,
	}
	if enqueued, ok := item.Enqueued(); ok {
		view.Enqueued = FormatSince(enqueued, now)
	}
	for _, job := range item.Jobs {
		category := Classify(job)
		view.Jobs = append(view.Jobs, JobView{
			Job:      job,
			Category: category,
			Bucket:   BucketFor(category),
			Timing:   timing.Jobs[job.Name],
		})
	}
	return view
}
