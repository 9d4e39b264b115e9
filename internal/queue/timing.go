package queue

import (
	"time"

	"github.com/blankon/cidash/internal/entity"
)

// RemainingPolicy decides how job estimates fold into the item estimate.
type RemainingPolicy int

const (
	// Strict leaves the item estimate unknown as soon as one unresolved job
	// (not started, or running without an estimate) exists.
	Strict RemainingPolicy = iota
	// Computable takes the maximum over the jobs that have an estimate.
	Computable
)

func (p RemainingPolicy) String() string {
	if p == Computable {
		return "computable"
	}
	return "strict"
}

// ParsePolicy accepts "strict" or "computable"; anything else is Strict.
func ParsePolicy(name string) RemainingPolicy {
	if name == "computable" {
		return Computable
	}
	return Strict
}

// JobTiming holds the elapsed and remaining time of one job. Nil means the
// value is not known.
type JobTiming struct {
	Elapsed   *time.Duration
	Remaining *time.Duration
}

// ElapsedMillis returns the elapsed time in milliseconds, or nil.
func (t JobTiming) ElapsedMillis() *int64 {
	return millis(t.Elapsed)
}

// RemainingMillis returns the remaining time in milliseconds, or nil.
func (t JobTiming) RemainingMillis() *int64 {
	return millis(t.Remaining)
}

// ItemTiming is the timing view of one queue item.
type ItemTiming struct {
	Jobs      map[string]JobTiming
	Remaining *time.Duration
}

// RemainingMillis returns the item estimate in milliseconds, or nil.
func (t ItemTiming) RemainingMillis() *int64 {
	return millis(t.Remaining)
}

// Calculator computes job and item timings against a fixed clock.
type Calculator struct {
	Policy RemainingPolicy
	Now    func() time.Time
}

// NewCalculator returns a calculator on the wall clock.
func NewCalculator(policy RemainingPolicy) *Calculator {
	return &Calculator{Policy: policy, Now: time.Now}
}

// JobTimingAt computes the timing of a single job at now.
func JobTimingAt(job entity.Job, now time.Time) JobTiming {
	start, ok := job.Started()
	if !ok {
		return JobTiming{}
	}
	if end, ok := job.Ended(); ok {
		elapsed := clamp(end.Sub(start))
		return JobTiming{Elapsed: &elapsed}
	}
	elapsed := clamp(now.Sub(start))
	timing := JobTiming{Elapsed: &elapsed}
	if estimate, ok := job.Estimate(); ok {
		remaining := clamp(estimate - elapsed)
		timing.Remaining = &remaining
	}
	return timing
}

// Item computes the timing of every job of item and the item estimate.
func (c *Calculator) Item(item entity.QueueItem) ItemTiming {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	return ItemTimingAt(item, now, c.Policy)
}

// ItemTimingAt computes the item timing at now under policy.
func ItemTimingAt(item entity.QueueItem, now time.Time, policy RemainingPolicy) ItemTiming {
	timing := ItemTiming{Jobs: make(map[string]JobTiming, len(item.Jobs))}

	var longest *time.Duration
	unresolved := false
	for _, job := range item.Jobs {
		jt := JobTimingAt(job, now)
		timing.Jobs[job.Name] = jt

		if jt.Remaining != nil {
			if longest == nil || *jt.Remaining > *longest {
				value := *jt.Remaining
				longest = &value
			}
			continue
		}
		if !resolved(job) {
			unresolved = true
		}
	}

	if policy == Strict && unresolved {
		return timing
	}
	timing.Remaining = longest
	return timing
}

// resolved jobs need no estimate: they have finished or already reported.
func resolved(job entity.Job) bool {
	if _, ok := job.Ended(); ok {
		return true
	}
	return job.Result != nil && *job.Result != ""
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func millis(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}
