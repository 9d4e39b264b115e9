package queue

import (
	"fmt"
	"strings"

	"github.com/blankon/cidash/internal/entity"
)

// fullWidth is 100% in hundredths of a percent.
const fullWidth = 10000

// Segment is one job's share of the progress bar.
type Segment struct {
	Job      string
	Category string
	Bucket   Bucket
	// Width in hundredths of a percent.
	Width int
}

// Percent formats the width for a CSS width property.
func (s Segment) Percent() string {
	return fmt.Sprintf("%d.%02d%%", s.Width/100, s.Width%100)
}

// Bar splits the bar evenly between the jobs that are not skipped. Widths
// always add up to exactly 100%; the rounding remainder goes to the leading
// segments.
func Bar(jobs []entity.Job) []Segment {
	segments := make([]Segment, 0, len(jobs))
	for _, job := range jobs {
		category := Classify(job)
		if category == ResultSkipped {
			continue
		}
		segments = append(segments, Segment{
			Job:      job.Name,
			Category: category,
			Bucket:   BucketFor(category),
		})
	}
	spread(len(segments), fullWidth, func(i, width int) {
		segments[i].Width = width
	})
	return segments
}

// TotalWidth sums the segment widths in hundredths of a percent.
func TotalWidth(segments []Segment) int {
	total := 0
	for _, segment := range segments {
		total += segment.Width
	}
	return total
}

var bucketRunes = map[Bucket]string{
	BucketSuccess: "=",
	BucketDanger:  "X",
	BucketWarning: "!",
	BucketInfo:    "~",
	BucketDefault: ".",
}

// RenderText draws the segments as a fixed width terminal bar.
func RenderText(segments []Segment, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	if len(segments) == 0 {
		b.WriteString(strings.Repeat(" ", width))
	}
	spread(len(segments), width, func(i, cells int) {
		b.WriteString(strings.Repeat(bucketRunes[segments[i].Bucket], cells))
	})
	b.WriteByte(']')
	return b.String()
}

// spread divides total into n integer parts, handing the remainder to the
// first parts.
func spread(n, total int, fn func(i, part int)) {
	if n == 0 {
		return
	}
	base, rest := total/n, total%n
	for i := 0; i < n; i++ {
		part := base
		if i < rest {
			part++
		}
		fn(i, part)
	}
}
