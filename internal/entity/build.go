package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp decodes the naive ISO timestamps used by the builds API.
// Timestamps without a zone are treated as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05"))
}

type Artifact struct {
	Name     string                 `json:"name" validate:"required"`
	URL      string                 `json:"url" validate:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type BuildsetRef struct {
	UUID string `json:"uuid"`
}

// Build is one finished or running job execution as reported by the builds
// API.
type Build struct {
	UUID        string       `json:"uuid" validate:"required"`
	JobName     string       `json:"job_name" validate:"required"`
	Result      *string      `json:"result"`
	Held        bool         `json:"held"`
	Voting      bool         `json:"voting"`
	Final       bool         `json:"final"`
	StartTime   *Timestamp   `json:"start_time"`
	EndTime     *Timestamp   `json:"end_time"`
	Duration    *float64     `json:"duration"`
	LogURL      *string      `json:"log_url"`
	NodeName    *string      `json:"node_name"`
	ErrorDetail *string      `json:"error_detail"`
	Project     string       `json:"project"`
	Branch      string       `json:"branch"`
	Pipeline    string       `json:"pipeline"`
	Change      *int         `json:"change"`
	Patchset    *string      `json:"patchset"`
	Ref         string       `json:"ref"`
	Newrev      *string      `json:"newrev"`
	RefURL      *string      `json:"ref_url"`
	Artifacts   []Artifact   `json:"artifacts" validate:"dive"`
	Buildset    *BuildsetRef `json:"buildset,omitempty"`
}

// ResultLabel returns the build result or "IN PROGRESS" while it runs.
func (b Build) ResultLabel() string {
	if b.Result == nil || *b.Result == "" {
		return "IN PROGRESS"
	}
	return *b.Result
}

// Elapsed returns the reported duration, falling back to the timestamps.
func (b Build) Elapsed() (time.Duration, bool) {
	if b.Duration != nil {
		return time.Duration(*b.Duration * float64(time.Second)), true
	}
	if b.StartTime != nil && b.EndTime != nil && !b.StartTime.IsZero() && !b.EndTime.IsZero() {
		return b.EndTime.Sub(b.StartTime.Time), true
	}
	return 0, false
}

// ChangeLabel formats the change/patchset pair or the ref.
func (b Build) ChangeLabel() string {
	if b.Change != nil {
		if b.Patchset != nil {
			return fmt.Sprintf("%d,%s", *b.Change, *b.Patchset)
		}
		return fmt.Sprintf("%d", *b.Change)
	}
	return b.Ref
}

// ManifestURL returns the url of the zuul-manifest artifact, if any.
func (b Build) ManifestURL() (string, bool) {
	for _, artifact := range b.Artifacts {
		if artifact.Name == "Zuul Manifest" {
			return artifact.URL, true
		}
	}
	return "", false
}

type Buildset struct {
	UUID       string     `json:"uuid" validate:"required"`
	Result     *string    `json:"result"`
	Message    *string    `json:"message"`
	Pipeline   string     `json:"pipeline"`
	Project    string     `json:"project"`
	Branch     string     `json:"branch"`
	Change     *int       `json:"change"`
	Patchset   *string    `json:"patchset"`
	Ref        string     `json:"ref"`
	Newrev     *string    `json:"newrev"`
	RefURL     *string    `json:"ref_url"`
	EventID    *string    `json:"event_id"`
	FirstBuild *Timestamp `json:"first_build_start_time"`
	LastBuild  *Timestamp `json:"last_build_end_time"`
	Builds     []Build    `json:"builds" validate:"dive"`
}

// ResultLabel returns the buildset result or "IN PROGRESS".
func (b Buildset) ResultLabel() string {
	if b.Result == nil || *b.Result == "" {
		return "IN PROGRESS"
	}
	return *b.Result
}
