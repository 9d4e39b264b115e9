// Package store holds the dashboard state. The state only changes through
// typed actions applied by Reduce.
package store

import (
	"time"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/notification"
)

// maxToasts bounds the toast list; the oldest are dropped first.
const maxToasts = 20

// State is everything the dashboard renders.
type State struct {
	Tenant string
	Info   *entity.Info

	Tenants      []entity.Tenant
	Status       *entity.Status
	Builds       []entity.Build
	Buildsets    []entity.Buildset
	Build        map[string]entity.Build
	Buildset     map[string]entity.Buildset
	Jobs         []entity.JobDefinition
	Job          map[string][]entity.JobDefinition
	Projects     []entity.Project
	Project      map[string]entity.Project
	Nodes        []entity.Node
	Labels       []entity.Label
	Autoholds    []entity.Autohold
	Autohold     map[string]entity.Autohold
	ConfigErrors []entity.ConfigError

	// Keyed by fetch key.
	Loading   map[string]bool
	Stale     map[string]bool
	FetchedAt map[string]time.Time

	Toasts     []notification.Toast
	Autoscroll bool
}

// IsLoading reports whether a fetch for key is in flight.
func (s State) IsLoading(key string) bool {
	return s.Loading[key]
}

// IsStale reports whether the data of key comes from a snapshot.
func (s State) IsStale(key string) bool {
	return s.Stale[key]
}
