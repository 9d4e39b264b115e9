package store

import (
	"time"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/notification"
)

// Action is a state change. Only the types in this file are actions.
type Action interface {
	action()
}

// Loaded is carried by every successful fetch.
type Loaded struct {
	Key       string
	FetchedAt time.Time
	// Stale is set when the data was served from a snapshot.
	Stale bool
}

// TenantSelected switches tenant and drops tenant scoped data.
type TenantSelected struct {
	Name string
}

// FetchStarted marks key as loading.
type FetchStarted struct {
	Key string
}

// FetchSuperseded ends a fetch whose result was dropped because a later
// fetch of the same resource began.
type FetchSuperseded struct {
	Key string
}

// FetchFailed ends a fetch without data. The previous data stays.
type FetchFailed struct {
	Key   string
	Toast notification.Toast
}

type InfoLoaded struct {
	Loaded
	Info entity.Info
}

type TenantsLoaded struct {
	Loaded
	Tenants []entity.Tenant
}

type StatusLoaded struct {
	Loaded
	Status entity.Status
}

type BuildsLoaded struct {
	Loaded
	Builds []entity.Build
}

type BuildsetsLoaded struct {
	Loaded
	Buildsets []entity.Buildset
}

type BuildLoaded struct {
	Loaded
	Build entity.Build
}

type BuildsetLoaded struct {
	Loaded
	Buildset entity.Buildset
}

type JobsLoaded struct {
	Loaded
	Jobs []entity.JobDefinition
}

type JobLoaded struct {
	Loaded
	Name     string
	Variants []entity.JobDefinition
}

type ProjectLoaded struct {
	Loaded
	Project entity.Project
}

type AutoholdLoaded struct {
	Loaded
	Autohold entity.Autohold
}

type ProjectsLoaded struct {
	Loaded
	Projects []entity.Project
}

type NodesLoaded struct {
	Loaded
	Nodes []entity.Node
}

type LabelsLoaded struct {
	Loaded
	Labels []entity.Label
}

type AutoholdsLoaded struct {
	Loaded
	Autoholds []entity.Autohold
}

type ConfigErrorsLoaded struct {
	Loaded
	ConfigErrors []entity.ConfigError
}

type ToastAdded struct {
	Toast notification.Toast
}

type ToastDismissed struct {
	ID string
}

type AutoscrollSet struct {
	Enabled bool
}

func (TenantSelected) action()     {}
func (FetchStarted) action()       {}
func (FetchFailed) action()        {}
func (FetchSuperseded) action()    {}
func (InfoLoaded) action()         {}
func (TenantsLoaded) action()      {}
func (StatusLoaded) action()       {}
func (BuildsLoaded) action()       {}
func (BuildsetsLoaded) action()    {}
func (BuildLoaded) action()        {}
func (BuildsetLoaded) action()     {}
func (JobLoaded) action()          {}
func (ProjectLoaded) action()      {}
func (AutoholdLoaded) action()     {}
func (JobsLoaded) action()         {}
func (ProjectsLoaded) action()     {}
func (NodesLoaded) action()        {}
func (LabelsLoaded) action()       {}
func (AutoholdsLoaded) action()    {}
func (ConfigErrorsLoaded) action() {}
func (ToastAdded) action()         {}
func (ToastDismissed) action()     {}
func (AutoscrollSet) action()      {}
