package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/filter"
	"github.com/blankon/cidash/internal/queue"
	"github.com/blankon/cidash/internal/statuscache"
	"github.com/blankon/cidash/internal/storage"
	"github.com/blankon/cidash/internal/store"
)

// Deps are the collaborators of a DashboardUsecase. Snapshots, Actions,
// Cache and Admin are optional.
type Deps struct {
	Tenant       string
	API          API
	Admin        AdminFactory
	Snapshots    SnapshotRepository
	Actions      ActionRepository
	Cache        StatusCache
	Notifier     Notifier
	Receiver     StreamReceiver
	Policy       queue.RemainingPolicy
	WebsocketURL string
}

// DashboardUsecase loads the resources of one tenant into a store.
type DashboardUsecase struct {
	tenant       string
	api          API
	admin        AdminFactory
	snapshots    SnapshotRepository
	actions      ActionRepository
	cache        StatusCache
	notifier     Notifier
	receiver     StreamReceiver
	policy       queue.RemainingPolicy
	websocketURL string
	replicaID    string
	now          func() time.Time

	Store *store.Store
}

func NewDashboardUsecase(deps Deps) *DashboardUsecase {
	return &DashboardUsecase{
		tenant:       deps.Tenant,
		api:          deps.API,
		admin:        deps.Admin,
		snapshots:    deps.Snapshots,
		actions:      deps.Actions,
		cache:        deps.Cache,
		notifier:     deps.Notifier,
		receiver:     deps.Receiver,
		policy:       deps.Policy,
		websocketURL: deps.WebsocketURL,
		replicaID:    uuid.NewString(),
		now:          time.Now,
		Store:        store.New(store.State{Tenant: deps.Tenant}),
	}
}

// Tenant returns the tenant this usecase is scoped to.
func (u *DashboardUsecase) Tenant() string {
	return u.tenant
}

// Policy returns the remaining time policy.
func (u *DashboardUsecase) Policy() queue.RemainingPolicy {
	return u.policy
}

// load runs one fetch through the store. A failed fetch falls back to the
// last snapshot of the resource and returns it with a *StaleError.
func load[T any](
	ctx context.Context,
	u *DashboardUsecase,
	resource string,
	query url.Values,
	title string,
	get func(context.Context) (T, error),
	done func(store.Loaded, T) store.Action,
) (T, error) {
	key := storage.SnapshotKey(u.tenant, resource, query)
	generation := u.Store.Begin(key)

	value, err := get(ctx)
	if err == nil {
		fetchedAt := u.now()
		u.saveSnapshot(key, resource, value, fetchedAt)
		u.Store.Complete(key, generation, done(store.Loaded{Key: key, FetchedAt: fetchedAt}, value))
		return value, nil
	}

	toast := u.notifier.Error(title, err)
	if cached, fetchedAt, ok := loadSnapshot[T](u, key); ok {
		u.Store.Complete(key, generation, done(store.Loaded{Key: key, FetchedAt: fetchedAt, Stale: true}, cached))
		u.Store.Complete(key, generation, store.FetchFailed{Key: key, Toast: toast})
		return cached, &StaleError{FetchedAt: fetchedAt, Err: err}
	}
	u.Store.Complete(key, generation, store.FetchFailed{Key: key, Toast: toast})

	var zero T
	return zero, err
}

func (u *DashboardUsecase) saveSnapshot(key, resource string, value interface{}, fetchedAt time.Time) {
	if u.snapshots == nil {
		return
	}
	body, err := json.Marshal(value)
	if err != nil {
		log.Printf("[saveSnapshot] failed to marshal %s: %v", key, err)
		return
	}
	err = u.snapshots.Put(storage.Snapshot{
		Key:       key,
		Tenant:    u.tenant,
		Resource:  resource,
		Body:      body,
		FetchedAt: fetchedAt,
	})
	if err != nil {
		log.Printf("[saveSnapshot] %v", err)
	}
}

func loadSnapshot[T any](u *DashboardUsecase, key string) (T, time.Time, bool) {
	var value T
	if u.snapshots == nil {
		return value, time.Time{}, false
	}
	snapshot, err := u.snapshots.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[loadSnapshot] %v", err)
		}
		return value, time.Time{}, false
	}
	if err := json.Unmarshal(snapshot.Body, &value); err != nil {
		log.Printf("[loadSnapshot] failed to decode %s: %v", key, err)
		return value, time.Time{}, false
	}
	return value, snapshot.FetchedAt, true
}

func (u *DashboardUsecase) LoadInfo(ctx context.Context) (entity.Info, error) {
	return load(ctx, u, "info", nil, "Failed to load info", u.api.Info,
		func(l store.Loaded, v entity.Info) store.Action { return store.InfoLoaded{Loaded: l, Info: v} })
}

func (u *DashboardUsecase) LoadTenants(ctx context.Context) ([]entity.Tenant, error) {
	return load(ctx, u, "tenants", nil, "Failed to load tenants", u.api.Tenants,
		func(l store.Loaded, v []entity.Tenant) store.Action { return store.TenantsLoaded{Loaded: l, Tenants: v} })
}

func (u *DashboardUsecase) LoadStatus(ctx context.Context) (entity.Status, error) {
	return load(ctx, u, "status", nil, "Failed to load status", u.fetchStatus,
		func(l store.Loaded, v entity.Status) store.Action { return store.StatusLoaded{Loaded: l, Status: v} })
}

// fetchStatus reads through the shared cache when there is one. Only the
// replica holding the poll lock goes upstream; the others wait for it once.
func (u *DashboardUsecase) fetchStatus(ctx context.Context) (entity.Status, error) {
	if u.cache == nil {
		return u.fetchStatusUpstream(ctx)
	}

	if raw, err := u.cache.Get(ctx, u.tenant); err == nil {
		return u.api.DecodeStatus(raw)
	} else if !errors.Is(err, statuscache.ErrMiss) {
		log.Printf("[fetchStatus] cache: %v", err)
		return u.fetchStatusUpstream(ctx)
	}

	acquired, err := u.cache.AcquirePoll(ctx, u.tenant, u.replicaID)
	if err != nil {
		log.Printf("[fetchStatus] poll lock: %v", err)
	}
	if err == nil && !acquired {
		wait := u.cache.TTL() / 10
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return entity.Status{}, ctx.Err()
		}
		if raw, err := u.cache.Get(ctx, u.tenant); err == nil {
			return u.api.DecodeStatus(raw)
		}
	}
	return u.fetchStatusUpstream(ctx)
}

func (u *DashboardUsecase) fetchStatusUpstream(ctx context.Context) (entity.Status, error) {
	raw, err := u.api.StatusRaw(ctx)
	if err != nil {
		return entity.Status{}, err
	}
	status, err := u.api.DecodeStatus(raw)
	if err != nil {
		return entity.Status{}, err
	}
	if u.cache != nil {
		if err := u.cache.Set(ctx, u.tenant, raw); err != nil {
			log.Printf("[fetchStatusUpstream] %v", err)
		}
	}
	return status, nil
}

func (u *DashboardUsecase) LoadBuilds(ctx context.Context, filters filter.Filters) ([]entity.Build, error) {
	query := filters.Query()
	return load(ctx, u, "builds", query, "Failed to load builds",
		func(ctx context.Context) ([]entity.Build, error) { return u.api.Builds(ctx, query) },
		func(l store.Loaded, v []entity.Build) store.Action { return store.BuildsLoaded{Loaded: l, Builds: v} })
}

func (u *DashboardUsecase) LoadBuildsets(ctx context.Context, filters filter.Filters) ([]entity.Buildset, error) {
	query := filters.Query()
	return load(ctx, u, "buildsets", query, "Failed to load buildsets",
		func(ctx context.Context) ([]entity.Buildset, error) { return u.api.Buildsets(ctx, query) },
		func(l store.Loaded, v []entity.Buildset) store.Action {
			return store.BuildsetsLoaded{Loaded: l, Buildsets: v}
		})
}

func (u *DashboardUsecase) LoadBuild(ctx context.Context, buildUUID string) (entity.Build, error) {
	if buildUUID == "" {
		return entity.Build{}, ErrBuildUUIDMissing
	}
	return load(ctx, u, "build/"+buildUUID, nil, "Failed to load build",
		func(ctx context.Context) (entity.Build, error) { return u.api.Build(ctx, buildUUID) },
		func(l store.Loaded, v entity.Build) store.Action { return store.BuildLoaded{Loaded: l, Build: v} })
}

func (u *DashboardUsecase) LoadBuildset(ctx context.Context, buildsetUUID string) (entity.Buildset, error) {
	if buildsetUUID == "" {
		return entity.Buildset{}, ErrBuildsetUUIDMissing
	}
	return load(ctx, u, "buildset/"+buildsetUUID, nil, "Failed to load buildset",
		func(ctx context.Context) (entity.Buildset, error) { return u.api.Buildset(ctx, buildsetUUID) },
		func(l store.Loaded, v entity.Buildset) store.Action {
			return store.BuildsetLoaded{Loaded: l, Buildset: v}
		})
}

func (u *DashboardUsecase) LoadJobs(ctx context.Context) ([]entity.JobDefinition, error) {
	return load(ctx, u, "jobs", nil, "Failed to load jobs", u.api.Jobs,
		func(l store.Loaded, v []entity.JobDefinition) store.Action { return store.JobsLoaded{Loaded: l, Jobs: v} })
}

func (u *DashboardUsecase) LoadProjects(ctx context.Context) ([]entity.Project, error) {
	return load(ctx, u, "projects", nil, "Failed to load projects", u.api.Projects,
		func(l store.Loaded, v []entity.Project) store.Action {
			return store.ProjectsLoaded{Loaded: l, Projects: v}
		})
}

// LoadJob fetches the variants of one job.
func (u *DashboardUsecase) LoadJob(ctx context.Context, name string) ([]entity.JobDefinition, error) {
	if name == "" {
		return nil, ErrNameMissing
	}
	return load(ctx, u, "job/"+name, nil, "Failed to load job",
		func(ctx context.Context) ([]entity.JobDefinition, error) { return u.api.Job(ctx, name) },
		func(l store.Loaded, v []entity.JobDefinition) store.Action {
			return store.JobLoaded{Loaded: l, Name: name, Variants: v}
		})
}

func (u *DashboardUsecase) LoadProject(ctx context.Context, name string) (entity.Project, error) {
	if name == "" {
		return entity.Project{}, ErrNameMissing
	}
	return load(ctx, u, "project/"+name, nil, "Failed to load project",
		func(ctx context.Context) (entity.Project, error) { return u.api.Project(ctx, name) },
		func(l store.Loaded, v entity.Project) store.Action { return store.ProjectLoaded{Loaded: l, Project: v} })
}

func (u *DashboardUsecase) LoadNodes(ctx context.Context) ([]entity.Node, error) {
	return load(ctx, u, "nodes", nil, "Failed to load nodes", u.api.Nodes,
		func(l store.Loaded, v []entity.Node) store.Action { return store.NodesLoaded{Loaded: l, Nodes: v} })
}

func (u *DashboardUsecase) LoadLabels(ctx context.Context) ([]entity.Label, error) {
	return load(ctx, u, "labels", nil, "Failed to load labels", u.api.Labels,
		func(l store.Loaded, v []entity.Label) store.Action { return store.LabelsLoaded{Loaded: l, Labels: v} })
}

func (u *DashboardUsecase) LoadAutoholds(ctx context.Context) ([]entity.Autohold, error) {
	return load(ctx, u, "autohold", nil, "Failed to load autoholds", u.api.Autoholds,
		func(l store.Loaded, v []entity.Autohold) store.Action {
			return store.AutoholdsLoaded{Loaded: l, Autoholds: v}
		})
}

func (u *DashboardUsecase) LoadAutohold(ctx context.Context, id string) (entity.Autohold, error) {
	if id == "" {
		return entity.Autohold{}, ErrNameMissing
	}
	return load(ctx, u, "autohold/"+id, nil, "Failed to load autohold",
		func(ctx context.Context) (entity.Autohold, error) { return u.api.AutoholdInfo(ctx, id) },
		func(l store.Loaded, v entity.Autohold) store.Action { return store.AutoholdLoaded{Loaded: l, Autohold: v} })
}

func (u *DashboardUsecase) LoadConfigErrors(ctx context.Context) ([]entity.ConfigError, error) {
	return load(ctx, u, "config-errors", nil, "Failed to load config errors", u.api.ConfigErrors,
		func(l store.Loaded, v []entity.ConfigError) store.Action {
			return store.ConfigErrorsLoaded{Loaded: l, ConfigErrors: v}
		})
}

// StatusView derives the pipelines of the last loaded status at now.
func (u *DashboardUsecase) StatusView(now time.Time) ([]queue.PipelineView, error) {
	state := u.Store.State()
	if state.Status == nil {
		return nil, ErrNoStatus
	}
	return queue.BuildView(*state.Status, now, u.policy), nil
}

// ActiveStreams counts the consoles being relayed per build across every
// replica. It is empty without a shared cache.
func (u *DashboardUsecase) ActiveStreams(ctx context.Context) map[string]int {
	if u.cache == nil {
		return map[string]int{}
	}
	streams, err := u.cache.ActiveStreams(ctx, u.tenant)
	if err != nil {
		log.Printf("[ActiveStreams] %v", err)
		return map[string]int{}
	}
	return streams
}

// SnapshotSummary describes the last-good responses kept for a tenant.
type SnapshotSummary struct {
	Total  int                `json:"total"`
	Recent []storage.Snapshot `json:"recent"`
}

// Snapshots summarises the stored snapshots: the total over every tenant
// and the latest of this one.
func (u *DashboardUsecase) Snapshots(limit int) (SnapshotSummary, error) {
	if u.snapshots == nil {
		return SnapshotSummary{Recent: []storage.Snapshot{}}, nil
	}
	total, err := u.snapshots.Count()
	if err != nil {
		return SnapshotSummary{}, err
	}
	recent, err := u.snapshots.Recent(u.tenant, limit)
	if err != nil {
		return SnapshotSummary{}, err
	}
	if recent == nil {
		recent = []storage.Snapshot{}
	}
	return SnapshotSummary{Total: total, Recent: recent}, nil
}

// Run refreshes the status every interval until ctx is done.
func (u *DashboardUsecase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := u.LoadStatus(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[Run] refresh %s status: %v", u.tenant, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
