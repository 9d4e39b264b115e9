package usecase

import (
	"context"
	"net/url"
	"time"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/logstream"
	"github.com/blankon/cidash/internal/notification"
	"github.com/blankon/cidash/internal/storage"
)

type API interface {
	Info(ctx context.Context) (entity.Info, error)
	Tenants(ctx context.Context) ([]entity.Tenant, error)
	StatusRaw(ctx context.Context) ([]byte, error)
	DecodeStatus(raw []byte) (entity.Status, error)
	Builds(ctx context.Context, query url.Values) ([]entity.Build, error)
	Build(ctx context.Context, uuid string) (entity.Build, error)
	Buildsets(ctx context.Context, query url.Values) ([]entity.Buildset, error)
	Buildset(ctx context.Context, uuid string) (entity.Buildset, error)
	Jobs(ctx context.Context) ([]entity.JobDefinition, error)
	Job(ctx context.Context, name string) ([]entity.JobDefinition, error)
	Projects(ctx context.Context) ([]entity.Project, error)
	Project(ctx context.Context, name string) (entity.Project, error)
	Nodes(ctx context.Context) ([]entity.Node, error)
	Labels(ctx context.Context) ([]entity.Label, error)
	Autoholds(ctx context.Context) ([]entity.Autohold, error)
	AutoholdInfo(ctx context.Context, id string) (entity.Autohold, error)
	ConfigErrors(ctx context.Context) ([]entity.ConfigError, error)
	StreamURL(info *entity.Info) string
}

type AdminAPI interface {
	Enqueue(ctx context.Context, project string, req entity.EnqueueRequest) error
	EnqueueRef(ctx context.Context, project string, req entity.EnqueueRefRequest) error
	Autohold(ctx context.Context, project string, req entity.AutoholdRequest) error
	DeleteAutohold(ctx context.Context, id string) error
}

// AdminFactory returns an admin client acting with token.
type AdminFactory func(token string) AdminAPI

type SnapshotRepository interface {
	Put(snapshot storage.Snapshot) error
	Get(key string) (*storage.Snapshot, error)
	Recent(tenant string, limit int) ([]storage.Snapshot, error)
	Count() (int, error)
}

type ActionRepository interface {
	Record(action storage.AdminAction) error
	Finish(actionUUID, outcome, message string) error
	Get(actionUUID string) (*storage.AdminAction, error)
	Recent(tenant string, limit int) ([]storage.AdminAction, error)
}

type StatusCache interface {
	Get(ctx context.Context, tenant string) ([]byte, error)
	Set(ctx context.Context, tenant string, data []byte) error
	AcquirePoll(ctx context.Context, tenant, owner string) (bool, error)
	AddStream(ctx context.Context, tenant, buildUUID, relayID string) error
	RemoveStream(ctx context.Context, tenant, relayID string) error
	ActiveStreams(ctx context.Context, tenant string) (map[string]int, error)
	TTL() time.Duration
}

type Notifier interface {
	Error(title string, err error) notification.Toast
	NotifyAction(ctx context.Context, info notification.ActionInfo) notification.Toast
	Wait()
}

type StreamReceiver interface {
	Stream(ctx context.Context, url string, req logstream.Request, buf *logstream.Buffer) error
}
