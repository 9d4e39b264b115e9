package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"github.com/blankon/cidash/internal/api"
	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/logstream"
)

var errUnreachable = errors.New("connection refused")

type fakeAPI struct {
	mu          sync.Mutex
	fail        bool
	status      []byte
	statusCalls int
	builds      []entity.Build
	lastQuery   url.Values
}

func (f *fakeAPI) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeAPI) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeAPI) Info(ctx context.Context) (entity.Info, error) {
	if f.failing() {
		return entity.Info{}, errUnreachable
	}
	return entity.Info{}, nil
}

func (f *fakeAPI) Tenants(ctx context.Context) ([]entity.Tenant, error) {
	if f.failing() {
		return nil, errUnreachable
	}
	return []entity.Tenant{{Name: "main"}}, nil
}

func (f *fakeAPI) StatusRaw(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.fail {
		return nil, errUnreachable
	}
	return f.status, nil
}

func (f *fakeAPI) DecodeStatus(raw []byte) (entity.Status, error) {
	var status entity.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return entity.Status{}, &api.DecodeError{Path: "status", Err: err}
	}
	return status, nil
}

func (f *fakeAPI) Builds(ctx context.Context, query url.Values) ([]entity.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	if f.fail {
		return nil, errUnreachable
	}
	return f.builds, nil
}

func (f *fakeAPI) Build(ctx context.Context, uuid string) (entity.Build, error) {
	if f.failing() {
		return entity.Build{}, errUnreachable
	}
	return entity.Build{UUID: uuid, JobName: "tox"}, nil
}

func (f *fakeAPI) Buildsets(ctx context.Context, query url.Values) ([]entity.Buildset, error) {
	return []entity.Buildset{{UUID: "s1"}}, nil
}

func (f *fakeAPI) Buildset(ctx context.Context, uuid string) (entity.Buildset, error) {
	return entity.Buildset{UUID: uuid}, nil
}

func (f *fakeAPI) Jobs(ctx context.Context) ([]entity.JobDefinition, error) {
	return []entity.JobDefinition{{Name: "tox"}}, nil
}

func (f *fakeAPI) Job(ctx context.Context, name string) ([]entity.JobDefinition, error) {
	return []entity.JobDefinition{{Name: name}, {Name: name}}, nil
}

func (f *fakeAPI) Projects(ctx context.Context) ([]entity.Project, error) {
	return []entity.Project{{Name: "org/project"}}, nil
}

func (f *fakeAPI) Project(ctx context.Context, name string) (entity.Project, error) {
	if f.failing() {
		return entity.Project{}, errUnreachable
	}
	return entity.Project{Name: name, CanonicalName: "example.org/" + name}, nil
}

func (f *fakeAPI) Nodes(ctx context.Context) ([]entity.Node, error) {
	return []entity.Node{{ID: "0001"}}, nil
}

func (f *fakeAPI) Labels(ctx context.Context) ([]entity.Label, error) {
	return []entity.Label{{Name: "ubuntu-noble"}}, nil
}

func (f *fakeAPI) Autoholds(ctx context.Context) ([]entity.Autohold, error) {
	return []entity.Autohold{{ID: "0000000001"}}, nil
}

func (f *fakeAPI) AutoholdInfo(ctx context.Context, id string) (entity.Autohold, error) {
	return entity.Autohold{ID: id, Job: "tox"}, nil
}

func (f *fakeAPI) ConfigErrors(ctx context.Context) ([]entity.ConfigError, error) {
	return nil, nil
}

func (f *fakeAPI) StreamURL(info *entity.Info) string {
	return "ws://upstream/api/tenant/main/console-stream"
}

type adminCall struct {
	Token   string
	Method  string
	Project string
	Target  string
}

type fakeAdmin struct {
	token string
	calls *[]adminCall
	err   error
}

func (f fakeAdmin) record(method, project, target string) error {
	*f.calls = append(*f.calls, adminCall{Token: f.token, Method: method, Project: project, Target: target})
	return f.err
}

func (f fakeAdmin) Enqueue(ctx context.Context, project string, req entity.EnqueueRequest) error {
	return f.record("enqueue", project, req.Change)
}

func (f fakeAdmin) EnqueueRef(ctx context.Context, project string, req entity.EnqueueRefRequest) error {
	return f.record("enqueue-ref", project, req.Ref)
}

func (f fakeAdmin) Autohold(ctx context.Context, project string, req entity.AutoholdRequest) error {
	return f.record("autohold", project, req.Job)
}

func (f fakeAdmin) DeleteAutohold(ctx context.Context, id string) error {
	return f.record("autohold-delete", "", id)
}

type fakeReceiver struct {
	url   string
	req   logstream.Request
	lines []string
}

func (f *fakeReceiver) Stream(ctx context.Context, url string, req logstream.Request, buf *logstream.Buffer) error {
	f.url = url
	f.req = req
	for _, line := range f.lines {
		buf.Append(line)
	}
	buf.Close()
	return nil
}
