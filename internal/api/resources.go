package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/blankon/cidash/internal/entity"
)

// Info describes the deployment, or the tenant when the client has one.
func (c *Client) Info(ctx context.Context) (entity.Info, error) {
	var info entity.Info
	err := c.get(ctx, "info", nil, &info)
	return info, err
}

// Tenants lists every tenant. The list is never tenant scoped.
func (c *Client) Tenants(ctx context.Context) ([]entity.Tenant, error) {
	var tenants []entity.Tenant
	err := c.WithTenant("").get(ctx, "tenants", nil, &tenants)
	return tenants, err
}

// StatusRaw returns the status document as served.
func (c *Client) StatusRaw(ctx context.Context) ([]byte, error) {
	return c.getRaw(ctx, "status", nil)
}

// DecodeStatus parses and validates a status document.
func (c *Client) DecodeStatus(raw []byte) (entity.Status, error) {
	var status entity.Status
	err := c.decode("status", raw, &status)
	return status, err
}

// Status fetches the pipelines and their queues.
func (c *Client) Status(ctx context.Context) (entity.Status, error) {
	raw, err := c.StatusRaw(ctx)
	if err != nil {
		return entity.Status{}, err
	}
	return c.DecodeStatus(raw)
}

// Builds lists builds matching query.
func (c *Client) Builds(ctx context.Context, query url.Values) ([]entity.Build, error) {
	var builds []entity.Build
	err := c.get(ctx, "builds", query, &builds)
	return builds, err
}

// Build fetches one build.
func (c *Client) Build(ctx context.Context, uuid string) (entity.Build, error) {
	var build entity.Build
	err := c.get(ctx, "build/"+url.PathEscape(uuid), nil, &build)
	return build, err
}

// Buildsets lists buildsets matching query.
func (c *Client) Buildsets(ctx context.Context, query url.Values) ([]entity.Buildset, error) {
	var buildsets []entity.Buildset
	err := c.get(ctx, "buildsets", query, &buildsets)
	return buildsets, err
}

// Buildset fetches one buildset with its builds.
func (c *Client) Buildset(ctx context.Context, uuid string) (entity.Buildset, error) {
	var buildset entity.Buildset
	err := c.get(ctx, "buildset/"+url.PathEscape(uuid), nil, &buildset)
	return buildset, err
}

// Jobs lists job definitions.
func (c *Client) Jobs(ctx context.Context) ([]entity.JobDefinition, error) {
	var jobs []entity.JobDefinition
	err := c.get(ctx, "jobs", nil, &jobs)
	return jobs, err
}

// Job returns the variants of one job.
func (c *Client) Job(ctx context.Context, name string) ([]entity.JobDefinition, error) {
	var variants []entity.JobDefinition
	err := c.get(ctx, "job/"+url.PathEscape(name), nil, &variants)
	return variants, err
}

// Projects lists projects.
func (c *Client) Projects(ctx context.Context) ([]entity.Project, error) {
	var projects []entity.Project
	err := c.get(ctx, "projects", nil, &projects)
	return projects, err
}

// Project fetches one project with its configuration.
func (c *Client) Project(ctx context.Context, name string) (entity.Project, error) {
	var project entity.Project
	err := c.get(ctx, "project/"+escapePath(name), nil, &project)
	return project, err
}

// Nodes lists test nodes.
func (c *Client) Nodes(ctx context.Context) ([]entity.Node, error) {
	var nodes []entity.Node
	err := c.get(ctx, "nodes", nil, &nodes)
	return nodes, err
}

// Labels lists node labels.
func (c *Client) Labels(ctx context.Context) ([]entity.Label, error) {
	var labels []entity.Label
	err := c.get(ctx, "labels", nil, &labels)
	return labels, err
}

// Autoholds lists autohold requests.
func (c *Client) Autoholds(ctx context.Context) ([]entity.Autohold, error) {
	var holds []entity.Autohold
	err := c.get(ctx, "autohold", nil, &holds)
	return holds, err
}

// AutoholdInfo fetches one autohold request.
func (c *Client) AutoholdInfo(ctx context.Context, id string) (entity.Autohold, error) {
	var hold entity.Autohold
	err := c.get(ctx, "autohold/"+url.PathEscape(id), nil, &hold)
	return hold, err
}

// ConfigErrors lists configuration errors.
func (c *Client) ConfigErrors(ctx context.Context) ([]entity.ConfigError, error) {
	var configErrors []entity.ConfigError
	err := c.get(ctx, "config-errors", nil, &configErrors)
	return configErrors, err
}

type enqueueBody struct {
	Trigger  string `json:"trigger"`
	Pipeline string `json:"pipeline"`
	Change   string `json:"change,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Oldrev   string `json:"oldrev,omitempty"`
	Newrev   string `json:"newrev,omitempty"`
}

// Enqueue puts a change into a pipeline of project.
func (c *Client) Enqueue(ctx context.Context, project string, req entity.EnqueueRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return err
	}
	body := enqueueBody{Trigger: "zuul", Pipeline: req.Pipeline, Change: req.Change}
	return c.send(ctx, http.MethodPost, "project/"+escapePath(project)+"/enqueue", body, nil)
}

// EnqueueRef puts a ref update into a pipeline of project.
func (c *Client) EnqueueRef(ctx context.Context, project string, req entity.EnqueueRefRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return err
	}
	body := enqueueBody{Trigger: "zuul", Pipeline: req.Pipeline, Ref: req.Ref, Oldrev: req.Oldrev, Newrev: req.Newrev}
	return c.send(ctx, http.MethodPost, "project/"+escapePath(project)+"/enqueue", body, nil)
}

// Autohold asks to hold the nodes of the next failing builds of a job.
func (c *Client) Autohold(ctx context.Context, project string, req entity.AutoholdRequest) error {
	return c.send(ctx, http.MethodPost, "project/"+escapePath(project)+"/autohold", req, nil)
}

// DeleteAutohold removes an autohold request.
func (c *Client) DeleteAutohold(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "autohold/"+url.PathEscape(id), nil, nil)
}

// StreamURL returns the console stream websocket url. A url advertised by
// info wins over the one derived from the api prefix.
func (c *Client) StreamURL(info *entity.Info) string {
	if info != nil && info.Info.WebsocketURL != nil && *info.Info.WebsocketURL != "" {
		return *info.Info.WebsocketURL
	}
	prefix := c.Prefix()
	switch {
	case strings.HasPrefix(prefix, "https://"):
		prefix = "wss://" + strings.TrimPrefix(prefix, "https://")
	case strings.HasPrefix(prefix, "http://"):
		prefix = "ws://" + strings.TrimPrefix(prefix, "http://")
	}
	return prefix + "console-stream"
}
