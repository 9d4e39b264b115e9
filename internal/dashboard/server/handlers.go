package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/blankon/cidash/internal/auth"
	"github.com/blankon/cidash/internal/dashboard/usecase"
	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/filter"
	"github.com/blankon/cidash/internal/notification"
	"github.com/blankon/cidash/internal/queue"
	"github.com/blankon/cidash/internal/storage"
	"github.com/blankon/cidash/pkg/httputil"
)

// page is what every template receives.
type page struct {
	Tenant  string
	Title   string
	Version string
	Stale   string
	Toasts  []notification.Toast
	Data    interface{}
}

type listData[T any] struct {
	Filters filter.Filters
	Items   []T
}

// loadList fetches a list page through a filter.Sync bound to the request
// location. A clear parameter drops every filter.
func loadList[T any](r *http.Request, keys []string, fetch func(context.Context, filter.Filters) ([]T, error)) (listData[T], error) {
	var items []T
	sync := filter.NewSync(keys, func(ctx context.Context, query url.Values) error {
		var err error
		items, err = fetch(ctx, filter.Parse(keys, query))
		return err
	})

	var err error
	if r.URL.Query().Has("clear") {
		location := *r.URL
		query := location.Query()
		query.Del("clear")
		location.RawQuery = query.Encode()
		if err = sync.Bind(location.String()); err == nil {
			err = sync.Clear(r.Context())
		}
	} else {
		err = sync.Load(r.Context(), r.URL.String())
	}
	return listData[T]{Filters: sync.Filters(), Items: items}, err
}

func writeUsecaseError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var useErr usecase.UsecaseError
	switch {
	case errors.As(err, &useErr):
		w.WriteHeader(useErr.Code)
		if useErr.Message != "" {
			fmt.Fprint(w, useErr.Message)
		}
		return
	case errors.Is(err, usecase.ErrBuildUUIDMissing), errors.Is(err, usecase.ErrBuildsetUUIDMissing),
		errors.Is(err, usecase.ErrNameMissing), errors.Is(err, ErrTenantMissing):
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, err.Error())
		return
	case errors.Is(err, ErrTenantUnknown):
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, err.Error())
		return
	case errors.Is(err, usecase.ErrNoStatus):
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, err.Error())
		return
	}
	log.Printf("[writeUsecaseError] %v", err)
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprint(w, err.Error())
}

// staleNotice turns a stale fallback into a banner. Any other error is
// returned.
func staleNotice(err error) (string, error) {
	var stale *usecase.StaleError
	if errors.As(err, &stale) {
		return "Showing data from " + stale.FetchedAt.Format("2006-01-02 15:04:05") + ": the server could not be reached.", nil
	}
	return "", err
}

func (s *Server) render(w http.ResponseWriter, name string, p page) {
	var out bytes.Buffer
	if err := s.pages[name].Execute(&out, p); err != nil {
		log.Printf("[render] %s: %v", name, err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "500")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out.Bytes())
}

func (s *Server) tenantFor(r *http.Request) (*usecase.DashboardUsecase, error) {
	return s.tenants.Get(r.Context(), mux.Vars(r)["tenant"])
}

func (s *Server) pageFor(uc *usecase.DashboardUsecase, title, stale string, data interface{}) page {
	return page{
		Tenant:  uc.Tenant(),
		Title:   title,
		Version: s.version,
		Stale:   stale,
		Toasts:  uc.Store.State().Toasts,
		Data:    data,
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.ResponseJSON(map[string]string{"status": "ok", "version": s.version}, http.StatusOK, w)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.root.LoadTenants(r.Context())
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "index", page{Title: "Tenants", Version: s.version, Stale: stale, Data: tenants})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	_, err = uc.LoadStatus(r.Context())
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	pipelines, err := uc.StatusView(s.now())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	actions, err := uc.RecentActions(recentActions)
	if err != nil {
		log.Printf("[statusHandler] %v", err)
	}
	s.render(w, "status", s.pageFor(uc, "Status", stale, statusData{
		Pipelines: pipelines,
		Streams:   uc.ActiveStreams(r.Context()),
		Actions:   actions,
	}))
}

// recentActions is how many admin actions the status page lists.
const recentActions = 10

type statusData struct {
	Pipelines []queue.PipelineView
	// Streams counts the consoles watched per build uuid.
	Streams map[string]int
	Actions []storage.AdminAction
}

type statusItemJSON struct {
	ID              string          `json:"id"`
	Project         string          `json:"project"`
	RemainingMillis *int64          `json:"remaining_ms"`
	Segments        []queue.Segment `json:"segments"`
	Jobs            []statusJobJSON `json:"jobs"`
}

type statusJobJSON struct {
	Name            string       `json:"name"`
	Category        string       `json:"category"`
	Bucket          queue.Bucket `json:"bucket"`
	ElapsedMillis   *int64       `json:"elapsed_ms"`
	RemainingMillis *int64       `json:"remaining_ms"`
}

type statusPipelineJSON struct {
	Name  string           `json:"name"`
	Items []statusItemJSON `json:"items"`
}

// statusJSONHandler serves the derived status: timings and progress
// segments per item.
func (s *Server) statusJSONHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	_, err = uc.LoadStatus(r.Context())
	if _, err = staleNotice(err); err != nil {
		httputil.ResponseError(err.Error(), http.StatusBadGateway, w)
		return
	}
	pipelines, err := uc.StatusView(s.now())
	if err != nil {
		httputil.ResponseError(err.Error(), http.StatusServiceUnavailable, w)
		return
	}

	out := make([]statusPipelineJSON, 0, len(pipelines))
	for _, pipeline := range pipelines {
		pj := statusPipelineJSON{Name: pipeline.Name, Items: []statusItemJSON{}}
		for _, q := range pipeline.Queues {
			for _, item := range q.Items {
				ij := statusItemJSON{
					ID:              item.Item.Title(),
					Project:         item.Item.Project,
					RemainingMillis: item.Timing.RemainingMillis(),
					Segments:        item.Segments,
				}
				for _, job := range item.Jobs {
					ij.Jobs = append(ij.Jobs, statusJobJSON{
						Name:            job.Name,
						Category:        job.Category,
						Bucket:          job.Bucket,
						ElapsedMillis:   job.Timing.ElapsedMillis(),
						RemainingMillis: job.Timing.RemainingMillis(),
					})
				}
				pj.Items = append(pj.Items, ij)
			}
		}
		out = append(out, pj)
	}
	httputil.ResponseJSON(out, http.StatusOK, w)
}

func (s *Server) buildsHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	data, err := loadList(r, filter.BuildKeys, uc.LoadBuilds)
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "builds", s.pageFor(uc, "Builds", stale, data))
}

func (s *Server) buildsetsHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	data, err := loadList(r, filter.BuildsetKeys, uc.LoadBuildsets)
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "buildsets", s.pageFor(uc, "Buildsets", stale, data))
}

func (s *Server) buildHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	build, err := uc.LoadBuild(r.Context(), mux.Vars(r)["uuid"])
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "build", s.pageFor(uc, "Build "+build.JobName, stale, build))
}

func (s *Server) buildsetHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	buildset, err := uc.LoadBuildset(r.Context(), mux.Vars(r)["uuid"])
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "buildset", s.pageFor(uc, "Buildset", stale, buildset))
}

type jobData struct {
	Name     string
	Variants []entity.JobDefinition
}

func (s *Server) jobHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	name := mux.Vars(r)["name"]
	variants, err := uc.LoadJob(r.Context(), name)
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "job", s.pageFor(uc, "Job "+name, stale, jobData{Name: name, Variants: variants}))
}

func (s *Server) projectHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	project, err := uc.LoadProject(r.Context(), mux.Vars(r)["name"])
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "project", s.pageFor(uc, "Project "+project.Name, stale, project))
}

func (s *Server) autoholdInfoHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	hold, err := uc.LoadAutohold(r.Context(), mux.Vars(r)["id"])
	stale, err := staleNotice(err)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	s.render(w, "autohold", s.pageFor(uc, "Autohold "+hold.ID, stale, hold))
}

func (s *Server) actionHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	action, err := uc.Action(mux.Vars(r)["uuid"])
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httputil.ResponseJSON(action, http.StatusOK, w)
}

func (s *Server) snapshotsHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	summary, err := uc.Snapshots(queryLimit(r, 20))
	if err != nil {
		log.Printf("[snapshotsHandler] %v", err)
		httputil.ResponseError("Can't list snapshots", http.StatusInternalServerError, w)
		return
	}
	httputil.ResponseJSON(summary, http.StatusOK, w)
}

// queryLimit reads ?limit, between 1 and 100.
func queryLimit(r *http.Request, fallback int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > 100 {
		return 100
	}
	return limit
}

type streamData struct {
	UUID    string
	Logfile string
}

func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	data := streamData{UUID: mux.Vars(r)["uuid"], Logfile: r.URL.Query().Get("logfile")}
	s.render(w, "stream", s.pageFor(uc, "Console "+data.UUID, "", data))
}

// actorFrom reads the bearer token of the request. The user name comes
// from the token claims when it parses.
func actorFrom(r *http.Request) usecase.Actor {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return usecase.Actor{}
	}
	actor := usecase.Actor{Token: token}
	if session, err := auth.NewSession(token, ""); err == nil {
		actor.User = session.Profile.DisplayName()
	}
	return actor
}

type enqueuePayload struct {
	Project  string `json:"project"`
	Pipeline string `json:"pipeline"`
	Change   string `json:"change"`
	Ref      string `json:"ref"`
	Oldrev   string `json:"oldrev"`
	Newrev   string `json:"newrev"`
}

type autoholdPayload struct {
	Project string `json:"project"`
	entity.AutoholdRequest
}

type actionResponse struct {
	Status string `json:"status"`
}

// enqueueHandler enqueues a change, or a ref update when ref is given.
func (s *Server) enqueueHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	var payload enqueuePayload
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		log.Printf("[enqueueHandler] %v", err)
		httputil.ResponseError("invalid request body", http.StatusBadRequest, w)
		return
	}

	actor := actorFrom(r)
	if payload.Ref != "" {
		err = uc.EnqueueRef(r.Context(), actor, payload.Project, entity.EnqueueRefRequest{
			Pipeline: payload.Pipeline,
			Ref:      payload.Ref,
			Oldrev:   payload.Oldrev,
			Newrev:   payload.Newrev,
		})
	} else {
		err = uc.Enqueue(r.Context(), actor, payload.Project, entity.EnqueueRequest{
			Pipeline: payload.Pipeline,
			Change:   payload.Change,
		})
	}
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	httputil.ResponseJSON(actionResponse{Status: "ok"}, http.StatusOK, w)
}

func (s *Server) autoholdHandler(w http.ResponseWriter, r *http.Request) {
	uc, err := s.tenantFor(r)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	var payload autoholdPayload
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		log.Printf("[autoholdHandler] %v", err)
		httputil.ResponseError("invalid request body", http.StatusBadRequest, w)
		return
	}
	if err := uc.Autohold(r.Context(), actorFrom(r), payload.Project, payload.AutoholdRequest); err != nil {
		writeUsecaseError(w, err)
		return
	}
	httputil.ResponseJSON(actionResponse{Status: "ok"}, http.StatusOK, w)
}
