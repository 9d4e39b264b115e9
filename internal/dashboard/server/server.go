// Package server renders the dashboard pages and relays console streams to
// browsers.
package server

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/blankon/cidash/internal/dashboard/usecase"
	logEndpoint "github.com/blankon/cidash/internal/logarchive/endpoint"
	"github.com/blankon/cidash/internal/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server serves the dashboard of every tenant.
type Server struct {
	root     *usecase.DashboardUsecase
	tenants  *Tenants
	logs     *logEndpoint.LogHTTPEndpoint
	pages    map[string]*template.Template
	upgrader websocket.Upgrader
	router   *mux.Router
	version  string
	now      func() time.Time
}

// New builds the server. root is an untenanted usecase used to list
// tenants. logs is optional.
func New(root *usecase.DashboardUsecase, tenants *Tenants, logs *logEndpoint.LogHTTPEndpoint, version string) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		root:    root,
		tenants: tenants,
		logs:    logs,
		pages:   pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		router:  mux.NewRouter(),
		version: version,
		now:     time.Now,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	if s.logs != nil {
		s.router.HandleFunc("/logs", s.logs.GetLogListHandler).Methods(http.MethodGet)
		s.router.HandleFunc("/logs/{name}", s.logs.GetLogHandler).Methods(http.MethodGet)
	}

	t := s.router.PathPrefix("/t/{tenant}").Subrouter()
	t.HandleFunc("/status", s.statusHandler).Methods(http.MethodGet)
	t.HandleFunc("/status.json", s.statusJSONHandler).Methods(http.MethodGet)
	t.HandleFunc("/builds", s.buildsHandler).Methods(http.MethodGet)
	t.HandleFunc("/buildsets", s.buildsetsHandler).Methods(http.MethodGet)
	t.HandleFunc("/build/{uuid}", s.buildHandler).Methods(http.MethodGet)
	t.HandleFunc("/buildset/{uuid}", s.buildsetHandler).Methods(http.MethodGet)
	t.HandleFunc("/job/{name}", s.jobHandler).Methods(http.MethodGet)
	t.HandleFunc("/project/{name:.+}", s.projectHandler).Methods(http.MethodGet)
	t.HandleFunc("/autohold/{id}", s.autoholdInfoHandler).Methods(http.MethodGet)
	t.HandleFunc("/actions/{uuid}", s.actionHandler).Methods(http.MethodGet)
	t.HandleFunc("/snapshots.json", s.snapshotsHandler).Methods(http.MethodGet)
	t.HandleFunc("/stream/{uuid}", s.streamHandler).Methods(http.MethodGet)
	t.HandleFunc("/console-relay", s.consoleRelayHandler)
	t.HandleFunc("/enqueue", s.enqueueHandler).Methods(http.MethodPost)
	t.HandleFunc("/autohold", s.autoholdHandler).Methods(http.MethodPost)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Println("cidash dashboard now live on " + addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

var pageNames = []string{
	"index", "status", "builds", "buildsets", "build", "buildset",
	"job", "project", "autohold", "stream",
}

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"since":    humanize.Time,
		"duration": queue.FormatOptional,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		page, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = page
	}
	return pages, nil
}
