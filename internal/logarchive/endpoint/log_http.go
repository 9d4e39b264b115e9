package endpoint

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	logRepo "github.com/blankon/cidash/internal/logarchive/repo"
	service "github.com/blankon/cidash/internal/logarchive/service"
	httputil "github.com/blankon/cidash/pkg/httputil"
)

const (
	defaultRows = 50
	maxRows     = 1000
)

// LogHTTPEndpoint http endpoint for saved logs
type LogHTTPEndpoint struct {
	service service.Service
}

// NewLogHTTPEndpoint returns new saved log endpoint instance
func NewLogHTTPEndpoint(service service.Service) *LogHTTPEndpoint {
	return &LogHTTPEndpoint{
		service: service,
	}
}

// GetLogListHandler lists saved logs, ?page=N&rows=M
func (A *LogHTTPEndpoint) GetLogListHandler(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	rows := queryInt(r, "rows", defaultRows)
	if rows > maxRows {
		rows = maxRows
	}

	logList, err := A.service.GetLogList(page, rows)
	if err != nil {
		httputil.ResponseError("Can't get saved logs", http.StatusInternalServerError, w)
		return
	}

	httputil.ResponseJSON(logList, http.StatusOK, w)
}

// GetLogHandler serves one saved log as plain text
func (A *LogHTTPEndpoint) GetLogHandler(w http.ResponseWriter, r *http.Request) {
	path, err := A.service.PathFor(mux.Vars(r)["name"])
	if errors.Is(err, logRepo.ErrInvalidName) {
		httputil.ResponseError(err.Error(), http.StatusBadRequest, w)
		return
	}
	if err != nil {
		httputil.ResponseError("Can't get saved log", http.StatusInternalServerError, w)
		return
	}
	if _, err := os.Stat(path); err != nil {
		httputil.ResponseError("Saved log not found", http.StatusNotFound, w)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}

func queryInt(r *http.Request, key string, fallback int64) int64 {
	value, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
