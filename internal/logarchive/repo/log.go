package repo

import (
	"errors"

	model "github.com/blankon/cidash/internal/logarchive/model"
)

// ErrInvalidName is returned for names that would leave the log directory.
var ErrInvalidName = errors.New("invalid log name")

// LogList one page of saved logs
type LogList struct {
	TotalData int
	Logs      []model.SavedLog
}

// Repo interface to operate with saved logs
type Repo interface {
	GetLogList(pageNum int64, rows int64) (LogList, error)
	PathFor(name string) (string, error)
}
