package service

import (
	"time"

	"github.com/dustin/go-humanize"

	logRepo "github.com/blankon/cidash/internal/logarchive/repo"
)

// LogItem representation of a saved log
type LogItem struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	SizeH   string    `json:"size_human"`
	ModTime time.Time `json:"modified"`
}

// LogList list of saved logs
type LogList struct {
	TotalData int       `json:"total"`
	Logs      []LogItem `json:"logs"`
}

// Service interface for log archive service
type Service interface {
	GetLogList(pageNum int64, rows int64) (LogList, error)
	PathFor(name string) (string, error)
}

// LogService implement service
type LogService struct {
	repo logRepo.Repo
}

// NewLogService return log archive service instance
func NewLogService(repo logRepo.Repo) *LogService {
	return &LogService{
		repo: repo,
	}
}

// GetLogList get one page of saved logs
func (A *LogService) GetLogList(pageNum int64, rows int64) (list LogList, err error) {
	llist, err := A.repo.GetLogList(pageNum, rows)
	if err != nil {
		return
	}

	list.TotalData = llist.TotalData
	list.Logs = []LogItem{}

	for _, l := range llist.Logs {
		list.Logs = append(list.Logs, LogItem{
			Name:    l.Name,
			Size:    l.Size,
			SizeH:   humanize.Bytes(uint64(l.Size)),
			ModTime: l.ModTime,
		})
	}

	return
}

// PathFor returns the file of a saved log
func (A *LogService) PathFor(name string) (string, error) {
	return A.repo.PathFor(name)
}
