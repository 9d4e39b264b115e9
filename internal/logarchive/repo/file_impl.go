package repo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	model "github.com/blankon/cidash/internal/logarchive/model"
)

const logSuffix = ".log"

// FileRepo keeps saved logs as files in a directory
type FileRepo struct {
	Dir string
}

// NewFileRepo create new instance
func NewFileRepo(dir string) *FileRepo {
	return &FileRepo{
		Dir: dir,
	}
}

// GetLogList returns one page of saved logs, newest first. Pages start at
// 1; rows <= 0 returns everything.
func (A *FileRepo) GetLogList(pageNum int64, rows int64) (list LogList, err error) {
	files, err := filepath.Glob(filepath.Join(A.Dir, "*"+logSuffix))
	if err != nil {
		return
	}

	logs := []model.SavedLog{}
	for _, file := range files {
		info, statErr := os.Stat(file)
		if statErr != nil || info.IsDir() {
			continue
		}
		logs = append(logs, model.SavedLog{
			Name:    getLogName(file),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].ModTime.After(logs[j].ModTime)
	})

	list.TotalData = len(logs)
	list.Logs = paginate(logs, pageNum, rows)
	return
}

// PathFor returns the file of a saved log. The name must be a bare file
// name.
func (A *FileRepo) PathFor(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	if !strings.HasSuffix(name, logSuffix) {
		name += logSuffix
	}
	return filepath.Join(A.Dir, name), nil
}

func getLogName(filePath string) string {
	return filepath.Base(filePath)
}

func paginate(logs []model.SavedLog, pageNum int64, rows int64) []model.SavedLog {
	if rows <= 0 {
		return logs
	}
	if pageNum < 1 {
		pageNum = 1
	}
	total := int64(len(logs))
	pages := int64(1)
	if rows < total {
		pages = (total + rows - 1) / rows
	}
	if pageNum-1 >= pages {
		return []model.SavedLog{}
	}
	start := (pageNum - 1) * rows
	end := total
	if rows < total-start {
		end = start + rows
	}
	return logs[start:end]
}
