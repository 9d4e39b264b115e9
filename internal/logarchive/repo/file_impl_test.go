package repo

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("line1\nline2\n"), 0644))
	modTime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestFileRepo_GetLogList(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "old.log", 2*time.Hour)
	writeLog(t, dir, "new.log", time.Minute)
	writeLog(t, dir, "middle.log", time.Hour)
	writeLog(t, dir, "notes.txt", 0)

	repo := NewFileRepo(dir)
	list, err := repo.GetLogList(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalData)
	require.Len(t, list.Logs, 3)
	assert.Equal(t, "new.log", list.Logs[0].Name)
	assert.Equal(t, "old.log", list.Logs[2].Name)
	assert.Equal(t, int64(12), list.Logs[0].Size)

	page, err := repo.GetLogList(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalData)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, "old.log", page.Logs[0].Name)

	empty, err := repo.GetLogList(5, 2)
	require.NoError(t, err)
	assert.Empty(t, empty.Logs)
}

func TestFileRepo_GetLogList_HugePage(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a.log", time.Minute)
	writeLog(t, dir, "b.log", time.Hour)
	repo := NewFileRepo(dir)

	list, err := repo.GetLogList(math.MaxInt64, 2)
	require.NoError(t, err)
	assert.Empty(t, list.Logs)

	list, err = repo.GetLogList(1, math.MaxInt64)
	require.NoError(t, err)
	assert.Len(t, list.Logs, 2)

	list, err = repo.GetLogList(math.MaxInt64, math.MaxInt64)
	require.NoError(t, err)
	assert.Empty(t, list.Logs)
}

func TestFileRepo_GetLogList_MissingDir(t *testing.T) {
	list, err := NewFileRepo(filepath.Join(t.TempDir(), "missing")).GetLogList(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, list.TotalData)
}

func TestFileRepo_PathFor(t *testing.T) {
	repo := NewFileRepo("/var/lib/cidash/logs")
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "abc.log", want: "/var/lib/cidash/logs/abc.log"},
		{name: "abc", want: "/var/lib/cidash/logs/abc.log"},
		{name: "", wantErr: true},
		{name: "../secret.log", wantErr: true},
		{name: "a/b.log", wantErr: true},
		{name: ".hidden.log", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.PathFor(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
