package model

import "time"

// SavedLog represents a console log saved in the log directory
type SavedLog struct {
	Name    string
	Size    int64
	ModTime time.Time
}
