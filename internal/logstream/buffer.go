// Package logstream receives live console logs over a websocket, or
// follows them from disk, into an append-only line buffer.
package logstream

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blankon/cidash/internal/entity"
)

// EndOfStream is appended once when a stream stops, whatever the reason.
const EndOfStream = "\n--- END OF STREAM ---\n"

// AppendFunc runs after every append when autoscroll is enabled.
type AppendFunc func(index int, line string)

// Buffer is an append-only list of log lines safe for concurrent use.
type Buffer struct {
	mu         sync.Mutex
	lines      []string
	autoscroll bool
	onAppend   AppendFunc
	closeOnce  sync.Once
	done       chan struct{}
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{done: make(chan struct{})}
}

// SetAutoscroll toggles the append hook. fn replaces the previous hook when
// not nil.
func (b *Buffer) SetAutoscroll(enabled bool, fn AppendFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.autoscroll = enabled
	if fn != nil {
		b.onAppend = fn
	}
}

// Append adds one line.
func (b *Buffer) Append(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	index := len(b.lines) - 1
	var hook AppendFunc
	if b.autoscroll {
		hook = b.onAppend
	}
	b.mu.Unlock()

	if hook != nil {
		hook(index, line)
	}
}

// Close appends the end of stream marker. Only the first call has an effect.
func (b *Buffer) Close() {
	b.closeOnce.Do(func() {
		b.Append(EndOfStream)
		close(b.done)
	})
}

// Done is closed once the stream has ended.
func (b *Buffer) Done() <-chan struct{} {
	return b.done
}

// Lines returns a copy of every line so far.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Len returns the number of lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// LogLines returns the lines numbered from 1 with their severity.
func (b *Buffer) LogLines() []entity.LogLine {
	lines := b.Lines()
	out := make([]entity.LogLine, 0, len(lines))
	for i, text := range lines {
		severity := entity.ClassifyLine(text)
		if text == EndOfStream {
			severity = entity.SeverityStream
		}
		out = append(out, entity.LogLine{Index: i + 1, Text: text, Severity: severity})
	}
	return out
}

// Save writes the received lines to path, one per line, without the end of
// stream marker.
func (b *Buffer) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range b.Lines() {
		if line == EndOfStream {
			continue
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write log file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return f.Close()
}
