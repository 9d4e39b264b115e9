package logstream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blankon/cidash/internal/entity"
)

// ErrBadSelection is returned for a malformed line selection.
var ErrBadSelection = errors.New("invalid line selection")

// Selection is an inclusive range of 1-based line numbers, as carried in
// the url fragment: "#12" or "#12-30".
type Selection struct {
	Start int
	End   int
}

// ParseSelection reads a fragment with or without its leading '#'. An empty
// fragment gives the zero Selection.
func ParseSelection(fragment string) (Selection, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return Selection{}, nil
	}

	first, last, ranged := strings.Cut(fragment, "-")
	start, err := strconv.Atoi(first)
	if err != nil || start < 1 {
		return Selection{}, ErrBadSelection
	}
	end := start
	if ranged {
		end, err = strconv.Atoi(last)
		if err != nil || end < 1 {
			return Selection{}, ErrBadSelection
		}
	}
	if end < start {
		start, end = end, start
	}
	return Selection{Start: start, End: end}, nil
}

// IsZero reports whether nothing is selected.
func (s Selection) IsZero() bool {
	return s.Start == 0
}

// Contains reports whether line n is selected.
func (s Selection) Contains(n int) bool {
	return !s.IsZero() && n >= s.Start && n <= s.End
}

func (s Selection) String() string {
	if s.IsZero() {
		return ""
	}
	if s.Start == s.End {
		return strconv.Itoa(s.Start)
	}
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Apply returns the selected lines, or all of them when nothing is selected.
func (s Selection) Apply(lines []entity.LogLine) []entity.LogLine {
	if s.IsZero() {
		return lines
	}
	var out []entity.LogLine
	for _, line := range lines {
		if s.Contains(line.Index) {
			out = append(out, line)
		}
	}
	return out
}
