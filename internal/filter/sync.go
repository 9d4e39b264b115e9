package filter

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
)

// FetchFunc re-issues a list fetch with the filter query.
type FetchFunc func(ctx context.Context, query url.Values) error

// Sync binds a filter state parsed from a page location to a list fetch.
type Sync struct {
	mu      sync.Mutex
	keys    []string
	filters Filters
	fetch   FetchFunc
}

// NewSync returns a Sync over the categories in keys.
func NewSync(keys []string, fetch FetchFunc) *Sync {
	return &Sync{
		keys:    keys,
		filters: New(keys...),
		fetch:   fetch,
	}
}

// Load parses the filters out of rawURL and issues the initial fetch.
func (s *Sync) Load(ctx context.Context, rawURL string) error {
	if err := s.Bind(rawURL); err != nil {
		return err
	}
	return s.run(ctx, s.Filters().Query())
}

// Bind parses the filters out of rawURL without fetching.
func (s *Sync) Bind(rawURL string) error {
	location, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse location: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = Parse(s.keys, location.Query())
	return nil
}

// Apply replaces the filter state with f and re-issues the fetch.
func (s *Sync) Apply(ctx context.Context, f Filters) error {
	s.mu.Lock()
	s.filters = Parse(s.keys, f.Query())
	query := s.filters.Query()
	s.mu.Unlock()

	return s.run(ctx, query)
}

// Clear empties every category and issues an unfiltered fetch.
func (s *Sync) Clear(ctx context.Context) error {
	return s.Apply(ctx, New(s.keys...))
}

// Filters returns a copy of the current filter state.
func (s *Sync) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Parse(s.keys, s.filters.Query())
}

func (s *Sync) run(ctx context.Context, query url.Values) error {
	if s.fetch == nil {
		return nil
	}
	if err := s.fetch(ctx, query); err != nil {
		log.Printf("[filter.Sync] fetch failed: %v", err)
		return err
	}
	return nil
}
