// Package sources defines the ingestion origins of the node catalog and
// the raw record shape they produce. Each source reports node types with
// its own identifier casing and schema; the reconcile package is
// responsible for folding them into one canonical catalog.
//
// Three origins exist: the platform REST API, the public source
// repository, and the npm package registry. Records are keyed by
// (source, raw identifier) and upserted idempotently into the record
// store on every scrape run.
package sources

import (
	"context"
	"sync"
	"time"
)

// ID identifies an ingestion origin.
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Known ingestion origins.
const (
	// PlatformAPI is the vendor REST API of a running platform instance.
	PlatformAPI ID = "api"
	// Repository is the public source-code repository of the platform.
	Repository ID = "github"
	// Registry is the npm package registry (community packages).
	Registry ID = "npm"
)

// IDs returns all known source IDs in merge priority order, highest
// priority first. The reconcile package depends on this ordering.
func IDs() []ID {
	return []ID{PlatformAPI, Repository, Registry}
}

// Priority returns the merge precedence of a source. Lower is stronger;
// unknown sources sort last.
func Priority(id ID) int {
	for i, known := range IDs() {
		if known == id {
			return i
		}
	}
	return len(IDs())
}

// Record is one raw row as reported by a single source. RawType carries
// the source's own casing and format; normalization happens at catalog
// build time, not here.
type Record struct {
	Source      ID        `json:"source" yaml:"source"`
	RawType     string    `json:"node_type" yaml:"node_type"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at,omitempty" yaml:"scraped_at,omitempty"`

	// Author is the package author, reported by the registry only.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Origin locates the record within its source: a folder path for
	// the repository, a repository URL for registry packages.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`

	// Downloads is the registry download count, zero elsewhere.
	Downloads int `json:"downloads,omitempty" yaml:"downloads,omitempty"`
}

// Scraper fetches raw records from one origin. Implementations live in
// internal/sources and are deliberately thin: fetch, map, return.
// Retry and backoff policy is the caller's concern.
type Scraper interface {
	// ID returns the origin this scraper feeds.
	ID() ID

	// Scrape fetches all records currently visible at the origin.
	Scrape(ctx context.Context) ([]Record, error)
}

// Scrapers is a thread-safe container for registered scrapers.
type Scrapers struct {
	mu       sync.RWMutex
	scrapers map[ID]Scraper
}

// NewScrapers creates an empty Scrapers container.
func NewScrapers() *Scrapers {
	return &Scrapers{scrapers: make(map[ID]Scraper)}
}

// Get returns a scraper by ID.
func (s *Scrapers) Get(id ID) (Scraper, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scrapers[id]
	return sc, ok
}

// Set registers a scraper under its ID.
func (s *Scrapers) Set(sc Scraper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrapers[sc.ID()] = sc
}

// Delete removes a scraper by ID.
func (s *Scrapers) Delete(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scrapers, id)
}

// List returns registered scrapers in priority order.
func (s *Scrapers) List() []Scraper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Scraper, 0, len(s.scrapers))
	for _, id := range IDs() {
		if sc, ok := s.scrapers[id]; ok {
			out = append(out, sc)
		}
	}
	return out
}

// Len returns the number of registered scrapers.
func (s *Scrapers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scrapers)
}
