// Package repository scrapes node type metadata from the platform's
// public source repository via the GitHub contents API. Each node
// lives in its own folder with a codex file (*.node.json) naming the
// exact, case-correct node type identifier.
package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/nodeatlas/pkg/constants"
	"github.com/agentstation/nodeatlas/pkg/errors"
	"github.com/agentstation/nodeatlas/pkg/logging"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

const (
	// DefaultRepo is the upstream platform repository.
	DefaultRepo = "n8n-io/n8n"

	// DefaultNodesPath is the folder holding first-party node sources.
	DefaultNodesPath = "packages/nodes-base/nodes"

	githubAPI = "https://api.github.com"
)

// Scraper crawls the repository's nodes folder.
type Scraper struct {
	apiURL    string
	repo      string
	nodesPath string
	token     string
	client    *http.Client
	limiter   *rate.Limiter
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithLimiter overrides the request rate limiter. The default stays
// under GitHub's unauthenticated quota.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithAPIURL overrides the GitHub API base URL.
func WithAPIURL(url string) Option {
	return func(s *Scraper) { s.apiURL = strings.TrimRight(url, "/") }
}

// WithRepo overrides the "owner/name" repository slug.
func WithRepo(repo string) Option {
	return func(s *Scraper) { s.repo = repo }
}

// WithNodesPath overrides the folder crawled for node codex files.
func WithNodesPath(path string) Option {
	return func(s *Scraper) { s.nodesPath = strings.Trim(path, "/") }
}

// New creates a repository scraper. token may be empty; authenticated
// requests get a higher rate quota.
func New(token string, opts ...Option) *Scraper {
	s := &Scraper{
		apiURL:    githubAPI,
		repo:      DefaultRepo,
		nodesPath: DefaultNodesPath,
		token:     token,
		client:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the origin this scraper feeds.
func (s *Scraper) ID() sources.ID {
	return sources.Repository
}

// entry is one item of a GitHub contents listing.
type entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// codex is the *.node.json file shape.
type codex struct {
	Node        string `json:"node"`
	NodeVersion string `json:"nodeVersion"`
}

// Scrape walks the nodes folder and maps each codex file to a record.
func (s *Scraper) Scrape(ctx context.Context) ([]sources.Record, error) {
	folders, err := s.listDir(ctx, s.nodesPath)
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	now := time.Now()
	var records []sources.Record
	for _, folder := range folders {
		if folder.Type != "dir" {
			continue
		}
		files, err := s.listDir(ctx, folder.Path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.Type != "file" || !strings.HasSuffix(f.Name, ".node.json") {
				continue
			}
			cx, err := s.fetchCodex(ctx, f.DownloadURL)
			if err != nil {
				// Codex files are best effort; a single bad file
				// must not sink the whole crawl.
				log.Warn().Err(err).Str("path", f.Path).Msg("skipping unreadable codex file")
				continue
			}
			if cx.Node == "" {
				continue
			}
			records = append(records, sources.Record{
				Source:      sources.Repository,
				RawType:     cx.Node,
				DisplayName: folder.Name,
				Version:     cx.NodeVersion,
				Origin:      folder.Path,
				ScrapedAt:   now,
			})
		}
	}

	log.Debug().
		Str("source", string(sources.Repository)).
		Int("records", len(records)).
		Msg("scraped repository nodes folder")
	return records, nil
}

func (s *Scraper) listDir(ctx context.Context, path string) ([]entry, error) {
	url := s.apiURL + "/repos/" + s.repo + "/contents/" + path

	body, err := s.get(ctx, url, "application/vnd.github.v3+json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var entries []entry
	if err := json.NewDecoder(body).Decode(&entries); err != nil {
		return nil, errors.WrapParse("contents", url, err)
	}
	return entries, nil
}

func (s *Scraper) fetchCodex(ctx context.Context, url string) (codex, error) {
	var cx codex
	body, err := s.get(ctx, url, "application/json")
	if err != nil {
		return cx, err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(&cx); err != nil {
		return cx, errors.WrapParse("codex", url, err)
	}
	return cx, nil
}

func (s *Scraper) get(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", url, err)
	}
	req.Header.Set("Accept", accept)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapAPI("github", 0, err)
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, errors.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		status := resp.Status
		resp.Body.Close()
		return nil, errors.NewAPIError("github", resp.StatusCode, status)
	}
	return resp.Body, nil
}
