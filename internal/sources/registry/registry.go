// Package registry scrapes community node packages from the npm
// registry search API. Community packages are identified by the
// "n8n-nodes" naming convention; the package name doubles as the raw
// identifier until reconciliation.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/constants"
	"github.com/agentstation/nodeatlas/pkg/errors"
	"github.com/agentstation/nodeatlas/pkg/logging"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

const (
	// DefaultSearchURL is the npm registry search endpoint.
	DefaultSearchURL = "https://registry.npmjs.org/-/v1/search"

	// DefaultQuery finds community node packages by convention.
	DefaultQuery = "n8n-nodes"

	pageSize = 250
	maxPages = 20
)

// Scraper pages through npm search results.
type Scraper struct {
	searchURL string
	query     string
	client    *http.Client
	limiter   *rate.Limiter
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithLimiter overrides the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithSearchURL overrides the search endpoint.
func WithSearchURL(u string) Option {
	return func(s *Scraper) { s.searchURL = u }
}

// WithQuery overrides the search text.
func WithQuery(q string) Option {
	return func(s *Scraper) { s.query = q }
}

// New creates a registry scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		searchURL: DefaultSearchURL,
		query:     DefaultQuery,
		client:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the origin this scraper feeds.
func (s *Scraper) ID() sources.ID {
	return sources.Registry
}

type searchResult struct {
	Objects []struct {
		Package struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Description string `json:"description"`
			Author      struct {
				Name string `json:"name"`
			} `json:"author"`
			Links struct {
				Repository string `json:"repository"`
			} `json:"links"`
		} `json:"package"`
		Downloads struct {
			Monthly int `json:"monthly"`
		} `json:"downloads"`
	} `json:"objects"`
	Total int `json:"total"`
}

// Scrape pages through the search results until the registry reports
// no more matches.
func (s *Scraper) Scrape(ctx context.Context) ([]sources.Record, error) {
	now := time.Now()
	var records []sources.Record

	for page := 0; page < maxPages; page++ {
		result, err := s.fetchPage(ctx, page*pageSize)
		if err != nil {
			return nil, err
		}
		for _, obj := range result.Objects {
			pkg := obj.Package
			if pkg.Name == "" || !strings.Contains(pkg.Name, "n8n-nodes") {
				continue
			}
			records = append(records, sources.Record{
				Source:      sources.Registry,
				RawType:     pkg.Name,
				DisplayName: displayName(pkg.Name),
				Description: pkg.Description,
				Category:    string(catalogs.CategoryCommunity),
				Version:     pkg.Version,
				Author:      pkg.Author.Name,
				Origin:      pkg.Links.Repository,
				Downloads:   obj.Downloads.Monthly,
				ScrapedAt:   now,
			})
		}
		if len(result.Objects) < pageSize {
			break
		}
	}

	logging.Ctx(ctx).Debug().
		Str("source", string(sources.Registry)).
		Int("records", len(records)).
		Msg("scraped registry packages")
	return records, nil
}

func (s *Scraper) fetchPage(ctx context.Context, from int) (*searchResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s?text=%s&size=%d&from=%d",
		s.searchURL, url.QueryEscape(s.query), pageSize, from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapAPI("npm", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAPIError("npm", resp.StatusCode, resp.Status)
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.WrapParse("search results", endpoint, err)
	}
	return &result, nil
}

// displayName derives a readable name from a package name:
// "@scope/n8n-nodes-weather-api" becomes "Weather Api".
func displayName(pkg string) string {
	name := pkg
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimPrefix(name, "n8n-nodes-")
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
