// Package platform scrapes node type metadata from a running platform
// instance's REST API. The scraper is deliberately thin: fetch, map,
// return. Retry and backoff are the caller's concern.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
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
	// NodesEndpoint serves the full node type manifest of an instance.
	NodesEndpoint = "/types/nodes.json"

	// WorkflowsEndpoint lists the instance's workflows. Used as a
	// fallback when the manifest is not exposed: the node types in use
	// are extracted from the workflow definitions instead.
	WorkflowsEndpoint = "/api/v1/workflows"
)

// Scraper fetches node types from the platform REST API.
type Scraper struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
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

// New creates a platform API scraper. baseURL is the instance root,
// e.g. "https://n8n.example.com"; apiKey may be empty for instances
// that expose the manifest without auth.
func New(baseURL, apiKey string, opts ...Option) *Scraper {
	s := &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: constants.DefaultHTTPTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the origin this scraper feeds.
func (s *Scraper) ID() sources.ID {
	return sources.PlatformAPI
}

// nodeType is the manifest entry shape. Only the fields the catalog
// needs are decoded.
type nodeType struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Version     float64  `json:"version"`
	Group       []string `json:"group"`
	Codex       struct {
		Categories []string `json:"categories"`
	} `json:"codex"`
}

// Scrape fetches the node manifest and maps it to raw records. When
// the manifest endpoint is not exposed, it falls back to extracting
// the node types referenced by the instance's workflows.
func (s *Scraper) Scrape(ctx context.Context) ([]sources.Record, error) {
	if s.baseURL == "" {
		return nil, errors.NewValidationError("base_url", "", "platform API base URL is required")
	}

	manifest, err := s.fetchManifest(ctx)
	if err != nil {
		var apiErr *errors.APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}
		logging.Ctx(ctx).Debug().
			Int("status", apiErr.StatusCode).
			Msg("node manifest unavailable, extracting types from workflows")
		return s.scrapeWorkflows(ctx)
	}

	now := time.Now()
	records := make([]sources.Record, 0, len(manifest))
	for _, nt := range manifest {
		if nt.Name == "" {
			continue
		}
		records = append(records, sources.Record{
			Source:      sources.PlatformAPI,
			RawType:     nt.Name,
			DisplayName: nt.DisplayName,
			Description: nt.Description,
			Category:    category(nt),
			Version:     formatVersion(nt.Version),
			ScrapedAt:   now,
		})
	}

	logging.Ctx(ctx).Debug().
		Str("source", string(sources.PlatformAPI)).
		Int("records", len(records)).
		Msg("scraped platform API manifest")
	return records, nil
}

func (s *Scraper) fetchManifest(ctx context.Context) ([]nodeType, error) {
	body, err := s.get(ctx, s.baseURL+NodesEndpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var manifest []nodeType
	if err := json.NewDecoder(body).Decode(&manifest); err != nil {
		return nil, errors.WrapParse("manifest", NodesEndpoint, err)
	}
	return manifest, nil
}

// workflow is one workflow definition as returned by the workflows
// endpoint. Only the embedded node references are decoded.
type workflow struct {
	Nodes []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"nodes"`
}

// decodeWorkflows accepts both payload shapes the endpoint is known to
// produce: a {"data": [...]} envelope and a bare array.
func decodeWorkflows(raw []byte) ([]workflow, error) {
	var envelope struct {
		Data []workflow `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	var bare []workflow
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

// scrapeWorkflows derives records from the node types referenced by
// the instance's workflows. Display names come from the node instance
// names; description, category, and version are unknown here.
func (s *Scraper) scrapeWorkflows(ctx context.Context) ([]sources.Record, error) {
	body, err := s.get(ctx, s.baseURL+WorkflowsEndpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.WrapAPI("api", 0, err)
	}
	workflows, err := decodeWorkflows(raw)
	if err != nil {
		return nil, errors.WrapParse("workflows", WorkflowsEndpoint, err)
	}

	now := time.Now()
	seen := make(map[string]bool)
	var records []sources.Record
	for _, wf := range workflows {
		for _, n := range wf.Nodes {
			if n.Type == "" || seen[n.Type] {
				continue
			}
			seen[n.Type] = true
			records = append(records, sources.Record{
				Source:      sources.PlatformAPI,
				RawType:     n.Type,
				DisplayName: n.Name,
				ScrapedAt:   now,
			})
		}
	}

	logging.Ctx(ctx).Debug().
		Str("source", string(sources.PlatformAPI)).
		Int("records", len(records)).
		Msg("extracted node types from workflows")
	return records, nil
}

func (s *Scraper) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-N8N-API-KEY", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapAPI("api", 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewAPIError("api", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

func category(nt nodeType) string {
	if len(nt.Codex.Categories) > 0 {
		return nt.Codex.Categories[0]
	}
	if len(nt.Group) > 0 {
		return nt.Group[0]
	}
	return ""
}

func formatVersion(v float64) string {
	if v == 0 {
		return ""
	}
	return strings.TrimSuffix(fmt.Sprintf("%g", v), ".0")
}
