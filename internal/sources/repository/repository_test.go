package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/agentstation/nodeatlas/pkg/sources"
)

func unthrottled() Option {
	return WithLimiter(rate.NewLimiter(rate.Inf, 1))
}

func TestScrape(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/n8n-io/n8n/contents/packages/nodes-base/nodes":
			fmt.Fprintf(w, `[
				{"name": "Slack", "path": "packages/nodes-base/nodes/Slack", "type": "dir"},
				{"name": "README.md", "path": "packages/nodes-base/nodes/README.md", "type": "file"}
			]`)
		case "/repos/n8n-io/n8n/contents/packages/nodes-base/nodes/Slack":
			fmt.Fprintf(w, `[
				{"name": "Slack.node.json", "path": "packages/nodes-base/nodes/Slack/Slack.node.json",
				 "type": "file", "download_url": "%s/raw/Slack.node.json"},
				{"name": "Slack.node.ts", "path": "packages/nodes-base/nodes/Slack/Slack.node.ts", "type": "file"}
			]`, srv.URL)
		case "/raw/Slack.node.json":
			fmt.Fprint(w, `{"node": "n8n-nodes-base.slack", "nodeVersion": "2.1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := New("", WithAPIURL(srv.URL), unthrottled())
	records, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, sources.Repository, r.Source)
	assert.Equal(t, "n8n-nodes-base.slack", r.RawType)
	assert.Equal(t, "Slack", r.DisplayName)
	assert.Equal(t, "2.1", r.Version)
	assert.Equal(t, "packages/nodes-base/nodes/Slack", r.Origin)
}

func TestScrapeSendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New("tok123", WithAPIURL(srv.URL), unthrottled()).Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestScrapeRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New("", WithAPIURL(srv.URL), unthrottled()).Scrape(context.Background())
	require.Error(t, err)
}
