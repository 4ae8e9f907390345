package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/nodeatlas/pkg/sources"
)

func TestScrape(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, NodesEndpoint, r.URL.Path)
		gotKey = r.Header.Get("X-N8N-API-KEY")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "n8n-nodes-base.slack", "displayName": "Slack",
			 "description": "Send messages", "version": 2,
			 "codex": {"categories": ["Communication"]}},
			{"name": "n8n-nodes-base.if", "displayName": "IF",
			 "group": ["transform"], "version": 1},
			{"name": "", "displayName": "nameless"}
		]`))
	}))
	defer srv.Close()

	s := New(srv.URL, "secret")
	records, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	require.Len(t, records, 2)

	assert.Equal(t, sources.PlatformAPI, records[0].Source)
	assert.Equal(t, "n8n-nodes-base.slack", records[0].RawType)
	assert.Equal(t, "Slack", records[0].DisplayName)
	assert.Equal(t, "Communication", records[0].Category)
	assert.Equal(t, "2", records[0].Version)

	// Falls back to the group when codex categories are absent.
	assert.Equal(t, "transform", records[1].Category)
	assert.False(t, records[0].ScrapedAt.IsZero())
}

func TestScrapeWorkflowFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case NodesEndpoint:
			http.NotFound(w, r)
		case WorkflowsEndpoint:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data": [
				{"nodes": [
					{"type": "n8n-nodes-base.slack", "name": "Notify team"},
					{"type": "n8n-nodes-base.if", "name": "Branch"}
				]},
				{"nodes": [
					{"type": "n8n-nodes-base.slack", "name": "Other name"},
					{"type": "", "name": "broken"}
				]}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	records, err := New(srv.URL, "secret").Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "n8n-nodes-base.slack", records[0].RawType)
	assert.Equal(t, "Notify team", records[0].DisplayName)
	assert.Equal(t, "n8n-nodes-base.if", records[1].RawType)
}

func TestDecodeWorkflowsBareArray(t *testing.T) {
	workflows, err := decodeWorkflows([]byte(`[{"nodes": [{"type": "n8n-nodes-base.set", "name": "Set"}]}]`))
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "n8n-nodes-base.set", workflows[0].Nodes[0].Type)
}

func TestScrapeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Scrape(context.Background())
	assert.Error(t, err)

	_, err = New("", "").Scrape(context.Background())
	assert.Error(t, err)
}
