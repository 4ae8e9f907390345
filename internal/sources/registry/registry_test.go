package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

func TestScrapePaginates(t *testing.T) {
	var froms []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from, _ := strconv.Atoi(r.URL.Query().Get("from"))
		froms = append(froms, from)
		w.Header().Set("Content-Type", "application/json")

		if from > 0 {
			// Short second page ends pagination.
			fmt.Fprint(w, `{"objects": [
				{"package": {"name": "n8n-nodes-weather", "version": "1.2.0",
					"description": "Weather data", "author": {"name": "jan"},
					"links": {"repository": "https://github.com/jan/n8n-nodes-weather"}},
				 "downloads": {"monthly": 340}}
			], "total": 251}`)
			return
		}

		// Full first page: one real package padded to page size, plus
		// one package that fails the naming convention.
		fmt.Fprint(w, `{"objects": [`)
		for i := 0; i < 249; i++ {
			fmt.Fprintf(w, `{"package": {"name": "n8n-nodes-pad%d", "version": "1.0.0"}},`, i)
		}
		fmt.Fprint(w, `{"package": {"name": "left-pad", "version": "9.9.9"}}], "total": 251}`)
	}))
	defer srv.Close()

	s := New(WithSearchURL(srv.URL))
	records, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 250}, froms)
	require.Len(t, records, 250)

	last := records[len(records)-1]
	assert.Equal(t, sources.Registry, last.Source)
	assert.Equal(t, "n8n-nodes-weather", last.RawType)
	assert.Equal(t, "Weather", last.DisplayName)
	assert.Equal(t, string(catalogs.CategoryCommunity), last.Category)
	assert.Equal(t, "jan", last.Author)
	assert.Equal(t, 340, last.Downloads)
	assert.Equal(t, "https://github.com/jan/n8n-nodes-weather", last.Origin)
}

func TestScrapeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(WithSearchURL(srv.URL)).Scrape(context.Background())
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		pkg  string
		want string
	}{
		{"n8n-nodes-weather", "Weather"},
		{"n8n-nodes-weather-api", "Weather Api"},
		{"@scope/n8n-nodes-pdf-tools", "Pdf Tools"},
		{"n8n-nodes-base", "Base"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, displayName(tt.pkg), tt.pkg)
	}
}
