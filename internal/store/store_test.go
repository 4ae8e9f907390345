package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/nodeatlas/pkg/casing"
	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigrates(t *testing.T) {
	s := openTestStore(t)

	counts, err := s.Count(context.Background())
	require.NoError(t, err)
	for _, id := range sources.IDs() {
		assert.Equal(t, 0, counts[id])
	}
}

func TestOpenDirectoryPath(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, filepath.Join(dir, DefaultFile), s.Path())
}

func TestUpsertRecordsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []sources.Record{
		{
			Source:      sources.PlatformAPI,
			RawType:     "n8n-nodes-base.slack",
			DisplayName: "Slack",
			Description: "Send messages",
			Category:    "Communication",
			Version:     "2",
			ScrapedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	n, err := s.UpsertRecords(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Second run overwrites, never duplicates.
	records[0].Description = "Send messages to Slack"
	_, err = s.UpsertRecords(ctx, records)
	require.NoError(t, err)

	got, err := s.Records(ctx, sources.PlatformAPI)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Send messages to Slack", got[0].Description)
	assert.Equal(t, "Communication", got[0].Category)
	assert.Equal(t, sources.PlatformAPI, got[0].Source)
	assert.Equal(t, records[0].ScrapedAt, got[0].ScrapedAt)
}

func TestUpsertRecordsRoutesBySource(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertRecords(ctx, []sources.Record{
		{Source: sources.PlatformAPI, RawType: "n8n-nodes-base.slack"},
		{Source: sources.Repository, RawType: "n8n-nodes-base.Slack", Origin: "packages/nodes-base/nodes/Slack"},
		{Source: sources.Registry, RawType: "n8n-nodes-weather", Author: "jan", Downloads: 1200,
			Origin: "https://github.com/jan/n8n-nodes-weather"},
	})
	require.NoError(t, err)

	all, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "packages/nodes-base/nodes/Slack", all[sources.Repository][0].Origin)
	assert.Equal(t, 1200, all[sources.Registry][0].Downloads)
	assert.Equal(t, "jan", all[sources.Registry][0].Author)
	// Community rows always read back with the Community category.
	assert.Equal(t, "Community", all[sources.Registry][0].Category)
}

func TestUpsertRecordsSkipsEmptyAndRejectsUnknown(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.UpsertRecords(ctx, []sources.Record{
		{Source: sources.PlatformAPI, RawType: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.UpsertRecords(ctx, []sources.Record{
		{Source: sources.ID("carrier-pigeon"), RawType: "x"},
	})
	assert.Error(t, err)
}

func TestRecordsUnknownSource(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Records(context.Background(), sources.ID("carrier-pigeon"))
	assert.Error(t, err)
}

func casingFixture(t *testing.T) *casing.Table {
	t.Helper()
	tbl, err := casing.Parse([]byte(`
version: 1
corrections:
  - from: n8n-nodes-base.activecampaign
    to: n8n-nodes-base.activeCampaign
`))
	require.NoError(t, err)
	return tbl
}

func TestApplyCasing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertRecords(ctx, []sources.Record{
		{Source: sources.PlatformAPI, RawType: "n8n-nodes-base.activecampaign"},
		{Source: sources.Repository, RawType: "n8n-nodes-base.activeCampaign"},
	})
	require.NoError(t, err)

	tbl := casingFixture(t)

	mismatches, err := s.CheckCasing(ctx, tbl)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "node_types_api", mismatches[0].Table)
	assert.Equal(t, "n8n-nodes-base.activecampaign", mismatches[0].Current)
	assert.Equal(t, "n8n-nodes-base.activeCampaign", mismatches[0].Want)

	n, err := s.ApplyCasing(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Records(ctx, sources.PlatformAPI)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n8n-nodes-base.activeCampaign", got[0].RawType)

	// Second apply is a no-op.
	n, err = s.ApplyCasing(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestApplyCasingFoldsDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Both casings present in the same table; the rewrite must fold
	// them into one canonical row.
	_, err := s.UpsertRecords(ctx, []sources.Record{
		{Source: sources.PlatformAPI, RawType: "n8n-nodes-base.activecampaign"},
		{Source: sources.PlatformAPI, RawType: "n8n-nodes-base.activeCampaign"},
	})
	require.NoError(t, err)

	_, err = s.ApplyCasing(ctx, casingFixture(t))
	require.NoError(t, err)

	got, err := s.Records(ctx, sources.PlatformAPI)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n8n-nodes-base.activeCampaign", got[0].RawType)
}

func TestDetailsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	details := catalogs.Details{
		Operations: []catalogs.Operation{
			{NodeType: "n8n-nodes-base.slack", Resource: "message", Operation: "post"},
		},
		Parameters: []catalogs.Parameter{
			{NodeType: "n8n-nodes-base.slack", Resource: "message", Operation: "post",
				Name: "channel", Type: "string", Required: true},
		},
		Credentials: []catalogs.Credential{
			{NodeType: "n8n-nodes-base.slack", CredentialType: "slackApi", Required: true},
		},
	}
	require.NoError(t, s.UpsertDetails(ctx, "n8n-nodes-base.slack", details))

	// Overwrite one parameter; unique keys dedupe.
	details.Parameters[0].Description = "Channel to post to"
	require.NoError(t, s.UpsertDetails(ctx, "n8n-nodes-base.slack", details))

	got, err := s.Details(ctx, "N8N-NODES-BASE.SLACK")
	require.NoError(t, err)
	require.Len(t, got.Operations, 1)
	require.Len(t, got.Parameters, 1)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, "Channel to post to", got.Parameters[0].Description)
	assert.True(t, got.Parameters[0].Required)
}

func TestDetailsNormalized(t *testing.T) {
	tbl := casingFixture(t)
	s := openTestStore(t, WithNormalizer(tbl.Normalize))
	ctx := context.Background()

	require.NoError(t, s.UpsertDetails(ctx, "n8n-nodes-base.activecampaign", catalogs.Details{
		Operations: []catalogs.Operation{{Operation: "create"}},
	}))

	got, err := s.Details(ctx, "n8n-nodes-base.activecampaign")
	require.NoError(t, err)
	require.Len(t, got.Operations, 1)
	assert.Equal(t, "n8n-nodes-base.activeCampaign", got.Operations[0].NodeType)
}

func TestDetailsEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Details(context.Background(), "n8n-nodes-base.nothing")
	require.NoError(t, err)
	assert.Empty(t, got.Operations)
	assert.Empty(t, got.Parameters)
	assert.Empty(t, got.Credentials)
}
