package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
)

func testNodes() []catalogs.Node {
	return []catalogs.Node{
		{
			Type:        "n8n-nodes-base.gmail",
			DisplayName: "Gmail",
			Description: "Send and receive email using Gmail",
			Category:    catalogs.CategoryApp,
		},
		{
			Type:        "n8n-nodes-base.slack",
			DisplayName: "Slack",
			Description: "Send messages to Slack channels",
			Category:    catalogs.CategoryApp,
		},
		{
			Type:        "n8n-nodes-base.emailSend",
			DisplayName: "Send Email",
			Description: "Send an email via SMTP",
			Category:    catalogs.CategoryCore,
		},
		{
			Type:        "n8n-nodes-base.webhookTrigger",
			DisplayName: "Webhook Trigger",
			Description: "Starts the workflow on an incoming HTTP request",
			Category:    catalogs.CategoryTrigger,
		},
	}
}

func TestSearchEmailRanking(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())

	results := engine.Search(testNodes(), "email", Options{})
	require.NotEmpty(t, results)

	types := make([]string, len(results))
	gmailAt, slackAt := -1, -1
	for i, n := range results {
		types[i] = n.Type
		switch n.Type {
		case "n8n-nodes-base.gmail":
			gmailAt = i
		case "n8n-nodes-base.slack":
			slackAt = i
		}
	}

	// Gmail matches "email" both directly and through the synonym
	// group; Slack matches neither term anywhere.
	assert.NotEqual(t, -1, gmailAt, "gmail should match, got %v", types)
	assert.Equal(t, -1, slackAt, "slack should not match, got %v", types)
}

func TestSearchRelevanceOrder(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())
	nodes := []catalogs.Node{
		{Type: "n8n-nodes-base.httpRequest", DisplayName: "HTTP Request", Description: "Make HTTP requests"},
		{Type: "n8n-nodes-base.gmail", DisplayName: "Gmail", Description: "Work with Gmail email"},
	}

	results := engine.Search(nodes, "gmail", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "Gmail", results[0].DisplayName)

	// Exact display match outranks description-only matches.
	nodes = append(nodes, catalogs.Node{
		Type:        "n8n-nodes-base.other",
		DisplayName: "Other",
		Description: "Forwards to gmail",
	})
	results = engine.Search(nodes, "gmail", Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "Gmail", results[0].DisplayName)
}

func TestSearchEmptyQueryKeepsAll(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())
	nodes := testNodes()

	results := engine.Search(nodes, "", Options{})
	require.Len(t, results, len(nodes))
	for i := range nodes {
		assert.Equal(t, nodes[i].Type, results[i].Type)
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())

	results := engine.Search(testNodes(), "", Options{
		Categories: []catalogs.Category{catalogs.CategoryTrigger},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "n8n-nodes-base.webhookTrigger", results[0].Type)

	// CategoryAll disables the filter.
	results = engine.Search(testNodes(), "", Options{
		Categories: []catalogs.Category{catalogs.CategoryAll},
	})
	assert.Len(t, results, len(testNodes()))
}

func TestSearchSortModes(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())
	nodes := testNodes()

	byNameAsc := engine.Search(nodes, "", Options{Sort: SortNameAsc})
	require.Len(t, byNameAsc, len(nodes))
	for i := 1; i < len(byNameAsc); i++ {
		assert.LessOrEqual(t, byNameAsc[i-1].DisplayName, byNameAsc[i].DisplayName)
	}

	byNameDesc := engine.Search(nodes, "", Options{Sort: SortNameDesc})
	for i := 1; i < len(byNameDesc); i++ {
		assert.GreaterOrEqual(t, byNameDesc[i-1].DisplayName, byNameDesc[i].DisplayName)
	}

	byType := engine.Search(nodes, "", Options{Sort: SortType})
	for i := 1; i < len(byType); i++ {
		assert.LessOrEqual(t, byType[i-1].Type, byType[i].Type)
	}
}

func TestSearchDoesNotMutateInput(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())
	nodes := testNodes()
	original := make([]catalogs.Node, len(nodes))
	copy(original, nodes)

	engine.Search(nodes, "email", Options{Sort: SortNameDesc})
	assert.Equal(t, original, nodes)
}

func TestScoreWeights(t *testing.T) {
	node := catalogs.Node{
		Type:        "n8n-nodes-base.gmail",
		DisplayName: "Gmail",
		Description: "Work with Gmail",
	}

	// Exact display match: 100 exact + 30 type substring + 15 type
	// word bonus + 10 description + 20 display word bonus.
	assert.Equal(t, 175, Score(node, []string{"gmail"}))

	// Substring only in the description.
	assert.Equal(t, 10, Score(catalogs.Node{
		Type:        "n8n-nodes-base.other",
		DisplayName: "Other",
		Description: "Also speaks gmail",
	}, []string{"gmail"}))

	// No match at all.
	assert.Equal(t, 0, Score(node, []string{"calendar"}))
}

func TestExpandSymmetric(t *testing.T) {
	syn := MustEmbeddedSynonyms()

	// Every related term expands back to include its group term.
	for _, g := range syn.Groups() {
		for _, rel := range g.Related {
			expanded := syn.Expand(rel)
			assert.Contains(t, expanded, g.Term, "expanding %q should reach %q", rel, g.Term)
		}
	}
}

func TestSearchEmptyCatalog(t *testing.T) {
	engine := New(MustEmbeddedSynonyms())
	assert.Empty(t, engine.Search(nil, "email", Options{}))
}
