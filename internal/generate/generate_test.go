package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/nodeatlas/pkg/workflows"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"name": "wf"}`, `{"name": "wf"}`},
		{"fenced", "```\n{\"name\": \"wf\"}\n```", `{"name": "wf"}`},
		{"fenced with tag", "```json\n{\"name\": \"wf\"}\n```", `{"name": "wf"}`},
		{"surrounding whitespace", "\n\n```json\n{}\n```\n", `{}`},
		{"fence chars inside", "```json\n{\"name\": \"a`b\"}\n```", "{\"name\": \"a`b\"}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := buildPrompt([]workflows.Summary{
		{Type: "n8n-nodes-base.slack", DisplayName: "Slack", Operations: []string{"message: post"}},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "n8n-nodes-base.slack")
	assert.Contains(t, prompt, "message: post")

	_, err = buildPrompt(nil)
	assert.Error(t, err)
}

func TestFinishResultAssignsIDs(t *testing.T) {
	raw := []byte(`{
		"name": "wf",
		"nodes": [
			{"type": "n8n-nodes-base.slack", "name": "Slack", "position": [0, 0]},
			{"type": "n8n-nodes-base.gmail", "name": "Gmail", "position": [200, 0], "id": "keep-me"}
		],
		"connections": {}
	}`)

	result, err := finishResult(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, result.Workflow)
	assert.True(t, result.Validation.OK())

	assert.NotEmpty(t, result.Workflow.Nodes[0].ID)
	assert.Equal(t, "keep-me", result.Workflow.Nodes[1].ID)
}

func TestFinishResultStructuralError(t *testing.T) {
	result, err := finishResult(context.Background(), []byte(`{"name": "wf", "nodes": [{"name": "x"}]}`))
	require.NoError(t, err)

	assert.Nil(t, result.Workflow)
	assert.False(t, result.Validation.OK())
	assert.NotEmpty(t, result.Raw)
}

func TestFinishResultNotJSON(t *testing.T) {
	_, err := finishResult(context.Background(), []byte("sorry, I cannot help"))
	assert.Error(t, err)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}
