package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWorkflow = `{
  "name": "Notify on new lead",
  "nodes": [
    {
      "type": "n8n-nodes-base.webhookTrigger",
      "name": "Webhook",
      "position": [250, 300]
    },
    {
      "type": "n8n-nodes-base.slack",
      "name": "Slack",
      "position": [450, 300],
      "parameters": {"channel": "#leads"}
    }
  ],
  "connections": {
    "Webhook": {"main": [[{"node": "Slack", "type": "main", "index": 0}]]}
  }
}`

func TestValidateWellFormed(t *testing.T) {
	result, err := Validate([]byte(validWorkflow))
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateMissingConnections(t *testing.T) {
	doc := `{
	  "name": "wf",
	  "nodes": [{"type": "n8n-nodes-base.slack", "name": "Slack", "position": [0, 0]}]
	}`

	result, err := Validate([]byte(doc))
	require.NoError(t, err)

	// Missing connections is advisory only.
	assert.True(t, result.OK())
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, TopLevel, result.Warnings[0].NodeIndex)
	assert.Contains(t, result.Warnings[0].Message, "connections")
}

func TestValidateNodeMissingType(t *testing.T) {
	doc := `{
	  "name": "wf",
	  "nodes": [{"name": "Slack", "position": [0, 0]}],
	  "connections": {}
	}`

	result, err := Validate([]byte(doc))
	require.NoError(t, err)

	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].NodeIndex)
	assert.Contains(t, result.Errors[0].Message, "type")
}

func TestValidateMissingTopLevelFields(t *testing.T) {
	result, err := Validate([]byte(`{}`))
	require.NoError(t, err)

	assert.False(t, result.OK())
	require.Len(t, result.Errors, 2)
	for _, issue := range result.Errors {
		assert.Equal(t, TopLevel, issue.NodeIndex)
	}
}

func TestValidateNodeMissingPosition(t *testing.T) {
	doc := `{
	  "name": "wf",
	  "nodes": [
	    {"type": "n8n-nodes-base.slack", "name": "Slack", "position": [0, 0]},
	    {"type": "n8n-nodes-base.gmail", "name": "Gmail"}
	  ],
	  "connections": {}
	}`

	result, err := Validate([]byte(doc))
	require.NoError(t, err)

	assert.True(t, result.OK())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 1, result.Warnings[0].NodeIndex)
	assert.Contains(t, result.Warnings[0].Message, "position")
}

func TestValidateNodesNotAList(t *testing.T) {
	result, err := Validate([]byte(`{"name": "wf", "nodes": 42, "connections": {}}`))
	require.NoError(t, err)

	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "nodes")
}

func TestValidateNotJSON(t *testing.T) {
	_, err := Validate([]byte("not json"))
	assert.Error(t, err)
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "bad", Issue{Message: "bad", NodeIndex: TopLevel}.String())
	assert.Equal(t, "node 2: bad", Issue{Message: "bad", NodeIndex: 2}.String())
}

func TestParseRoundTrip(t *testing.T) {
	w, err := Parse([]byte(validWorkflow))
	require.NoError(t, err)
	assert.Equal(t, "Notify on new lead", w.Name)
	require.Len(t, w.Nodes, 2)
	assert.Equal(t, "n8n-nodes-base.slack", w.Nodes[1].Type)

	slack := w.NodeByName("Slack")
	require.NotNil(t, slack)
	assert.Equal(t, "#leads", slack.Parameters["channel"])
	assert.Nil(t, w.NodeByName("nope"))

	links := w.Connections["Webhook"].Main
	require.Len(t, links, 1)
	require.Len(t, links[0], 1)
	assert.Equal(t, "Slack", links[0][0].Node)

	encoded, err := w.Encode()
	require.NoError(t, err)

	result, err := Validate(encoded)
	require.NoError(t, err)
	assert.True(t, result.OK())
}
