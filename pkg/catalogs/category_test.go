package catalogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name           string
		nodeType       string
		sourceCategory string
		want           Category
	}{
		{
			name:     "trigger beats core keyword",
			nodeType: "n8n-nodes-base.webhookTrigger",
			want:     CategoryTrigger,
		},
		{
			name:     "core keyword",
			nodeType: "n8n-nodes-base.webhook",
			want:     CategoryCore,
		},
		{
			name:     "core keyword case-insensitive",
			nodeType: "n8n-nodes-base.dateTime",
			want:     CategoryCore,
		},
		{
			name:     "plain app node",
			nodeType: "n8n-nodes-base.gmail",
			want:     CategoryApp,
		},
		{
			name:     "first-party trigger",
			nodeType: "n8n-nodes-base.gmailTrigger",
			want:     CategoryTrigger,
		},
		{
			name:     "community scoped package",
			nodeType: "@acme/n8n-nodes-widget",
			want:     CategoryCommunity,
		},
		{
			name:     "scoped langchain package is community by rule order",
			nodeType: "@n8n/n8n-nodes-langchain.agent",
			want:     CategoryCommunity,
		},
		{
			name:     "langchain marker without scope",
			nodeType: "n8n-nodes-langchain.lmChatOpenAi",
			want:     CategoryLangChain,
		},
		{
			name:     "custom prefix",
			nodeType: "CUSTOM.internalTool",
			want:     CategoryCustom,
		},
		{
			name:           "fallback carries source category",
			nodeType:       "some-other-package.thing",
			sourceCategory: "Analytics",
			want:           Category("Analytics"),
		},
		{
			name:     "fallback without source category",
			nodeType: "some-other-package.thing",
			want:     CategoryUnknown,
		},
		{
			name:     "empty identifier",
			nodeType: "",
			want:     CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.nodeType, tt.sourceCategory))
		})
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	// Same identifier, same answer, every time.
	for i := 0; i < 100; i++ {
		assert.Equal(t, CategoryTrigger, Categorize("n8n-nodes-base.webhookTrigger", ""))
	}
}
