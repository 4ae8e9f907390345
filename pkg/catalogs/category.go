package catalogs

import "strings"

// Category classifies a node type by function.
type Category string

// String returns the string representation of a category.
func (c Category) String() string {
	return string(c)
}

// Node categories.
const (
	// CategoryTrigger marks event-driven entry point nodes.
	CategoryTrigger Category = "Trigger"
	// CategoryCore marks first-party utility nodes (webhook, code, merge, ...).
	CategoryCore Category = "Core"
	// CategoryApp marks first-party third-service integration nodes.
	CategoryApp Category = "App"
	// CategoryLangChain marks nodes from the LangChain ecosystem package.
	CategoryLangChain Category = "LangChain"
	// CategoryCommunity marks community packages from the registry.
	// Scoped names are recognized by pattern; unscoped ones carry the
	// category from their source record.
	CategoryCommunity Category = "Community"
	// CategoryCustom marks locally installed custom nodes.
	CategoryCustom Category = "Custom"
	// CategoryUnknown is the fallback for unclassifiable identifiers.
	CategoryUnknown Category = "Unknown"

	// CategoryAll is a filter sentinel, never assigned to a node.
	CategoryAll Category = "All"
)

// Categories returns all assignable categories in display order.
func Categories() []Category {
	return []Category{
		CategoryTrigger,
		CategoryCore,
		CategoryApp,
		CategoryLangChain,
		CategoryCommunity,
		CategoryCustom,
		CategoryUnknown,
	}
}

// Identifier markers. firstPartyPrefix is the first-party node package;
// customPrefix marks locally installed nodes.
const (
	firstPartyPrefix = "n8n-nodes-base."
	communityMarker  = "n8n-nodes"
	langChainMarker  = "langchain"
	customPrefix     = "CUSTOM."
)

// coreKeywords classify first-party utility nodes. Matched as
// case-insensitive substrings of the local node name.
var coreKeywords = []string{
	"webhook", "cron", "schedule", "manual", "code", "set", "if", "switch",
	"merge", "split", "function", "crypto", "datetime", "filter", "sort",
	"limit", "aggregate", "compress", "convert", "edit", "html", "xml",
	"jwt", "wait", "noop", "error", "debug", "sticky",
}

// Categorize classifies a canonical node type identifier. The fallback
// carries a source-supplied category when one is present, so entries
// from sources with their own taxonomy are not flattened to Unknown.
//
// Rule order matters: an identifier can satisfy several patterns
// ("webhookTrigger" contains both a trigger and a core keyword), and
// the first matching rule wins.
func Categorize(nodeType, sourceCategory string) Category {
	if nodeType == "" {
		return CategoryUnknown
	}

	// Community packages are scoped npm names containing the node marker.
	// Checked before the LangChain marker: a scoped package wins even
	// when its name mentions langchain.
	if strings.HasPrefix(nodeType, "@") && strings.Contains(nodeType, communityMarker) {
		return CategoryCommunity
	}

	if strings.Contains(strings.ToLower(nodeType), langChainMarker) {
		return CategoryLangChain
	}

	if strings.HasPrefix(nodeType, firstPartyPrefix) {
		local := strings.ToLower(strings.TrimPrefix(nodeType, firstPartyPrefix))

		if strings.Contains(local, "trigger") {
			return CategoryTrigger
		}
		for _, kw := range coreKeywords {
			if strings.Contains(local, kw) {
				return CategoryCore
			}
		}
		return CategoryApp
	}

	if strings.HasPrefix(nodeType, customPrefix) {
		return CategoryCustom
	}

	if sourceCategory != "" {
		return Category(sourceCategory)
	}
	return CategoryUnknown
}
