// Package search answers queries over the canonical node catalog. A
// query is expanded through a curated synonym table, matched as
// case-insensitive substrings against identifier, display name, and
// description, and the hits are ordered by an additive relevance
// score. The engine is pure: it never mutates the catalog it is given
// and returns an empty result rather than an error when nothing
// matches.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
)

// SortMode selects the result ordering.
type SortMode string

// Available sort modes.
const (
	// SortRelevance orders by descending relevance score. Only
	// meaningful with a non-empty query; otherwise the catalog's base
	// order is kept.
	SortRelevance SortMode = "relevance"
	// SortNameAsc orders by display name ascending.
	SortNameAsc SortMode = "name-asc"
	// SortNameDesc orders by display name descending.
	SortNameDesc SortMode = "name-desc"
	// SortType orders by canonical identifier ascending.
	SortType SortMode = "type"
	// SortCategory orders by category, then display name.
	SortCategory SortMode = "category"
)

// Relevance score weights. Word-boundary bonuses are additive on top
// of the substring scores, not alternatives to them.
const (
	scoreDisplayExact   = 100
	scoreDisplaySub     = 50
	scoreTypeExact      = 80
	scoreTypeSub        = 30
	scoreDescriptionSub = 10
	bonusDisplayWord    = 20
	bonusTypeWord       = 15
)

// Options configure one search call.
type Options struct {
	// Categories restricts results to the given categories. Empty, or
	// containing catalogs.CategoryAll, means no restriction.
	Categories []catalogs.Category

	// Sort selects the result ordering. Defaults to SortRelevance.
	Sort SortMode
}

// Engine searches node catalogs with synonym expansion.
type Engine struct {
	synonyms *Synonyms
}

// New creates an Engine using the given synonym table. A nil table
// disables expansion; queries then match literally.
func New(synonyms *Synonyms) *Engine {
	return &Engine{synonyms: synonyms}
}

// Expand exposes the engine's query expansion, mainly so callers can
// show users which terms a query grew into.
func (e *Engine) Expand(query string) []string {
	return e.synonyms.Expand(query)
}

// Search filters and ranks nodes. The input slice is not modified.
func (e *Engine) Search(nodes []catalogs.Node, query string, opts Options) []catalogs.Node {
	results := filterByCategory(nodes, opts.Categories)

	query = strings.TrimSpace(query)
	var terms []string
	if query != "" {
		terms = e.synonyms.Expand(query)
		results = matchAny(results, terms)
	}

	sortMode := opts.Sort
	if sortMode == "" {
		sortMode = SortRelevance
	}

	switch {
	case query != "" && sortMode == SortRelevance:
		type scored struct {
			node  catalogs.Node
			score int
		}
		ranked := make([]scored, len(results))
		for i, n := range results {
			ranked[i] = scored{node: n, score: Score(n, terms)}
		}
		// Stable keeps the catalog's base order for equal scores.
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
		for i, r := range ranked {
			results[i] = r.node
		}
	case sortMode == SortNameAsc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].DisplayName < results[j].DisplayName })
	case sortMode == SortNameDesc:
		sort.SliceStable(results, func(i, j int) bool { return results[i].DisplayName > results[j].DisplayName })
	case sortMode == SortType:
		sort.SliceStable(results, func(i, j int) bool { return results[i].Type < results[j].Type })
	case sortMode == SortCategory:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Category != results[j].Category {
				return results[i].Category < results[j].Category
			}
			return results[i].DisplayName < results[j].DisplayName
		})
	}

	return results
}

// Score computes the additive relevance of one node against a set of
// already-lowercased expanded terms.
func Score(n catalogs.Node, terms []string) int {
	nodeType := strings.ToLower(n.Type)
	display := strings.ToLower(n.DisplayName)
	description := strings.ToLower(n.Description)

	score := 0
	for _, term := range terms {
		term = strings.ToLower(term)

		switch {
		case term == display:
			score += scoreDisplayExact
		case strings.Contains(display, term):
			score += scoreDisplaySub
		}

		switch {
		case term == nodeType:
			score += scoreTypeExact
		case strings.Contains(nodeType, term):
			score += scoreTypeSub
		}

		if strings.Contains(description, term) {
			score += scoreDescriptionSub
		}

		if re := wordPattern(term); re != nil {
			if re.MatchString(display) {
				score += bonusDisplayWord
			}
			if re.MatchString(nodeType) {
				score += bonusTypeWord
			}
		}
	}
	return score
}

var (
	wordPatterns   = map[string]*regexp.Regexp{}
	wordPatternsMu sync.RWMutex
)

// wordPattern returns a cached whole-word matcher for term, or nil if
// the term cannot form a valid pattern.
func wordPattern(term string) *regexp.Regexp {
	wordPatternsMu.RLock()
	re, ok := wordPatterns[term]
	wordPatternsMu.RUnlock()
	if ok {
		return re
	}

	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		re = nil
	}
	wordPatternsMu.Lock()
	wordPatterns[term] = re
	wordPatternsMu.Unlock()
	return re
}

func filterByCategory(nodes []catalogs.Node, cats []catalogs.Category) []catalogs.Node {
	out := make([]catalogs.Node, 0, len(nodes))
	if len(cats) == 0 || containsCategory(cats, catalogs.CategoryAll) {
		return append(out, nodes...)
	}
	for _, n := range nodes {
		if containsCategory(cats, n.Category) {
			out = append(out, n)
		}
	}
	return out
}

func containsCategory(cats []catalogs.Category, c catalogs.Category) bool {
	for _, cat := range cats {
		if cat == c {
			return true
		}
	}
	return false
}

// matchAny keeps nodes where at least one term is a case-insensitive
// substring of the identifier, display name, or description.
func matchAny(nodes []catalogs.Node, terms []string) []catalogs.Node {
	out := make([]catalogs.Node, 0, len(nodes))
	for _, n := range nodes {
		nodeType := strings.ToLower(n.Type)
		display := strings.ToLower(n.DisplayName)
		description := strings.ToLower(n.Description)
		for _, term := range terms {
			if strings.Contains(nodeType, term) ||
				strings.Contains(display, term) ||
				strings.Contains(description, term) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
