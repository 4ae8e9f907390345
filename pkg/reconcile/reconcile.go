// Package reconcile folds raw per-source records into the canonical
// node catalog. Records are grouped by case-insensitive canonical
// identifier, then merged under a fixed source precedence: the platform
// API wins over the source repository, which wins over the package
// registry. A stronger source only overwrites a field with a non-empty
// value, so sparse high-priority records never blank out data a weaker
// source already supplied. The set of contributing sources is retained
// for every node no matter which source won its fields.
//
// The merge is pure and deterministic: for a fixed multiset of input
// records the output is identical regardless of input ordering.
package reconcile

import (
	"sort"
	"strings"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

// Normalizer rewrites a raw identifier to its canonical form. It must
// be total and idempotent; pkg/casing's Table.Normalize satisfies it.
type Normalizer func(raw string) string

// Builder merges per-source record sets into canonical nodes.
type Builder struct {
	normalize Normalizer
}

// Option configures a Builder.
type Option func(*Builder)

// WithNormalizer sets the identifier normalizer applied to every raw
// identifier before grouping. Defaults to the identity function.
func WithNormalizer(n Normalizer) Option {
	return func(b *Builder) {
		if n != nil {
			b.normalize = n
		}
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{normalize: func(raw string) string { return raw }}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// group accumulates the merge state for one case-insensitive identifier.
type group struct {
	node        catalogs.Node
	rawCategory string
	contributed map[sources.ID]bool
}

// Build merges all records into one canonical node per case-insensitive
// identifier. The result is sorted by canonical identifier.
func (b *Builder) Build(records map[sources.ID][]sources.Record) []catalogs.Node {
	groups := make(map[string]*group)

	// Apply sources weakest first so that stronger sources overwrite.
	for _, id := range applyOrder(records) {
		for _, rec := range records[id] {
			if rec.RawType == "" {
				continue
			}
			canonical := b.normalize(rec.RawType)
			key := strings.ToLower(canonical)

			g, ok := groups[key]
			if !ok {
				g = &group{contributed: make(map[sources.ID]bool)}
				groups[key] = g
			}

			// The strongest source's normalized identifier becomes the
			// canonical form. Identifiers are never empty here.
			g.node.Type = canonical
			if rec.DisplayName != "" {
				g.node.DisplayName = rec.DisplayName
			}
			if rec.Description != "" {
				g.node.Description = rec.Description
			}
			if rec.Version != "" {
				g.node.Version = rec.Version
			}
			if rec.Category != "" {
				g.rawCategory = rec.Category
			}
			if rec.ScrapedAt.After(g.node.ScrapedAt) {
				g.node.ScrapedAt = rec.ScrapedAt
			}
			g.contributed[id] = true
		}
	}

	nodes := make([]catalogs.Node, 0, len(groups))
	for _, g := range groups {
		g.node.Sources = contributingSources(g.contributed)
		g.node.Category = catalogs.Categorize(g.node.Type, g.rawCategory)
		if g.node.DisplayName == "" {
			g.node.DisplayName = g.node.Type
		}
		nodes = append(nodes, g.node)
	}

	sort.Slice(nodes, func(i, j int) bool {
		ki, kj := strings.ToLower(nodes[i].Type), strings.ToLower(nodes[j].Type)
		if ki != kj {
			return ki < kj
		}
		return nodes[i].Type < nodes[j].Type
	})
	return nodes
}

// applyOrder returns the source IDs present in records sorted weakest
// first, so a later application always has equal or higher precedence.
// Unknown sources sort before all known ones, tie-broken by name to
// keep the merge order-independent.
func applyOrder(records map[sources.ID][]sources.Record) []sources.ID {
	ids := make([]sources.ID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := sources.Priority(ids[i]), sources.Priority(ids[j])
		if pi != pj {
			return pi > pj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// contributingSources flattens the contribution set into priority order.
func contributingSources(contributed map[sources.ID]bool) []sources.ID {
	out := make([]sources.ID, 0, len(contributed))
	for _, id := range sources.IDs() {
		if contributed[id] {
			out = append(out, id)
		}
	}
	// Unknown sources follow the known ones, sorted by name.
	var extras []sources.ID
	for id := range contributed {
		if sources.Priority(id) >= len(sources.IDs()) {
			extras = append(extras, id)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(out, extras...)
}
