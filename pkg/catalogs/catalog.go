package catalogs

import (
	"sort"
	"strings"
	"time"

	"github.com/agentstation/nodeatlas/pkg/errors"
)

// Catalog is an immutable snapshot of the reconciled node catalog.
// Version increases monotonically across rebuilds within a process;
// two callers holding the same Catalog pointer always observe the same
// contents.
type Catalog struct {
	version int64
	builtAt time.Time
	nodes   []Node
	byKey   map[string]int // lowercase canonical type -> index into nodes
}

// NewCatalog builds a snapshot from reconciled nodes. The node order is
// preserved and becomes the catalog's stable base order for search tie
// breaking. Nodes with duplicate case-insensitive identifiers are
// rejected; the reconcile step must have collapsed them already.
func NewCatalog(version int64, builtAt time.Time, nodes []Node) (*Catalog, error) {
	byKey := make(map[string]int, len(nodes))
	for i, n := range nodes {
		key := strings.ToLower(n.Type)
		if _, dup := byKey[key]; dup {
			return nil, errors.NewValidationError("node_type", n.Type, "duplicate case-insensitive identifier in catalog")
		}
		byKey[key] = i
	}
	return &Catalog{
		version: version,
		builtAt: builtAt,
		nodes:   nodes,
		byKey:   byKey,
	}, nil
}

// Version returns the snapshot's version counter.
func (c *Catalog) Version() int64 {
	return c.version
}

// BuiltAt returns when the snapshot was assembled.
func (c *Catalog) BuiltAt() time.Time {
	return c.builtAt
}

// Len returns the number of nodes in the snapshot.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.nodes)
}

// Nodes returns a copy of the node list. The copy keeps callers from
// mutating the snapshot through the returned slice.
func (c *Catalog) Nodes() []Node {
	if c == nil {
		return nil
	}
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Node looks up a node by canonical identifier, case-insensitively.
func (c *Catalog) Node(nodeType string) (Node, error) {
	if c != nil {
		if i, ok := c.byKey[strings.ToLower(nodeType)]; ok {
			return c.nodes[i], nil
		}
	}
	return Node{}, errors.NewNotFoundError("node", nodeType)
}

// Counts returns the number of nodes per category. Categories with no
// nodes are omitted.
func (c *Catalog) Counts() map[Category]int {
	counts := make(map[Category]int)
	if c == nil {
		return counts
	}
	for _, n := range c.nodes {
		counts[n.Category]++
	}
	return counts
}

// ByCategory returns the snapshot's nodes of one category, sorted by
// canonical identifier.
func (c *Catalog) ByCategory(cat Category) []Node {
	if c == nil {
		return nil
	}
	var out []Node
	for _, n := range c.nodes {
		if n.Category == cat {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
