package workflows

import (
	"sort"
	"strings"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
)

// Summary is one node's bounded projection for prompt assembly:
// identity plus truncated operation, parameter, and credential lists.
type Summary struct {
	Type        string   `json:"node_type"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	Operations  []string `json:"operations,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`
	Credentials []string `json:"credentials,omitempty"`
}

// Limits bounds the size of a projection. Zero means "none of this
// kind", not "unlimited"; callers wanting everything should set a
// limit at least as large as the data.
type Limits struct {
	Nodes       int
	Operations  int
	Parameters  int
	Credentials int
}

// DefaultLimits bounds a projection to a size that fits comfortably in
// a generation prompt.
var DefaultLimits = Limits{
	Nodes:       10,
	Operations:  5,
	Parameters:  10,
	Credentials: 3,
}

// RankFunc scores a node for projection selection. Higher ranks are
// selected first.
type RankFunc func(node catalogs.Node, details catalogs.Details) int

// ByParameterCount ranks nodes by how many parameters they declare.
// Parameter-rich nodes carry the most configuration surface and are
// the most useful examples in a generation prompt.
func ByParameterCount(_ catalogs.Node, details catalogs.Details) int {
	return len(details.Parameters)
}

// SelectionPolicy decides which nodes enter a projection and how much
// of each node survives truncation.
type SelectionPolicy struct {
	// Rank orders candidates. Nil defaults to ByParameterCount.
	Rank RankFunc

	// Limits bounds the projection. Zero value defaults to
	// DefaultLimits.
	Limits Limits
}

// DetailFunc supplies the child records for a node type. Missing
// details are represented by an empty Details, not an error.
type DetailFunc func(nodeType string) catalogs.Details

// Project builds the bounded projection for a set of candidate nodes.
// Selection is deterministic: candidates are ranked by the policy's
// RankFunc with ties broken by canonical identifier, then truncated
// to the policy's limits.
func (p SelectionPolicy) Project(nodes []catalogs.Node, details DetailFunc) []Summary {
	rank := p.Rank
	if rank == nil {
		rank = ByParameterCount
	}
	limits := p.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	if details == nil {
		details = func(string) catalogs.Details { return catalogs.Details{} }
	}

	type candidate struct {
		node    catalogs.Node
		details catalogs.Details
		rank    int
	}
	candidates := make([]candidate, len(nodes))
	for i, n := range nodes {
		d := details(n.Type)
		candidates[i] = candidate{node: n, details: d, rank: rank(n, d)}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank > candidates[j].rank
		}
		return strings.ToLower(candidates[i].node.Type) < strings.ToLower(candidates[j].node.Type)
	})
	if len(candidates) > limits.Nodes {
		candidates = candidates[:limits.Nodes]
	}

	out := make([]Summary, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, summarize(c.node, c.details, limits))
	}
	return out
}

func summarize(n catalogs.Node, d catalogs.Details, limits Limits) Summary {
	s := Summary{
		Type:        n.Type,
		DisplayName: n.DisplayName,
		Description: n.Description,
	}

	for _, op := range d.Operations {
		if len(s.Operations) >= limits.Operations {
			break
		}
		label := op.Operation
		if op.Resource != "" {
			label = op.Resource + ": " + label
		}
		s.Operations = appendUnique(s.Operations, label)
	}

	for _, param := range d.Parameters {
		if len(s.Parameters) >= limits.Parameters {
			break
		}
		s.Parameters = appendUnique(s.Parameters, param.Name)
	}

	for _, cred := range d.Credentials {
		if len(s.Credentials) >= limits.Credentials {
			break
		}
		s.Credentials = appendUnique(s.Credentials, cred.CredentialType)
	}

	return s
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}
