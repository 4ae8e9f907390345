// Package catalogs provides the canonical node catalog for nodeatlas.
// A catalog is an immutable, versioned snapshot of all known node types
// after multi-source reconciliation: one entry per case-insensitive
// canonical identifier, each labeled with a functional category and the
// set of sources that reported it.
//
// Snapshots are rebuilt by an explicit refresh; callers hold a
// reference to the snapshot they were given rather than relying on
// ambient mutable state.
package catalogs

import (
	"time"

	"github.com/agentstation/nodeatlas/pkg/sources"
)

// Node is one canonical node type in the catalog.
type Node struct {
	// Type is the canonical, case-correct identifier,
	// e.g. "n8n-nodes-base.activeCampaign".
	Type string `json:"node_type" yaml:"node_type"`

	// DisplayName is the human-readable name, e.g. "ActiveCampaign".
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Description summarizes what the node does.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Category is the functional classification of the node.
	Category Category `json:"category" yaml:"category"`

	// Version is the node type version as reported by the winning source.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Sources lists every origin that reported this node type,
	// in priority order, regardless of which one won field values.
	Sources []sources.ID `json:"sources" yaml:"sources"`

	// ScrapedAt is the most recent scrape time across contributing sources.
	ScrapedAt time.Time `json:"scraped_at,omitempty" yaml:"scraped_at,omitempty"`
}

// HasSource reports whether the given origin contributed to this node.
func (n Node) HasSource(id sources.ID) bool {
	for _, s := range n.Sources {
		if s == id {
			return true
		}
	}
	return false
}

// Operation is one action a node can perform, optionally scoped to a
// resource ("message", "channel", ...).
type Operation struct {
	NodeType    string `json:"node_type" yaml:"node_type"`
	Resource    string `json:"resource,omitempty" yaml:"resource,omitempty"`
	Operation   string `json:"operation" yaml:"operation"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Parameter is one configurable field of a node operation.
type Parameter struct {
	NodeType    string `json:"node_type" yaml:"node_type"`
	Resource    string `json:"resource,omitempty" yaml:"resource,omitempty"`
	Operation   string `json:"operation,omitempty" yaml:"operation,omitempty"`
	Name        string `json:"parameter_name" yaml:"parameter_name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Type        string `json:"parameter_type,omitempty" yaml:"parameter_type,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Default     string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Options     string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Credential is one credential type a node accepts.
type Credential struct {
	NodeType       string `json:"node_type" yaml:"node_type"`
	CredentialType string `json:"credential_type" yaml:"credential_type"`
	DisplayName    string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Required       bool   `json:"required" yaml:"required"`
}

// Details bundles the child records of one node type. Detail extraction
// is heuristic and best-effort upstream; any or all of the slices may
// be empty.
type Details struct {
	Operations  []Operation  `json:"operations" yaml:"operations"`
	Parameters  []Parameter  `json:"parameters" yaml:"parameters"`
	Credentials []Credential `json:"credentials" yaml:"credentials"`
}
