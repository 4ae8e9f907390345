// Package workflows defines the exported workflow document format,
// validates generated documents against it, and builds the bounded
// catalog projection that generation prompts are assembled from.
//
// A workflow is a JSON document describing a directed graph of
// configured node instances. Generation is performed by an external
// collaborator; this package owns the contract: what a well-formed
// document looks like, and which defects are fatal versus advisory.
package workflows

import (
	"encoding/json"

	"github.com/agentstation/nodeatlas/pkg/errors"
)

// Workflow is the exported artifact format.
type Workflow struct {
	Name        string                `json:"name"`
	Nodes       []Node                `json:"nodes"`
	Connections map[string]Connection `json:"connections"`
}

// Node is one configured node instance inside a workflow.
type Node struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion,omitempty"`
	Position    []float64      `json:"position,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Credentials map[string]any `json:"credentials,omitempty"`
}

// Connection is the outgoing adjacency of one node, keyed by the
// source node's name in the enclosing Workflow.Connections map.
type Connection struct {
	Main [][]Link `json:"main"`
}

// Link is one edge to a downstream node input.
type Link struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Parse decodes a workflow document. It only requires valid JSON;
// structural defects are reported separately by Validate so callers
// can distinguish "not JSON" from "JSON missing required fields".
func Parse(data []byte) (*Workflow, error) {
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.WrapParse("workflow", "json", err)
	}
	return &w, nil
}

// Encode renders a workflow as indented JSON.
func (w *Workflow) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, errors.WrapParse("workflow", "json", err)
	}
	return data, nil
}

// NodeByName returns the first node with the given name, or nil.
func (w *Workflow) NodeByName(name string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].Name == name {
			return &w.Nodes[i]
		}
	}
	return nil
}
