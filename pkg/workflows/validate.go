package workflows

import (
	"encoding/json"
	"fmt"

	"github.com/agentstation/nodeatlas/pkg/errors"
)

// TopLevel marks an Issue that concerns the document itself rather
// than a specific node.
const TopLevel = -1

// Issue is one validation finding.
type Issue struct {
	// Message describes the defect.
	Message string `json:"message"`

	// NodeIndex is the zero-based index of the offending node, or
	// TopLevel for document-level findings.
	NodeIndex int `json:"node_index"`
}

func (i Issue) String() string {
	if i.NodeIndex == TopLevel {
		return i.Message
	}
	return fmt.Sprintf("node %d: %s", i.NodeIndex, i.Message)
}

// Result collects validation findings. Errors are structural defects
// that make the document unusable; warnings flag missing
// recommended fields but the document remains usable.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// OK reports whether the document has no structural errors. Warnings
// do not affect OK.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(index int, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Message: fmt.Sprintf(format, args...), NodeIndex: index})
}

func (r *Result) warnf(index int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Message: fmt.Sprintf(format, args...), NodeIndex: index})
}

// Validate checks a raw workflow document. It operates on the decoded
// JSON rather than the typed Workflow so that missing keys can be
// told apart from zero values. A document that is not valid JSON, or
// not a JSON object, returns an error instead of a Result.
func Validate(data []byte) (Result, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, errors.WrapParse("workflow", "json", err)
	}
	return ValidateDocument(doc), nil
}

// ValidateDocument checks an already-decoded workflow document.
func ValidateDocument(doc map[string]json.RawMessage) Result {
	var r Result

	if _, ok := doc["name"]; !ok {
		r.errorf(TopLevel, "missing required field %q", "name")
	}

	rawNodes, ok := doc["nodes"]
	if !ok {
		r.errorf(TopLevel, "missing required field %q", "nodes")
	} else {
		var nodes []map[string]json.RawMessage
		if err := json.Unmarshal(rawNodes, &nodes); err != nil {
			r.errorf(TopLevel, "field %q is not a list of objects", "nodes")
		} else {
			for i, node := range nodes {
				validateNode(&r, i, node)
			}
		}
	}

	if _, ok := doc["connections"]; !ok {
		r.warnf(TopLevel, "missing recommended field %q", "connections")
	}

	return r
}

func validateNode(r *Result, index int, node map[string]json.RawMessage) {
	if _, ok := node["type"]; !ok {
		r.errorf(index, "missing required field %q", "type")
	}
	if _, ok := node["name"]; !ok {
		r.errorf(index, "missing required field %q", "name")
	}
	if _, ok := node["position"]; !ok {
		r.warnf(index, "missing recommended field %q", "position")
	}
}
