// Package casing normalizes node type identifiers to their canonical
// mixed-case form. The documentation scraper reports identifiers in all
// lowercase ("n8n-nodes-base.activecampaign") while workflows and the
// source repository use camelCase ("n8n-nodes-base.activeCampaign");
// this package maps the former onto the latter.
//
// The correction table is a versioned data asset, embedded by default
// but loadable from any reader. Loading validates that keys are unique
// and lowercase, and that every value differs from its key only by
// letter casing.
package casing

import (
	_ "embed"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/nodeatlas/pkg/errors"
)

//go:embed corrections.yaml
var embeddedTable []byte

// Correction is one lowercase-to-canonical mapping entry.
type Correction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// document is the on-disk shape of the correction asset.
type document struct {
	Version     int          `yaml:"version"`
	Corrections []Correction `yaml:"corrections"`
}

// Table maps lowercase node type identifiers to their canonical
// mixed-case form. The zero value is not usable; construct with Load,
// Parse, or Embedded.
type Table struct {
	version int
	entries map[string]string
}

// Parse builds a Table from YAML bytes, validating the asset.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", "corrections", err)
	}

	entries := make(map[string]string, len(doc.Corrections))
	for _, c := range doc.Corrections {
		if c.From == "" || c.To == "" {
			return nil, errors.NewValidationError("corrections", c, "empty identifier in correction entry")
		}
		if c.From != strings.ToLower(c.From) {
			return nil, errors.NewValidationError("from", c.From, "key must be lowercase")
		}
		if strings.ToLower(c.To) != c.From {
			return nil, errors.NewValidationError("to", c.To, "value must differ from key only by letter casing")
		}
		if _, dup := entries[c.From]; dup {
			return nil, errors.NewValidationError("from", c.From, "duplicate key")
		}
		entries[c.From] = c.To
	}

	return &Table{version: doc.Version, entries: entries}, nil
}

// Load reads and parses a correction asset from r.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", "corrections", err)
	}
	return Parse(data)
}

var (
	embeddedOnce sync.Once
	embeddedTbl  *Table
	embeddedErr  error
)

// Embedded returns the table compiled into the binary.
func Embedded() (*Table, error) {
	embeddedOnce.Do(func() {
		embeddedTbl, embeddedErr = Parse(embeddedTable)
	})
	return embeddedTbl, embeddedErr
}

// MustEmbedded returns the embedded table and panics if the compiled-in
// asset is invalid. Intended for package initialization paths.
func MustEmbedded() *Table {
	t, err := Embedded()
	if err != nil {
		panic(err)
	}
	return t
}

// Normalize returns the canonical form of raw. The lookup key is the
// lowercase form of raw; the returned value preserves the table's
// casing. Identifiers absent from the table pass through unchanged.
// Normalize is total and idempotent.
func (t *Table) Normalize(raw string) string {
	if t == nil {
		return raw
	}
	if canonical, ok := t.entries[strings.ToLower(raw)]; ok {
		return canonical
	}
	return raw
}

// Lookup returns the canonical form for a lowercase key, reporting
// whether the key is present.
func (t *Table) Lookup(lower string) (string, bool) {
	canonical, ok := t.entries[strings.ToLower(lower)]
	return canonical, ok
}

// Corrections returns all entries whose canonical form actually differs
// from the key, i.e. the identifiers a lowercase-only source would get
// wrong. Entries are sorted by key so audit output is stable between
// runs. Used by the casing audit.
func (t *Table) Corrections() []Correction {
	out := make([]Correction, 0, len(t.entries))
	for from, to := range t.entries {
		if from != to {
			out = append(out, Correction{From: from, To: to})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Version returns the asset version the table was loaded from.
func (t *Table) Version() int {
	return t.version
}
