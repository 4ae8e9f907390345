package search

import (
	_ "embed"
	"io"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/nodeatlas/pkg/errors"
)

//go:embed synonyms.yaml
var embeddedSynonyms []byte

// Group is one curated synonym association: a term and its related set.
type Group struct {
	Term    string   `yaml:"term"`
	Related []string `yaml:"related"`
}

type synonymsDoc struct {
	Version  int     `yaml:"version"`
	Synonyms []Group `yaml:"synonyms"`
}

// Synonyms is an ordered synonym table. Entry order is preserved from
// the asset so that query expansion is deterministic.
type Synonyms struct {
	version int
	groups  []Group
	byTerm  map[string]int
}

// ParseSynonyms builds a Synonyms table from YAML bytes.
func ParseSynonyms(data []byte) (*Synonyms, error) {
	var doc synonymsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", "synonyms", err)
	}

	byTerm := make(map[string]int, len(doc.Synonyms))
	for i, g := range doc.Synonyms {
		term := strings.ToLower(g.Term)
		if term == "" {
			return nil, errors.NewValidationError("term", g, "empty synonym term")
		}
		if _, dup := byTerm[term]; dup {
			return nil, errors.NewValidationError("term", term, "duplicate synonym term")
		}
		byTerm[term] = i
	}

	return &Synonyms{version: doc.Version, groups: doc.Synonyms, byTerm: byTerm}, nil
}

// LoadSynonyms reads and parses a synonym asset from r.
func LoadSynonyms(r io.Reader) (*Synonyms, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", "synonyms", err)
	}
	return ParseSynonyms(data)
}

var (
	synonymsOnce sync.Once
	synonymsTbl  *Synonyms
	synonymsErr  error
)

// EmbeddedSynonyms returns the synonym table compiled into the binary.
func EmbeddedSynonyms() (*Synonyms, error) {
	synonymsOnce.Do(func() {
		synonymsTbl, synonymsErr = ParseSynonyms(embeddedSynonyms)
	})
	return synonymsTbl, synonymsErr
}

// MustEmbeddedSynonyms is EmbeddedSynonyms but panics on error. The
// embedded asset is validated by tests, so a failure here means a
// broken build.
func MustEmbeddedSynonyms() *Synonyms {
	s, err := EmbeddedSynonyms()
	if err != nil {
		panic(err)
	}
	return s
}

// Groups returns a copy of the synonym groups in file order.
func (s *Synonyms) Groups() []Group {
	if s == nil {
		return nil
	}
	out := make([]Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Len returns the number of synonym groups.
func (s *Synonyms) Len() int {
	if s == nil {
		return 0
	}
	return len(s.groups)
}

// Expand broadens a query to its related terms. Expansion is exactly
// one level: the query's own group, plus the full group of every entry
// whose related set contains the query. The result is deduplicated
// preserving first-seen order and always begins with the lowercased
// query itself.
func (s *Synonyms) Expand(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	terms := []string{q}
	if s != nil {
		if i, ok := s.byTerm[q]; ok {
			terms = append(terms, s.groups[i].Related...)
		}
		for _, g := range s.groups {
			for _, rel := range g.Related {
				if strings.ToLower(rel) == q {
					terms = append(terms, strings.ToLower(g.Term))
					terms = append(terms, g.Related...)
					break
				}
			}
		}
	}

	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(t)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
