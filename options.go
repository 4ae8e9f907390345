package nodeatlas

import (
	"time"

	"github.com/agentstation/nodeatlas/pkg/casing"
	"github.com/agentstation/nodeatlas/pkg/constants"
	"github.com/agentstation/nodeatlas/pkg/search"
)

// options holds the resolved configuration of an Atlas.
type options struct {
	records         RecordSource
	normalizer      func(string) string
	synonyms        *search.Synonyms
	autoRefresh     bool
	refreshInterval time.Duration
	refreshTimeout  time.Duration
}

// Option configures an Atlas.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	table, err := casing.Embedded()
	if err != nil {
		return nil, err
	}
	synonyms, err := search.EmbeddedSynonyms()
	if err != nil {
		return nil, err
	}

	o := &options{
		normalizer:      table.Normalize,
		synonyms:        synonyms,
		refreshInterval: constants.DefaultRefreshInterval,
		refreshTimeout:  constants.RefreshTimeout,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRecordSource sets where catalog builds read raw records and
// detail rows from.
func WithRecordSource(rs RecordSource) Option {
	return func(o *options) error {
		o.records = rs
		return nil
	}
}

// WithCasingTable overrides the embedded identifier correction table.
func WithCasingTable(t *casing.Table) Option {
	return func(o *options) error {
		o.normalizer = t.Normalize
		return nil
	}
}

// WithSynonyms overrides the embedded search synonym table.
func WithSynonyms(s *search.Synonyms) Option {
	return func(o *options) error {
		o.synonyms = s
		return nil
	}
}

// WithAutoRefresh enables periodic snapshot rebuilds.
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) error {
		o.autoRefresh = enabled
		return nil
	}
}

// WithRefreshInterval sets how often auto-refresh rebuilds the
// snapshot.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.refreshInterval = interval
		return nil
	}
}
