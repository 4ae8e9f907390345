// Package nodeatlas maintains a canonical catalog of automation
// platform nodes reconciled from multiple sources, and serves search,
// detail lookup, and catalog projections over immutable snapshots.
//
// Callers hold the snapshot returned by Catalog or Refresh; the
// snapshot never changes under them. Refresh rebuilds a new snapshot
// from the record store and atomically swaps it in, firing node
// change hooks for the difference.
package nodeatlas

import (
	"context"
	stderrors "errors"
	"reflect"
	"sync"
	"time"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/errors"
	"github.com/agentstation/nodeatlas/pkg/logging"
	"github.com/agentstation/nodeatlas/pkg/reconcile"
	"github.com/agentstation/nodeatlas/pkg/search"
	"github.com/agentstation/nodeatlas/pkg/sources"
	"github.com/agentstation/nodeatlas/pkg/workflows"
)

// RecordSource supplies raw records and detail rows for catalog
// builds. internal/store.Store is the production implementation.
type RecordSource interface {
	// AllRecords returns the stored records of every source.
	AllRecords(ctx context.Context) (map[sources.ID][]sources.Record, error)

	// Details returns the detail rows for one node type.
	Details(ctx context.Context, nodeType string) (catalogs.Details, error)
}

// Atlas manages the canonical node catalog.
type Atlas interface {
	// Catalog returns the current immutable snapshot.
	Catalog() *catalogs.Catalog

	// Refresh rebuilds the catalog from the record source and swaps
	// it in as the new current snapshot.
	Refresh(ctx context.Context) (*catalogs.Catalog, error)

	// Search queries the current snapshot.
	Search(query string, opts search.Options) []catalogs.Node

	// Node looks up one node by canonical identifier,
	// case-insensitively.
	Node(nodeType string) (catalogs.Node, error)

	// Details returns the detail rows for one node type.
	Details(ctx context.Context, nodeType string) (catalogs.Details, error)

	// Project builds the bounded prompt projection of the current
	// snapshot, optionally narrowed by a search query first.
	Project(ctx context.Context, query string, policy workflows.SelectionPolicy) ([]workflows.Summary, error)

	// AutoRefreshOn begins periodic refreshes if configured.
	AutoRefreshOn() error

	// AutoRefreshOff stops periodic refreshes.
	AutoRefreshOff() error

	// OnNodeAdded registers a callback for nodes new in a snapshot.
	OnNodeAdded(NodeAddedHook)

	// OnNodeUpdated registers a callback for nodes changed between
	// snapshots.
	OnNodeUpdated(NodeUpdatedHook)

	// OnNodeRemoved registers a callback for nodes gone from a
	// snapshot.
	OnNodeRemoved(NodeRemovedHook)
}

type atlas struct {
	mu      sync.RWMutex
	catalog *catalogs.Catalog
	options *options
	builder *reconcile.Builder
	engine  *search.Engine
	hooks   *hooks

	refreshTicker *time.Ticker
	refreshCancel context.CancelFunc
	stopCh        chan struct{}
}

// New creates an Atlas. The initial snapshot is empty (version 0);
// call Refresh to populate it from the record source.
func New(opts ...Option) (Atlas, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	empty, err := catalogs.NewCatalog(0, time.Time{}, nil)
	if err != nil {
		return nil, err
	}

	a := &atlas{
		catalog: empty,
		options: options,
		builder: reconcile.New(reconcile.WithNormalizer(options.normalizer)),
		engine:  search.New(options.synonyms),
		hooks:   newHooks(),
		stopCh:  make(chan struct{}),
	}

	if options.autoRefresh {
		if err := a.AutoRefreshOn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Catalog returns the current immutable snapshot.
func (a *atlas) Catalog() *catalogs.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.catalog
}

// Refresh rebuilds the catalog from the record source.
func (a *atlas) Refresh(ctx context.Context) (*catalogs.Catalog, error) {
	if a.options.records == nil {
		return nil, errors.ErrSourceUnavailable
	}

	records, err := a.options.records.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	nodes := a.builder.Build(records)

	a.mu.Lock()
	version := a.catalog.Version() + 1
	next, err := catalogs.NewCatalog(version, time.Now(), nodes)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	previous := a.catalog
	a.catalog = next
	a.mu.Unlock()

	logging.Default().Info().
		Int64("version", next.Version()).
		Int("nodes", next.Len()).
		Msg("catalog snapshot rebuilt")

	a.hooks.trigger(previous, next)
	return next, nil
}

// Search queries the current snapshot.
func (a *atlas) Search(query string, opts search.Options) []catalogs.Node {
	return a.engine.Search(a.Catalog().Nodes(), query, opts)
}

// Node looks up one node by canonical identifier.
func (a *atlas) Node(nodeType string) (catalogs.Node, error) {
	return a.Catalog().Node(nodeType)
}

// Details returns the detail rows for one node type.
func (a *atlas) Details(ctx context.Context, nodeType string) (catalogs.Details, error) {
	if a.options.records == nil {
		return catalogs.Details{}, errors.ErrSourceUnavailable
	}
	if _, err := a.Catalog().Node(nodeType); err != nil {
		return catalogs.Details{}, err
	}
	return a.options.records.Details(ctx, nodeType)
}

// Project builds the bounded prompt projection of the current
// snapshot.
func (a *atlas) Project(ctx context.Context, query string, policy workflows.SelectionPolicy) ([]workflows.Summary, error) {
	nodes := a.Catalog().Nodes()
	if query != "" {
		nodes = a.engine.Search(nodes, query, search.Options{})
	}

	details := func(string) catalogs.Details { return catalogs.Details{} }
	if a.options.records != nil {
		details = func(nodeType string) catalogs.Details {
			d, err := a.options.records.Details(ctx, nodeType)
			if err != nil {
				return catalogs.Details{}
			}
			return d
		}
	}
	return policy.Project(nodes, details), nil
}

// AutoRefreshOn begins periodic refreshes.
func (a *atlas) AutoRefreshOn() error {
	if a.options.refreshInterval <= 0 {
		return errors.NewValidationError("refreshInterval",
			a.options.refreshInterval, "refresh interval must be positive")
	}
	if err := a.AutoRefreshOff(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.refreshTicker = time.NewTicker(a.options.refreshInterval)

	ctx, cancel := context.WithCancel(context.Background())
	a.refreshCancel = cancel

	go func(parent context.Context) {
		for {
			select {
			case <-a.refreshTicker.C:
				refreshCtx, done := context.WithTimeout(parent, a.options.refreshTimeout)
				_, err := a.Refresh(refreshCtx)
				done()
				if err != nil {
					if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
						return
					}
					logging.Default().Error().Err(err).Msg("auto-refresh failed")
				}
			case <-parent.Done():
				return
			case <-a.stopCh:
				return
			}
		}
	}(ctx)

	return nil
}

// AutoRefreshOff stops periodic refreshes.
func (a *atlas) AutoRefreshOff() error {
	if a.refreshTicker != nil {
		a.refreshTicker.Stop()
		a.refreshTicker = nil
	}
	if a.refreshCancel != nil {
		a.refreshCancel()
		a.refreshCancel = nil
	}
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
	return nil
}

// OnNodeAdded registers a callback for nodes new in a snapshot.
func (a *atlas) OnNodeAdded(fn NodeAddedHook) { a.hooks.onAdded(fn) }

// OnNodeUpdated registers a callback for nodes changed between snapshots.
func (a *atlas) OnNodeUpdated(fn NodeUpdatedHook) { a.hooks.onUpdated(fn) }

// OnNodeRemoved registers a callback for nodes gone from a snapshot.
func (a *atlas) OnNodeRemoved(fn NodeRemovedHook) { a.hooks.onRemoved(fn) }

// hooks manages node change callbacks.
type hooks struct {
	mu      sync.RWMutex
	added   []NodeAddedHook
	updated []NodeUpdatedHook
	removed []NodeRemovedHook
}

// Hook function types for node change events.
type (
	// NodeAddedHook is called when a node appears in a new snapshot.
	NodeAddedHook func(node catalogs.Node)

	// NodeUpdatedHook is called when a node's fields change between
	// snapshots.
	NodeUpdatedHook func(old, new catalogs.Node)

	// NodeRemovedHook is called when a node disappears from a
	// snapshot.
	NodeRemovedHook func(node catalogs.Node)
)

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) onAdded(fn NodeAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, fn)
}

func (h *hooks) onUpdated(fn NodeUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updated = append(h.updated, fn)
}

func (h *hooks) onRemoved(fn NodeRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, fn)
}

// trigger diffs two snapshots by canonical identifier and fires the
// registered callbacks.
func (h *hooks) trigger(previous, next *catalogs.Catalog) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.added) == 0 && len(h.updated) == 0 && len(h.removed) == 0 {
		return
	}

	oldNodes := make(map[string]catalogs.Node)
	for _, n := range previous.Nodes() {
		oldNodes[n.Type] = n
	}
	newNodes := make(map[string]catalogs.Node)
	for _, n := range next.Nodes() {
		newNodes[n.Type] = n
	}

	for _, n := range next.Nodes() {
		old, exists := oldNodes[n.Type]
		switch {
		case !exists:
			for _, fn := range h.added {
				fn(n)
			}
		case !reflect.DeepEqual(old, n):
			for _, fn := range h.updated {
				fn(old, n)
			}
		}
	}
	for _, n := range previous.Nodes() {
		if _, exists := newNodes[n.Type]; !exists {
			for _, fn := range h.removed {
				fn(n)
			}
		}
	}
}
