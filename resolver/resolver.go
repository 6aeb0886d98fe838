package resolver

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/metriclane/ga4mcp/ga"
)

// DefaultFuzzyThreshold is the minimum score a fuzzy candidate must
// strictly exceed to be accepted by Resolve.
const DefaultFuzzyThreshold = 0.6

// DefaultSearchResults caps Search output when the caller passes no limit.
const DefaultSearchResults = 5

// Directory supplies the full property list on demand. The call is
// expensive; implementations are expected to cache (ga.Client does, for its
// property TTL).
type Directory interface {
	DiscoverProperties(ctx context.Context) ([]ga.Property, error)
}

// Options configures a Resolver. The zero value gets the default threshold,
// no aliases, and a no-op logger. Threshold bounds are validated by the
// config layer before construction.
type Options struct {
	// FuzzyThreshold overrides DefaultFuzzyThreshold when non-nil. An
	// explicit 0 is honored and accepts any positive fuzzy score.
	FuzzyThreshold *float64
	Aliases        map[string][]string
	Logger         *zap.SugaredLogger
}

// Resolver owns a lazily loaded snapshot of property records and answers
// resolve/search/list queries over it.
//
// The snapshot is tri-state: never loaded, or loaded with whatever the
// directory returned, including an empty list. Loaded-but-empty is terminal
// until ClearSnapshot; it does not refetch on every call. Concurrent
// cold-start callers share a single directory fetch.
type Resolver struct {
	dir       Directory
	threshold float64
	aliases   map[string][]string
	log       *zap.SugaredLogger

	mu       sync.RWMutex
	loaded   bool
	snapshot []ga.Property

	flight singleflight.Group
}

// New builds a Resolver over the given directory.
func New(dir Directory, opts Options) *Resolver {
	threshold := DefaultFuzzyThreshold
	if opts.FuzzyThreshold != nil {
		threshold = *opts.FuzzyThreshold
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Resolver{
		dir:       dir,
		threshold: threshold,
		aliases:   opts.Aliases,
		log:       opts.Logger,
	}
}

// ensureLoaded returns the snapshot, fetching it once on first need. The
// snapshot is replaced wholesale, never merged.
func (r *Resolver) ensureLoaded(ctx context.Context) ([]ga.Property, error) {
	r.mu.RLock()
	if r.loaded {
		snapshot := r.snapshot
		r.mu.RUnlock()
		return snapshot, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.flight.Do("load", func() (interface{}, error) {
		r.mu.RLock()
		if r.loaded {
			snapshot := r.snapshot
			r.mu.RUnlock()
			return snapshot, nil
		}
		r.mu.RUnlock()

		props, err := r.dir.DiscoverProperties(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.snapshot = props
		r.loaded = true
		r.mu.Unlock()

		r.log.Debugw("property snapshot loaded", "count", len(props))
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ga.Property), nil
}

// Resolve maps a query string to the single best matching property, or nil
// when nothing matches. Directory failures propagate unchanged.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Match, error) {
	snapshot, err := r.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(query, snapshot, r.threshold, r.aliases), nil
}

// Search returns up to maxResults matches ranked by confidence. A
// non-positive maxResults uses DefaultSearchResults.
func (r *Resolver) Search(ctx context.Context, query string, maxResults int) ([]Match, error) {
	snapshot, err := r.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	return RankedSearch(query, snapshot, maxResults), nil
}

// ListAll returns the full snapshot in directory order.
func (r *Resolver) ListAll(ctx context.Context) ([]ga.Property, error) {
	return r.ensureLoaded(ctx)
}

// PropertyID projects Resolve onto just the property id. The bool reports
// whether a match was found.
func (r *Resolver) PropertyID(ctx context.Context, query string) (string, bool, error) {
	m, err := r.Resolve(ctx, query)
	if err != nil {
		return "", false, err
	}
	if m == nil {
		return "", false, nil
	}
	return m.Property.ID, true, nil
}

// ClearSnapshot drops the in-memory snapshot so the next call refetches.
// It does not touch the directory's own cache; clear both layers to force
// a genuinely fresh remote fetch.
func (r *Resolver) ClearSnapshot() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.snapshot = nil
}
