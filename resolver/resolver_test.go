package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metriclane/ga4mcp/errors"
	"github.com/metriclane/ga4mcp/ga"
)

// fakeDirectory counts fetches and can simulate latency and failures.
type fakeDirectory struct {
	props []ga.Property
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (d *fakeDirectory) DiscoverProperties(ctx context.Context) ([]ga.Property, error) {
	d.calls.Add(1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.props, nil
}

func TestResolveLoadsSnapshotOnce(t *testing.T) {
	dir := &fakeDirectory{props: acmeSnapshot}
	r := New(dir, Options{})
	ctx := context.Background()

	m, err := r.Resolve(ctx, "111")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, StageExactID, m.Stage)

	_, err = r.Search(ctx, "acme", 5)
	require.NoError(t, err)
	_, err = r.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), dir.calls.Load(), "snapshot must be fetched once per resolver")
}

func TestEmptyDirectoryIsLoadedNotRetried(t *testing.T) {
	// Loaded-but-empty is a terminal state: an empty property list must not
	// trigger a refetch on every call.
	dir := &fakeDirectory{props: []ga.Property{}}
	r := New(dir, Options{})
	ctx := context.Background()

	m, err := r.Resolve(ctx, "anything")
	require.NoError(t, err)
	assert.Nil(t, m)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Equal(t, int32(1), dir.calls.Load())
}

func TestConcurrentColdStartSharesOneFetch(t *testing.T) {
	dir := &fakeDirectory{props: acmeSnapshot, delay: 20 * time.Millisecond}
	r := New(dir, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.Resolve(ctx, "acme shop")
			assert.NoError(t, err)
			assert.NotNil(t, m)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), dir.calls.Load(), "cold-start callers must share a single fetch")
}

func TestClearSnapshotForcesReload(t *testing.T) {
	dir := &fakeDirectory{props: acmeSnapshot}
	r := New(dir, Options{})
	ctx := context.Background()

	_, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), dir.calls.Load())

	r.ClearSnapshot()

	_, err = r.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), dir.calls.Load())
}

func TestDirectoryErrorPropagatesUnchanged(t *testing.T) {
	provider := errors.WrapProvider(errors.New("quota exceeded"), "failed to list analytics accounts")
	dir := &fakeDirectory{err: provider}
	r := New(dir, Options{})

	_, err := r.Resolve(context.Background(), "acme")
	require.Error(t, err)
	assert.True(t, errors.IsProviderError(err))

	// A failed load must not latch the snapshot as loaded.
	dir.err = nil
	dir.props = acmeSnapshot
	m, err := r.Resolve(context.Background(), "111")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestPropertyID(t *testing.T) {
	dir := &fakeDirectory{props: acmeSnapshot}
	r := New(dir, Options{})
	ctx := context.Background()

	id, ok, err := r.PropertyID(ctx, "Acme Shop")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "222", id)

	_, ok, err = r.PropertyID(ctx, "no-such-property")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExplicitZeroThresholdIsHonored(t *testing.T) {
	props := []ga.Property{{ID: "1", Name: "abcdef", DisplayName: "abcdef"}}
	ctx := context.Background()

	// similarity("abwxyz", "abcdef") = 2*2/12, far below the default.
	zero := 0.0
	r := New(&fakeDirectory{props: props}, Options{FuzzyThreshold: &zero})
	m, err := r.Resolve(ctx, "abwxyz")
	require.NoError(t, err)
	require.NotNil(t, m, "threshold 0 accepts any positive score")

	rDefault := New(&fakeDirectory{props: props}, Options{})
	m, err = rDefault.Resolve(ctx, "abwxyz")
	require.NoError(t, err)
	assert.Nil(t, m, "nil threshold falls back to the default")
}

func TestResolverUsesConfiguredAliases(t *testing.T) {
	dir := &fakeDirectory{props: []ga.Property{
		{ID: "444", Name: "mysite", DisplayName: "My Site"},
	}}
	r := New(dir, Options{
		Aliases: map[string][]string{"mysite": {"primary site"}},
	})

	m, err := r.Resolve(context.Background(), "Primary Site")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, StageAlias, m.Stage)
}
