package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpec(file string, defs, overrides, published map[string]string) *Spec {
	return &Spec{
		File:      file,
		Defaults:  StaticSource(defs),
		Overrides: StaticSource(overrides),
		Published: StaticSource(published),
	}
}

func TestReconcileAll(t *testing.T) {
	spec := newSpec("rc.conf",
		map[string]string{"hostname": "freenas", "ntpd_enable": "YES", "dumpdev": "AUTO"},
		map[string]string{"hostname": "nas01", "ntpd_enable": "YES", "zfs_enable": "YES"},
		map[string]string{"hostname": "freenas", "ntpd_enable": "YES", "zfs_enable": "YES", "stale": "1"},
	)

	results, err := ReconcileAll(context.Background(), spec)
	require.NoError(t, err)
	require.Len(t, results, 5)

	byKey := map[string]Result{}
	for _, r := range results {
		byKey[r.Key] = r
	}
	assert.Equal(t, "dumpdev", results[0].Key, "results are sorted")

	assert.Equal(t, []string{"published: missing"}, byKey["dumpdev"].Mismatch)
	assert.Equal(t, "AUTO", byKey["dumpdev"].Effective)

	assert.Equal(t, "nas01", byKey["hostname"].Effective)
	assert.Equal(t, []string{`published: effective="nas01" published="freenas"`}, byKey["hostname"].Mismatch)

	assert.Equal(t, []string{"override: equals default"}, byKey["ntpd_enable"].Mismatch)

	assert.False(t, byKey["stale"].DefaultPresent)
	assert.Equal(t, []string{"published: not in defaults or overrides"}, byKey["stale"].Mismatch)

	assert.Empty(t, byKey["zfs_enable"].Mismatch)
	assert.True(t, byKey["zfs_enable"].OverridePresent)
}

func TestBuildCache_ErrorHandling(t *testing.T) {
	boom := errors.New("boom")
	failing := SourceFunc{Label: "failing", Fn: func(context.Context) (map[string]string, error) {
		return nil, boom
	}}

	for _, name := range []string{"defaults", "overrides", "published"} {
		t.Run(name, func(t *testing.T) {
			spec := newSpec("rc.conf", nil, nil, nil)
			switch name {
			case "defaults":
				spec.Defaults = failing
			case "overrides":
				spec.Overrides = failing
			case "published":
				spec.Published = failing
			}

			_, err := BuildCache(context.Background(), spec)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), "failed to load failing")
		})
	}
}

func TestReconcileOne_UsesCache(t *testing.T) {
	var loads atomic.Int32
	overrides := map[string]string{"hostname": "nas01"}
	spec := &Spec{
		File:     "cached.conf",
		Defaults: StaticSource{"hostname": "freenas"},
		Overrides: SourceFunc{Label: "counting", Fn: func(context.Context) (map[string]string, error) {
			loads.Add(1)
			return overrides, nil
		}},
		Published: StaticSource{"hostname": "nas01"},
		CacheTTL:  time.Minute,
	}
	t.Cleanup(func() { InvalidateCache(spec) })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := ReconcileOne(context.Background(), spec, "hostname")
			assert.NoError(t, err)
			assert.Equal(t, "nas01", r.Effective)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), loads.Load())

	InvalidateCache(spec)
	r, err := ReconcileOne(context.Background(), spec, "missing")
	require.NoError(t, err)
	assert.False(t, r.DefaultPresent || r.OverridePresent || r.PublishedPresent)
	assert.Empty(t, r.Mismatch)
	assert.Equal(t, int32(2), loads.Load())
}

func TestReconcileOne_NoCache(t *testing.T) {
	var loads atomic.Int32
	spec := newSpec("nocache.conf", map[string]string{"a": "1"}, nil, map[string]string{"a": "1"})
	spec.Overrides = SourceFunc{Label: "counting", Fn: func(context.Context) (map[string]string, error) {
		loads.Add(1)
		return map[string]string{}, nil
	}}

	for i := 0; i < 3; i++ {
		r, err := ReconcileOne(context.Background(), spec, "a")
		require.NoError(t, err)
		assert.Empty(t, r.Mismatch)
	}
	assert.Equal(t, int32(3), loads.Load())
}

func TestCache_IsExpired(t *testing.T) {
	assert.True(t, (&Cache{}).IsExpired())
	assert.False(t, (&Cache{Built: time.Now(), TTL: time.Minute}).IsExpired())
	assert.True(t, (&Cache{Built: time.Now().Add(-2 * time.Minute), TTL: time.Minute}).IsExpired())
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	src := FileSource{Path: filepath.Join(dir, "rc.conf")}

	m, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.False(t, src.Exists())

	require.NoError(t, os.WriteFile(src.Path, []byte("hostname=\"nas01\"\n"), 0o644))
	m, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hostname": "nas01"}, m)
	assert.True(t, src.Exists())

	require.NoError(t, os.WriteFile(src.Path, []byte("hostname=\"broken\n"), 0o644))
	_, err = src.Load(context.Background())
	assert.Error(t, err)
}
