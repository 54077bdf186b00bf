package reconcile

import (
	"context"
	"fmt"
	"sort"
)

// ReconcileAll reconciles every variable found in any source. Results are
// sorted by key.
func ReconcileAll(ctx context.Context, spec *Spec) ([]Result, error) {
	cache, err := BuildCache(ctx, spec)
	if err != nil {
		return nil, err
	}
	return resultsFromCache(cache), nil
}

// ReconcileOne reconciles a single variable, using cached indices when the
// spec enables caching.
func ReconcileOne(ctx context.Context, spec *Spec, key string) (*Result, error) {
	var (
		cache *Cache
		err   error
	)
	if spec.CacheTTL > 0 {
		cache, err = GetOrBuildCache(ctx, spec)
	} else {
		cache, err = BuildCache(ctx, spec)
	}
	if err != nil {
		return nil, err
	}

	result := buildResult(key, cache)
	return &result, nil
}

func resultsFromCache(cache *Cache) []Result {
	union := buildUnion(cache.Defaults, cache.Overrides, cache.Published)

	results := make([]Result, 0, len(union))
	for key := range union {
		results = append(results, buildResult(key, cache))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}

// buildUnion creates a union of all keys of the given mappings.
func buildUnion(indices ...map[string]string) map[string]struct{} {
	union := make(map[string]struct{})
	for _, index := range indices {
		for key := range index {
			union[key] = struct{}{}
		}
	}
	return union
}

// buildResult creates a Result for a single key.
func buildResult(key string, cache *Cache) Result {
	def, defPresent := cache.Defaults[key]
	ovr, ovrPresent := cache.Overrides[key]
	pub, pubPresent := cache.Published[key]

	result := Result{
		Key:              key,
		DefaultPresent:   defPresent,
		OverridePresent:  ovrPresent,
		PublishedPresent: pubPresent,
		Default:          def,
		Override:         ovr,
		Published:        pub,
		Mismatch:         []string{},
	}

	effective, expected := def, defPresent
	if ovrPresent {
		effective, expected = ovr, true
	}
	result.Effective = effective

	switch {
	case expected && !pubPresent:
		result.Mismatch = append(result.Mismatch, "published: missing")
	case !expected && pubPresent:
		result.Mismatch = append(result.Mismatch, "published: not in defaults or overrides")
	case expected && pub != effective:
		result.Mismatch = append(result.Mismatch, fmt.Sprintf("published: effective=%q published=%q", effective, pub))
	}

	if ovrPresent && defPresent && ovr == def {
		result.Mismatch = append(result.Mismatch, "override: equals default")
	}

	return result
}

// drifted reports whether the published file disagrees with the result.
func (r Result) drifted() bool {
	expected := r.DefaultPresent || r.OverridePresent
	if expected != r.PublishedPresent {
		return true
	}
	return expected && r.Published != r.Effective
}

// redundant reports whether the override repeats the default.
func (r Result) redundant() bool {
	return r.OverridePresent && r.DefaultPresent && r.Override == r.Default
}
