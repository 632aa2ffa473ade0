// Package vamana implements the Vamana proximity graph index: greedy beam
// search (C5), robust-prune build (C6), and dynamic insert/delete/
// consolidate/compact (C7). Grounded on pkg/diskann in the teacher
// (greedy-search-then-prune build loop, medoid entry point selection,
// degree-bounded neighbor lists) and, for exact version-gated parameter
// loading, on the original implementation's VamanaBuildParameters
// (original_source/include/svs/index/vamana/build_params.h).
package vamana

import (
	"github.com/go-svs/svs/pkg/saveload"
	"github.com/go-svs/svs/pkg/svserr"
)

// BuildParameters controls both the one-shot static build (C6) and the
// per-insert graph maintenance done by dynamic operations (C7).
type BuildParameters struct {
	Alpha                float64
	GraphMaxDegree        int
	WindowSize            int
	MaxCandidatePoolSize  int
	PruneTo               int
	UseFullSearchHistory  bool
}

// DefaultBuildParameters mirrors the teacher's DefaultConfig degree/window
// defaults (R=64, L=100) generalized with alpha=1.2 and use_full_search_history=true,
// the default the original implementation documents for VamanaBuildParameters.
func DefaultBuildParameters() BuildParameters {
	return BuildParameters{
		Alpha:                1.2,
		GraphMaxDegree:       64,
		WindowSize:           100,
		MaxCandidatePoolSize: 750,
		PruneTo:              64,
		UseFullSearchHistory: true,
	}
}

// Validate checks the invariants the build and dynamic operations assume.
func (p BuildParameters) Validate() error {
	if p.GraphMaxDegree <= 0 {
		return svserr.InvalidInput("graph_max_degree must be positive, got %d", p.GraphMaxDegree)
	}
	if p.PruneTo > p.GraphMaxDegree {
		return svserr.InvalidInput("prune_to (%d) must not exceed graph_max_degree (%d)", p.PruneTo, p.GraphMaxDegree)
	}
	if p.WindowSize <= 0 {
		return svserr.InvalidInput("window_size must be positive, got %d", p.WindowSize)
	}
	if p.MaxCandidatePoolSize < p.WindowSize {
		return svserr.InvalidInput("max_candidate_pool_size (%d) must be >= window_size (%d)", p.MaxCandidatePoolSize, p.WindowSize)
	}
	return nil
}

const buildParametersSchema = "vamana_build_parameters"

// buildParametersSaveVersion is v0.0.1: the version at which prune_to was
// added to the schema, per the original implementation's change history.
var buildParametersSaveVersion = saveload.Version{Major: 0, Minor: 0, Patch: 1}

// Save serializes build parameters at the current schema version.
func (p BuildParameters) Save() saveload.Table {
	t := saveload.Table{
		"alpha":                    p.Alpha,
		"graph_max_degree":         int64(p.GraphMaxDegree),
		"window_size":              int64(p.WindowSize),
		"max_candidate_pool_size":  int64(p.MaxCandidatePoolSize),
		"prune_to":                 int64(p.PruneTo),
		"use_full_search_history":  p.UseFullSearchHistory,
	}
	return saveload.WithMetadata(t, buildParametersSchema, buildParametersSaveVersion)
}

// LoadBuildParameters reverses Save, replicating the original
// implementation's version-gated substitution: a v0.0.0 table has no
// prune_to field at all, so the loader must default it to graph_max_degree;
// only a table at v0.0.1 or later is trusted to carry an explicit prune_to.
// Anything newer than this loader's v0.0.1 is rejected, matching the
// original's "throw if version > save_version" guard.
func LoadBuildParameters(loaded *saveload.LoadedRoot) (BuildParameters, error) {
	if loaded.Schema != buildParametersSchema {
		return BuildParameters{}, svserr.Serialization("schema mismatch: got %q, want %q", loaded.Schema, buildParametersSchema)
	}
	if buildParametersSaveVersion.Less(loaded.ObjectVersion) {
		return BuildParameters{}, svserr.Serialization(
			"build parameters at version %s are newer than this loader supports (%s)",
			loaded.ObjectVersion, buildParametersSaveVersion,
		)
	}

	t := loaded.Object
	p := BuildParameters{
		Alpha:                toFloat(t["alpha"]),
		GraphMaxDegree:       toInt(t["graph_max_degree"]),
		WindowSize:           toInt(t["window_size"]),
		MaxCandidatePoolSize: toInt(t["max_candidate_pool_size"]),
		UseFullSearchHistory: toBool(t["use_full_search_history"], true),
	}

	zero := saveload.Version{Major: 0, Minor: 0, Patch: 0}
	p.PruneTo = p.GraphMaxDegree
	if zero.Less(loaded.ObjectVersion) {
		if v, ok := t["prune_to"]; ok {
			p.PruneTo = toInt(v)
		}
	}
	return p, nil
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	default:
		return 0
	}
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}

func toBool(v interface{}, def bool) bool {
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}
