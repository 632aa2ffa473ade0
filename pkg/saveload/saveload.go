// Package saveload implements the versioned, schema-tagged serialization
// framework (C11): a root "svs_config.toml" table plus relative-path
// sidecar binary blobs. Grounded on the original implementation's
// SaveTable/insert_metadata machinery (original_source/include/svs/lib/saveload/save.h)
// for the root-table shape, and on pelletier/go-toml/v2 (the only TOML
// library anywhere in the retrieved pack) for parsing/marshaling it.
package saveload

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/go-svs/svs/pkg/svserr"
)

// Table is a type-specific save/load payload: arbitrary TOML-serializable
// keys plus the two metadata keys every loader checks before dispatching.
type Table map[string]interface{}

const (
	schemaKey  = "__schema__"
	versionKey = "__version__"
)

// WithMetadata returns a copy of t with schema/version metadata keys
// inserted, mirroring insert_metadata in the original implementation.
func WithMetadata(t Table, schema string, version Version) Table {
	out := make(Table, len(t)+2)
	for k, v := range t {
		out[k] = v
	}
	out[schemaKey] = schema
	out[versionKey] = version.String()
	return out
}

// rootTable is the on-disk shape of svs_config.toml.
type rootTable struct {
	Version string                 `toml:"__version__"`
	Object  map[string]interface{} `toml:"object"`
}

// SaveRoot writes a complete artifact root file. object must already carry
// its __schema__/__version__ keys (see WithMetadata).
func SaveRoot(ctx *SaveContext, object Table) error {
	root := rootTable{Version: CurrentSaveVersion.String(), Object: object}
	data, err := toml.Marshal(root)
	if err != nil {
		return svserr.Serialization("marshaling root table: %v", err)
	}
	path := ctx.Path("svs_config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return svserr.IO("writing %s: %v", path, err)
	}
	return nil
}

// LoadedRoot is the parsed contents of svs_config.toml before a
// type-specific loader dispatches on its object payload.
type LoadedRoot struct {
	GlobalVersion Version
	Schema        string
	ObjectVersion Version
	Object        Table
}

// LoadRoot reads and validates a root file's global version, returning the
// parsed object table for a type-specific loader to interpret.
func LoadRoot(ctx *LoadContext) (*LoadedRoot, error) {
	path := ctx.Path("svs_config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, svserr.IO("reading %s: %v", path, err)
	}
	var root rootTable
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, svserr.Serialization("parsing %s: %v", path, err)
	}
	globalVersion, err := ParseVersion(root.Version)
	if err != nil {
		return nil, err
	}
	if globalVersion.Less(Version{0, 0, 2}) {
		return nil, svserr.Serialization("artifact at %s uses global version %s; please upgrade it before loading", path, root.Version)
	}
	if CurrentSaveVersion.Less(globalVersion) {
		return nil, svserr.Serialization("artifact at %s uses global version %s, newer than this build's %s", path, root.Version, CurrentSaveVersion)
	}
	schema, _ := root.Object[schemaKey].(string)
	objVersionStr, _ := root.Object[versionKey].(string)
	objVersion, err := ParseVersion(objVersionStr)
	if err != nil {
		return nil, err
	}
	return &LoadedRoot{
		GlobalVersion: globalVersion,
		Schema:        schema,
		ObjectVersion: objVersion,
		Object:        Table(root.Object),
	}, nil
}

// CheckCompatible is the default compatibility check described in C11: a
// table is loadable by a type iff its schema matches exactly and its
// version matches exactly. Types with looser version tolerance (e.g. the
// Vamana build-parameters loader's prune_to substitution) compare
// loaded.ObjectVersion themselves instead of calling this helper.
func CheckCompatible(loaded *LoadedRoot, wantSchema string, wantVersion Version) error {
	if loaded.Schema != wantSchema {
		return svserr.Serialization("schema mismatch: artifact has %q, loader wants %q", loaded.Schema, wantSchema)
	}
	if !loaded.ObjectVersion.Equal(wantVersion) {
		return svserr.Serialization("version mismatch: artifact has %s, loader wants %s", loaded.ObjectVersion, wantVersion)
	}
	return nil
}
