package translate

import (
	"github.com/go-svs/svs/pkg/saveload"
	"github.com/go-svs/svs/pkg/svserr"
)

const translatorSchema = "id_translator"

var translatorSaveVersion = saveload.Version{Major: 0, Minor: 0, Patch: 1}

// Save writes the translator as two parallel arrays, small enough that a
// direct TOML table (rather than a binary sidecar) stays human-diffable.
func (t *Translator) Save() saveload.Table {
	pairs := t.All()
	externals := make([]uint64, len(pairs))
	internals := make([]uint32, len(pairs))
	for i, p := range pairs {
		externals[i] = p.External
		internals[i] = p.Internal
	}
	table := saveload.Table{
		"externals": externals,
		"internals": internals,
	}
	return saveload.WithMetadata(table, translatorSchema, translatorSaveVersion)
}

// Load reverses Save.
func Load(loaded *saveload.LoadedRoot) (*Translator, error) {
	if err := saveload.CheckCompatible(loaded, translatorSchema, translatorSaveVersion); err != nil {
		return nil, err
	}
	externals, err := toUint64Slice(loaded.Object["externals"])
	if err != nil {
		return nil, err
	}
	internals, err := toUint32Slice(loaded.Object["internals"])
	if err != nil {
		return nil, err
	}
	if len(externals) != len(internals) {
		return nil, svserr.Serialization("translator externals (%d) and internals (%d) length mismatch", len(externals), len(internals))
	}
	t := New()
	if err := t.Insert(externals, internals, true); err != nil {
		return nil, err
	}
	return t, nil
}

func toUint64Slice(v interface{}) ([]uint64, error) {
	items, ok := v.([]interface{})
	if !ok {
		if direct, ok := v.([]uint64); ok {
			return direct, nil
		}
		return nil, svserr.Serialization("translator externals field has unexpected shape %T", v)
	}
	out := make([]uint64, len(items))
	for i, it := range items {
		n, err := asUint64(it)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func toUint32Slice(v interface{}) ([]uint32, error) {
	items, ok := v.([]interface{})
	if !ok {
		if direct, ok := v.([]uint32); ok {
			return direct, nil
		}
		return nil, svserr.Serialization("translator internals field has unexpected shape %T", v)
	}
	out := make([]uint32, len(items))
	for i, it := range items {
		n, err := asUint64(it)
		if err != nil {
			return nil, err
		}
		out[i] = uint32(n)
	}
	return out, nil
}

func asUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case int64:
		return uint64(n), nil
	case uint64:
		return n, nil
	case float64:
		return uint64(n), nil
	default:
		return 0, svserr.Serialization("translator id has unexpected type %T", v)
	}
}
