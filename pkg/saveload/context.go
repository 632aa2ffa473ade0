package saveload

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/go-svs/svs/pkg/svserr"
)

// SaveContext tracks the directory an artifact is being written into and
// hands out unique, relative sidecar filenames. Grounded on the original
// implementation's SaveContext (original_source/include/svs/lib/saveload/save.h):
// the same generate_name(prefix, extension) contract, but generating
// uniqueness with a uuid instead of an atomic counter, since a counter
// that resets to zero on every save is meaningless for cache-busting
// sidecar names across repeated saves to the same directory during tests.
type SaveContext struct {
	Dir     string
	Version Version
}

// NewSaveContext creates a context rooted at dir, creating the directory if
// necessary.
func NewSaveContext(dir string) (*SaveContext, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, svserr.IO("creating save directory %s: %v", dir, err)
	}
	return &SaveContext{Dir: dir, Version: CurrentSaveVersion}, nil
}

// GenerateName returns a unique filename of the form "prefix_<uuid>.ext",
// relative to Dir — never an absolute path, preserving the relocatability
// invariant.
func (c *SaveContext) GenerateName(prefix, extension string) string {
	return prefix + "_" + uuid.NewString() + "." + extension
}

// Path joins a relative sidecar name onto the context's directory, for
// actually opening the file to write it.
func (c *SaveContext) Path(relative string) string {
	return filepath.Join(c.Dir, relative)
}

// LoadContext is the read-side counterpart: a directory to resolve relative
// sidecar paths against.
type LoadContext struct {
	Dir string
}

// NewLoadContext wraps an existing artifact directory for loading.
func NewLoadContext(dir string) *LoadContext {
	return &LoadContext{Dir: dir}
}

// Path resolves a relative sidecar name against the artifact directory.
func (c *LoadContext) Path(relative string) string {
	return filepath.Join(c.Dir, relative)
}
