package goffi

import (
	"context"

	"github.com/blade-lang/goffi/internal/preload"
)

// LoadScopes parses a Scope Preloader manifest and installs it, per
// spec.md §6's `preload = "file1;file2;..."` option and the Scope
// Preloader's §4/§9 merge-ordering guarantees. manifestYAML is the
// manifest body (see internal/preload.ParseManifest for its
// `{scope, lib, files[]}` shape). warn receives one call per file that
// failed to read or parse — spec.md §7: in preload mode, a resource error
// "emits a warning and skips the offending file rather than aborting VM
// startup" — and may be nil to discard warnings.
//
// The returned Table is immutable once returned and is meant to be handed
// to WithPreloaded when constructing every VM that should see these
// scopes, per spec.md §5's "read-only after MINIT" rule.
func LoadScopes(ctx context.Context, manifestYAML []byte, warn func(path string, err error)) (*preload.Table, error) {
	m, err := preload.ParseManifest(manifestYAML)
	if err != nil {
		return nil, err
	}
	return preload.Load(ctx, m, nil, warn), nil
}
