// Package preload implements the Scope Preloader (spec.md §4, §6, §9):
// parsing a set of declaration files into named scopes once, at VM init,
// before any request touches them. Per spec.md §5's "Ordering guarantees",
// preload merges into each named scope happen in the manifest's declared
// order; per §7, a file that fails to read or parse emits a warning and is
// skipped rather than aborting startup.
package preload

import (
	"context"
	"fmt"
	"os"

	"github.com/blade-lang/goffi/internal/cparse"
	"github.com/blade-lang/goffi/internal/symtab"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ScopeEntry describes one named scope's declaration files, the
// `{scope, lib, files[]}` shape SPEC_FULL.md's manifest uses — a
// supplement over the single `#define FFI_SCOPE`/`FFI_LIB` directives a
// lone file carries, drawn from the original source's FFI_PRELOAD, which
// enumerates several scopes at once.
type ScopeEntry struct {
	Scope string   `yaml:"scope"`
	Lib   string   `yaml:"lib,omitempty"`
	Files []string `yaml:"files"`
}

// Manifest is the top-level preload configuration: a declared-order list
// of scope entries. Two entries may name the same Scope; their Files are
// merged into one scope in the order the entries appear.
type Manifest struct {
	Scopes []ScopeEntry `yaml:"scopes"`
}

// ParseManifest decodes a YAML preload manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("preload: invalid manifest: %w", err)
	}
	return &m, nil
}

// Table is the process-wide, frozen-after-load preloaded-scope table of
// spec.md §5: a name -> *symtab.Scope map, read-only once Load returns.
type Table struct {
	scopes map[string]*symtab.Scope
}

// Scope looks up a preloaded scope by name, for the host-visible
// `scope(name)` entrypoint.
func (t *Table) Scope(name string) (*symtab.Scope, bool) {
	s, ok := t.scopes[name]
	return s, ok
}

// Names returns every scope name in the table, for diagnostics.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.scopes))
	for n := range t.scopes {
		names = append(names, n)
	}
	return names
}

// ReadFile abstracts file access so Load can be exercised without a real
// filesystem. The zero value of Options uses os.ReadFile.
type ReadFile func(path string) ([]byte, error)

// Warn receives one warning per resource error (a missing file, a parse
// failure) instead of Load aborting, per spec.md §7.
type Warn func(path string, err error)

type fileResult struct {
	data []byte
	err  error
}

// Load builds a Table from m. Every file named anywhere in the manifest is
// read concurrently (the I/O-bound, order-independent half of the work);
// once every read has completed, each scope entry's files are parsed, in
// the manifest's declared order, into that entry's shared *symtab.Scope —
// parsing itself cannot run concurrently within one scope, since cparse.Parse
// mutates shared scope state incrementally and a later file may reference
// a tag or typedef an earlier file in the same scope declared.
func Load(ctx context.Context, m *Manifest, readFile ReadFile, warn Warn) *Table {
	if readFile == nil {
		readFile = os.ReadFile
	}
	if warn == nil {
		warn = func(string, error) {}
	}

	results := make([][]fileResult, len(m.Scopes))
	for i, e := range m.Scopes {
		results[i] = make([]fileResult, len(e.Files))
	}

	g, _ := errgroup.WithContext(ctx)
	for ei, e := range m.Scopes {
		for fi, path := range e.Files {
			ei, fi, path := ei, fi, path
			g.Go(func() error {
				data, err := readFile(path)
				results[ei][fi] = fileResult{data: data, err: err}
				return nil // resource errors warn+skip; they never fail the group
			})
		}
	}
	_ = g.Wait()

	table := &Table{scopes: make(map[string]*symtab.Scope)}
	for ei, e := range m.Scopes {
		scope, ok := table.scopes[e.Scope]
		if !ok {
			scope = symtab.New(e.Scope)
			table.scopes[e.Scope] = scope
		}
		if e.Lib != "" {
			scope.Library = e.Lib
		}
		for fi, path := range e.Files {
			res := results[ei][fi]
			if res.err != nil {
				warn(path, res.err)
				continue
			}
			if _, err := cparse.Parse(string(res.data), scope); err != nil {
				warn(path, err)
				continue
			}
		}
	}
	return table
}
