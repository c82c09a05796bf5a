// Package cache persists BLAKE3 content hashes and extracted symbols
// between runs, so `index --incremental` only re-parses files whose
// content actually changed.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

// HashManifestFile and SymbolCacheFile are the on-disk file names inside
// a workspace's cache directory.
const (
	HashManifestFile = "code-index-hashes.json"
	SymbolCacheFile  = "code-index-symbols.json"
)

// HashManifest maps a workspace-relative file path to the BLAKE3 hex
// digest of its last-indexed content.
type HashManifest struct {
	Files map[string]string `json:"files"`
}

// LoadHashManifest reads a manifest from path. A missing file yields an
// empty manifest, not an error — the first run of a workspace has none.
func LoadHashManifest(path string) (*HashManifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &HashManifest{Files: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var m HashManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Files == nil {
		m.Files = map[string]string{}
	}
	return &m, nil
}

// Save writes the manifest as indented JSON, for a stable diff-friendly
// file humans may inspect.
func (m *HashManifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// HashFile returns the BLAKE3 hex digest of a file's contents.
func HashFile(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	h := blake3.New()
	h.Write(contents)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IncrementalDiff splits a walk result into files that need re-indexing,
// files that can be skipped, and paths the manifest remembers but that
// no longer exist on disk.
type IncrementalDiff struct {
	Changed   []symbols.SourceFile
	Unchanged []symbols.SourceFile
	Deleted   []string
}

func (d *IncrementalDiff) ChangedCount() int   { return len(d.Changed) }
func (d *IncrementalDiff) UnchangedCount() int { return len(d.Unchanged) }
func (d *IncrementalDiff) DeletedCount() int   { return len(d.Deleted) }

// Diff hashes every file in walkResult and compares it against the
// manifest's recorded hashes. A file that fails to hash is treated as
// changed, so it still gets indexed rather than silently skipped.
func (m *HashManifest) Diff(walkResult *symbols.WalkResult) *IncrementalDiff {
	diff := &IncrementalDiff{}
	seen := make(map[string]struct{}, len(walkResult.Files))

	for _, file := range walkResult.Files {
		seen[file.RelativePath] = struct{}{}

		hash, err := HashFile(file.AbsolutePath)
		if err != nil {
			diff.Changed = append(diff.Changed, file)
			continue
		}
		if existing, ok := m.Files[file.RelativePath]; ok && existing == hash {
			diff.Unchanged = append(diff.Unchanged, file)
		} else {
			diff.Changed = append(diff.Changed, file)
		}
	}

	for path := range m.Files {
		if _, ok := seen[path]; !ok {
			diff.Deleted = append(diff.Deleted, path)
		}
	}
	sort.Strings(diff.Deleted)

	return diff
}

// FromWalkResult builds a fresh manifest by hashing every file in
// walkResult, ignoring any prior state — used for a non-incremental run.
func FromWalkResult(walkResult *symbols.WalkResult) *HashManifest {
	m := &HashManifest{Files: map[string]string{}}
	for _, file := range walkResult.Files {
		hash, err := HashFile(file.AbsolutePath)
		if err != nil {
			continue
		}
		m.Files[file.RelativePath] = hash
	}
	return m
}

// Update applies a diff to the manifest in place: deleted paths are
// dropped, changed files are re-hashed and recorded.
func (m *HashManifest) Update(diff *IncrementalDiff) {
	for _, path := range diff.Deleted {
		delete(m.Files, path)
	}
	for _, file := range diff.Changed {
		hash, err := HashFile(file.AbsolutePath)
		if err != nil {
			continue
		}
		m.Files[file.RelativePath] = hash
	}
}

// AffectedDirectories returns the set of workspace-relative directories
// that contain a changed or deleted file, for writers that only need to
// regenerate the documents covering those directories.
func AffectedDirectories(diff *IncrementalDiff) []string {
	set := map[string]struct{}{}
	for _, file := range diff.Changed {
		set[filepath.ToSlash(filepath.Dir(file.RelativePath))] = struct{}{}
	}
	for _, path := range diff.Deleted {
		set[filepath.ToSlash(filepath.Dir(path))] = struct{}{}
	}

	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// SymbolCache maps a workspace-relative file path to the symbols
// extracted from it, persisted so an incremental run can skip
// re-parsing unchanged files entirely.
type SymbolCache struct {
	Files map[string][]symbols.Symbol `json:"files"`
}

// LoadSymbolCache reads a cache from path. A missing file yields an
// empty cache, not an error.
func LoadSymbolCache(path string) (*SymbolCache, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &SymbolCache{Files: map[string][]symbols.Symbol{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var c SymbolCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Files == nil {
		c.Files = map[string][]symbols.Symbol{}
	}
	return &c, nil
}

// Save writes the cache as compact JSON; unlike the hash manifest, this
// file isn't meant to be hand-inspected and can grow large.
func (c *SymbolCache) Save(path string) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Update replaces the entries for changed files and removes deleted
// ones, leaving unchanged files' cached symbols untouched.
func (c *SymbolCache) Update(changed map[string][]symbols.Symbol, deleted []string) {
	for _, path := range deleted {
		delete(c.Files, path)
	}
	for path, syms := range changed {
		c.Files[path] = syms
	}
}
