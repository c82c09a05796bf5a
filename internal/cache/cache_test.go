package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

func makeSourceFile(root, rel string) symbols.SourceFile {
	return symbols.SourceFile{
		AbsolutePath: filepath.Join(root, rel),
		RelativePath: rel,
		Language:     symbols.LangRust,
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.rs")
	if err := os.WriteFile(file, []byte("fn main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	hash, err := HashFile(file)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if len(hash) != 64 {
		t.Fatalf("hash length = %d, want 64 (BLAKE3 hex digest)", len(hash))
	}

	hash2, err := HashFile(file)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if hash != hash2 {
		t.Error("same content should hash identically")
	}
}

func TestHashChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.rs")

	os.WriteFile(file, []byte("fn main() {}"), 0o644)
	hash1, _ := HashFile(file)

	os.WriteFile(file, []byte(`fn main() { println!("hello"); }`), 0o644)
	hash2, _ := HashFile(file)

	if hash1 == hash2 {
		t.Error("different content should hash differently")
	}
}

func TestManifestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hashes.json")

	manifest := &HashManifest{Files: map[string]string{
		"src/main.rs": "abc123",
		"src/lib.rs":  "def456",
	}}
	if err := manifest.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadHashManifest(path)
	if err != nil {
		t.Fatalf("LoadHashManifest: %v", err)
	}
	if len(loaded.Files) != 2 {
		t.Fatalf("loaded %d files, want 2", len(loaded.Files))
	}
	if loaded.Files["src/main.rs"] != "abc123" || loaded.Files["src/lib.rs"] != "def456" {
		t.Errorf("loaded files = %+v", loaded.Files)
	}
}

func TestLoadNonexistentReturnsEmpty(t *testing.T) {
	manifest, err := LoadHashManifest("/nonexistent/path.json")
	if err != nil {
		t.Fatalf("LoadHashManifest: %v", err)
	}
	if len(manifest.Files) != 0 {
		t.Errorf("expected empty manifest, got %+v", manifest.Files)
	}
}

func TestFromWalkResult(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}"), 0o644)
	os.WriteFile(filepath.Join(dir, "lib.rs"), []byte("pub mod utils;"), 0o644)

	walkResult := &symbols.WalkResult{
		Root: dir,
		Files: []symbols.SourceFile{
			makeSourceFile(dir, "main.rs"),
			makeSourceFile(dir, "lib.rs"),
		},
	}

	manifest := FromWalkResult(walkResult)
	if len(manifest.Files) != 2 {
		t.Fatalf("manifest has %d files, want 2", len(manifest.Files))
	}
	if _, ok := manifest.Files["main.rs"]; !ok {
		t.Error("missing main.rs")
	}
	if _, ok := manifest.Files["lib.rs"]; !ok {
		t.Error("missing lib.rs")
	}
}

func TestDiffAllNew(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}"), 0o644)

	walkResult := &symbols.WalkResult{Root: dir, Files: []symbols.SourceFile{makeSourceFile(dir, "main.rs")}}

	empty := &HashManifest{Files: map[string]string{}}
	diff := empty.Diff(walkResult)

	if diff.ChangedCount() != 1 || diff.UnchangedCount() != 0 || diff.DeletedCount() != 0 {
		t.Errorf("diff = %+v", diff)
	}
}

func TestDiffUnchanged(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}"), 0o644)

	walkResult := &symbols.WalkResult{Root: dir, Files: []symbols.SourceFile{makeSourceFile(dir, "main.rs")}}

	manifest := FromWalkResult(walkResult)
	diff := manifest.Diff(walkResult)

	if diff.ChangedCount() != 0 || diff.UnchangedCount() != 1 || diff.DeletedCount() != 0 {
		t.Errorf("diff = %+v", diff)
	}
}

func TestDiffModified(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}"), 0o644)

	walkResult := &symbols.WalkResult{Root: dir, Files: []symbols.SourceFile{makeSourceFile(dir, "main.rs")}}
	manifest := FromWalkResult(walkResult)

	os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() { updated }"), 0o644)

	diff := manifest.Diff(walkResult)
	if diff.ChangedCount() != 1 || diff.UnchangedCount() != 0 || diff.DeletedCount() != 0 {
		t.Errorf("diff = %+v", diff)
	}
}

func TestDiffDeleted(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.rs"), []byte("fn main() {}"), 0o644)

	full := &symbols.WalkResult{Root: dir, Files: []symbols.SourceFile{makeSourceFile(dir, "main.rs")}}
	manifest := FromWalkResult(full)

	empty := &symbols.WalkResult{Root: dir, Files: nil}
	diff := manifest.Diff(empty)

	if diff.ChangedCount() != 0 || diff.UnchangedCount() != 0 || diff.DeletedCount() != 1 {
		t.Errorf("diff = %+v", diff)
	}
	if diff.Deleted[0] != "main.rs" {
		t.Errorf("deleted[0] = %q, want main.rs", diff.Deleted[0])
	}
}

func TestDiffMixedScenario(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "keep.rs"), []byte("unchanged"), 0o644)
	os.WriteFile(filepath.Join(dir, "modify.rs"), []byte("original"), 0o644)
	os.WriteFile(filepath.Join(dir, "delete.rs"), []byte("will be deleted"), 0o644)

	initial := &symbols.WalkResult{
		Root: dir,
		Files: []symbols.SourceFile{
			makeSourceFile(dir, "delete.rs"),
			makeSourceFile(dir, "keep.rs"),
			makeSourceFile(dir, "modify.rs"),
		},
	}
	manifest := FromWalkResult(initial)

	os.WriteFile(filepath.Join(dir, "modify.rs"), []byte("modified content"), 0o644)
	os.WriteFile(filepath.Join(dir, "new.rs"), []byte("brand new"), 0o644)

	updated := &symbols.WalkResult{
		Root: dir,
		Files: []symbols.SourceFile{
			makeSourceFile(dir, "keep.rs"),
			makeSourceFile(dir, "modify.rs"),
			makeSourceFile(dir, "new.rs"),
		},
	}

	diff := manifest.Diff(updated)
	if diff.UnchangedCount() != 1 {
		t.Errorf("unchanged = %d, want 1 (keep.rs)", diff.UnchangedCount())
	}
	if diff.ChangedCount() != 2 {
		t.Errorf("changed = %d, want 2 (modify.rs + new.rs)", diff.ChangedCount())
	}
	if diff.DeletedCount() != 1 {
		t.Errorf("deleted = %d, want 1 (delete.rs)", diff.DeletedCount())
	}
}

func TestUpdateManifest(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "keep.rs"), []byte("unchanged"), 0o644)
	os.WriteFile(filepath.Join(dir, "modify.rs"), []byte("modified content"), 0o644)
	os.WriteFile(filepath.Join(dir, "new.rs"), []byte("brand new"), 0o644)

	manifest := &HashManifest{Files: map[string]string{
		"keep.rs":    "keep_hash",
		"modify.rs":  "stale_hash",
		"deleted.rs": "gone_hash",
	}}

	diff := &IncrementalDiff{
		Changed: []symbols.SourceFile{
			makeSourceFile(dir, "modify.rs"),
			makeSourceFile(dir, "new.rs"),
		},
		Deleted: []string{"deleted.rs"},
	}

	manifest.Update(diff)

	if _, ok := manifest.Files["deleted.rs"]; ok {
		t.Error("deleted.rs should have been removed")
	}
	if manifest.Files["keep.rs"] != "keep_hash" {
		t.Error("keep.rs's hash should be untouched")
	}
	newHash, err := HashFile(filepath.Join(dir, "new.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Files["new.rs"] != newHash {
		t.Error("new.rs should have been hashed and recorded")
	}
}

func TestAffectedDirectories(t *testing.T) {
	diff := &IncrementalDiff{
		Changed: []symbols.SourceFile{
			{RelativePath: "src/main.rs"},
			{RelativePath: "src/utils/helpers.rs"},
		},
		Deleted: []string{"src/old.rs"},
	}

	dirs := AffectedDirectories(diff)
	want := map[string]bool{"src": false, "src/utils": false}
	for _, d := range dirs {
		if _, ok := want[d]; ok {
			want[d] = true
		}
	}
	for d, found := range want {
		if !found {
			t.Errorf("expected %q among affected directories, got %v", d, dirs)
		}
	}
}

func TestSymbolCacheSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbols.json")

	cache := &SymbolCache{Files: map[string][]symbols.Symbol{
		"main.go": {symbols.NewSymbol("main", symbols.KindFunction, "main.go", 1, 3)},
	}}
	if err := cache.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadSymbolCache(path)
	if err != nil {
		t.Fatalf("LoadSymbolCache: %v", err)
	}
	if len(loaded.Files["main.go"]) != 1 {
		t.Fatalf("loaded cache = %+v", loaded.Files)
	}
	if loaded.Files["main.go"][0].Name != "main" {
		t.Errorf("symbol name = %q", loaded.Files["main.go"][0].Name)
	}
}

func TestSymbolCacheUpdate(t *testing.T) {
	cache := &SymbolCache{Files: map[string][]symbols.Symbol{
		"a.go": {symbols.NewSymbol("A", symbols.KindFunction, "a.go", 1, 2)},
		"b.go": {symbols.NewSymbol("B", symbols.KindFunction, "b.go", 1, 2)},
	}}

	cache.Update(map[string][]symbols.Symbol{
		"a.go": {symbols.NewSymbol("A2", symbols.KindFunction, "a.go", 1, 4)},
	}, []string{"b.go"})

	if _, ok := cache.Files["b.go"]; ok {
		t.Error("b.go should have been removed")
	}
	if cache.Files["a.go"][0].Name != "A2" {
		t.Errorf("a.go symbols not updated: %+v", cache.Files["a.go"])
	}
}
