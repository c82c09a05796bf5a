// Package pipeline wires the five-stage indexing pipeline together:
// walk, diff against the cache, parse+extract changed files across a
// bounded worker pool, persist updated caches, and render the index
// document.
package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/codeintelx/metis-code-index/internal/cache"
	"github.com/codeintelx/metis-code-index/internal/extract"
	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
	"github.com/codeintelx/metis-code-index/internal/walker"
	"github.com/codeintelx/metis-code-index/internal/workspace"
	"github.com/codeintelx/metis-code-index/internal/writer"
)

// Config configures a single pipeline run.
type Config struct {
	Root          string
	CacheDir      string
	Incremental   bool
	StructureOnly bool
	Timestamp     string
	Logger        *log.Logger
	ExtraSkipDirs []string
}

// Result summarizes a completed run.
type Result struct {
	RunID        string
	Changed      int
	Unchanged    int
	Deleted      int
	ParseErrors  int
	AffectedDirs []string
	Document     string
}

// Run executes the full pipeline: walk, diff, extract, persist caches,
// render, and write the document to the cache directory. The rendered
// text is also returned on Result.Document.
func Run(cfg Config) (*Result, error) {
	runID := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := workspace.EnsureCacheDir(cfg.CacheDir); err != nil {
		return nil, fmt.Errorf("pipeline[%s]: ensure cache dir: %w", runID, err)
	}

	walkResult, err := walker.Walk(cfg.Root, cfg.ExtraSkipDirs...)
	if err != nil {
		return nil, fmt.Errorf("pipeline[%s]: walk: %w", runID, err)
	}

	hashPath := filepath.Join(cfg.CacheDir, cache.HashManifestFile)
	symbolPath := filepath.Join(cfg.CacheDir, cache.SymbolCacheFile)

	var (
		manifest *cache.HashManifest
		symCache *cache.SymbolCache
		diff     *cache.IncrementalDiff
	)

	if cfg.Incremental {
		manifest, err = cache.LoadHashManifest(hashPath)
		if err != nil {
			return nil, fmt.Errorf("pipeline[%s]: load hash manifest: %w", runID, err)
		}
		symCache, err = cache.LoadSymbolCache(symbolPath)
		if err != nil {
			return nil, fmt.Errorf("pipeline[%s]: load symbol cache: %w", runID, err)
		}
		diff = manifest.Diff(walkResult)
	} else {
		manifest = cache.FromWalkResult(walkResult)
		symCache = &cache.SymbolCache{Files: map[string][]symbols.Symbol{}}
		diff = &cache.IncrementalDiff{Changed: walkResult.Files}
	}

	symbolMap := make(map[string][]symbols.Symbol, len(walkResult.Files))
	parseErrors := 0

	if cfg.StructureOnly {
		// Structure-only mode skips extraction entirely.
		for _, f := range diff.Unchanged {
			symbolMap[f.RelativePath] = symCache.Files[f.RelativePath]
		}
	} else {
		var changedSymbols map[string][]symbols.Symbol
		changedSymbols, parseErrors = extractChanged(diff.Changed, logger, runID)

		for _, f := range diff.Unchanged {
			symbolMap[f.RelativePath] = symCache.Files[f.RelativePath]
		}
		for rel, syms := range changedSymbols {
			symbolMap[rel] = syms
		}

		manifest.Update(diff)
		symCache.Update(changedSymbols, diff.Deleted)

		// Write the symbol cache before the hash manifest: if a crash
		// lands between the two, the manifest must not yet claim a file
		// is indexed while its symbols are missing or stale. Hashes
		// trailing behind just forces a safe re-extract next run.
		if err := symCache.Save(symbolPath); err != nil {
			return nil, fmt.Errorf("pipeline[%s]: save symbol cache: %w", runID, err)
		}
		if err := manifest.Save(hashPath); err != nil {
			return nil, fmt.Errorf("pipeline[%s]: save hash manifest: %w", runID, err)
		}
	}

	priorDocument, _ := readPriorDocument(cfg.CacheDir)

	doc := writer.Render(writer.Options{
		WalkResult:    walkResult,
		SymbolMap:     symbolMap,
		Timestamp:     cfg.Timestamp,
		PriorDocument: priorDocument,
		StructureOnly: cfg.StructureOnly,
	})

	if err := WriteDocument(cfg.CacheDir, doc); err != nil {
		return nil, fmt.Errorf("pipeline[%s]: write document: %w", runID, err)
	}

	return &Result{
		RunID:        runID,
		Changed:      diff.ChangedCount(),
		Unchanged:    diff.UnchangedCount(),
		Deleted:      diff.DeletedCount(),
		ParseErrors:  parseErrors,
		AffectedDirs: cache.AffectedDirectories(diff),
		Document:     doc,
	}, nil
}

// parseTask is one changed file assigned to a worker.
type parseTask struct {
	file symbols.SourceFile
}

// parseOutcome is what a worker produces for one task.
type parseOutcome struct {
	relPath string
	syms    []symbols.Symbol
	err     error
}

// extractChanged parses and extracts every changed file across a bounded
// worker pool: a sequential discovery phase feeds a fixed-size pool of
// parser goroutines, with a single collector serializing their results.
// A parse/extract failure is logged and counted, never fatal to the run.
func extractChanged(files []symbols.SourceFile, logger *log.Logger, runID string) (map[string][]symbols.Symbol, int) {
	result := make(map[string][]symbols.Symbol, len(files))
	if len(files) == 0 {
		return result, 0
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	tasks := make(chan parseTask, numWorkers*2)
	outcomes := make(chan parseOutcome, numWorkers*2)

	var workers sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p := treesitter.NewParser()
			for task := range tasks {
				syms, err := parseAndExtract(p, task.file)
				outcomes <- parseOutcome{relPath: task.file.RelativePath, syms: syms, err: err}
			}
		}()
	}

	go func() {
		for _, f := range files {
			tasks <- parseTask{file: f}
		}
		close(tasks)
		workers.Wait()
		close(outcomes)
	}()

	parseErrors := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			logger.Printf("[%s] warning: %s: %v", runID, outcome.relPath, outcome.err)
			parseErrors++
			continue
		}
		result[outcome.relPath] = outcome.syms
	}

	return result, parseErrors
}

func parseAndExtract(p *treesitter.Parser, file symbols.SourceFile) ([]symbols.Symbol, error) {
	pf, err := p.ParseFile(file.AbsolutePath)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	syms, err := extract.ExtractSymbols(pf, file.RelativePath)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return syms, nil
}

// documentFile is the name of the rendered index document within the
// cache directory.
const documentFile = "code-index.md"

// readPriorDocument reads the previous run's document, if any, so its
// Summary subsections can be carried forward. A missing file is not an
// error — it just means this is the first run.
func readPriorDocument(cacheDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(cacheDir, documentFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("pipeline: read prior document: %w", err)
	}
	return string(data), nil
}

// WriteDocument persists the rendered document to the cache directory.
func WriteDocument(cacheDir, document string) error {
	return os.WriteFile(filepath.Join(cacheDir, documentFile), []byte(document), 0o644)
}
