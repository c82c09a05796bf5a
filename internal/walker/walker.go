// Package walker enumerates source files under a root directory,
// honoring gitignore-style ignore semantics plus a fixed hard skip-list,
// and tags each discovered file with its detected language.
package walker

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

// SkipDirs are hard-skipped regardless of ignore-file content: build
// output, dependency caches, and VCS metadata that are never worth
// descending into.
var SkipDirs = map[string]bool{
	"target":        true,
	"node_modules":  true,
	"__pycache__":   true,
	".git":          true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	".tox":          true,
	".venv":         true,
	"venv":          true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".next":         true,
}

// WalkError is returned when a walk cannot complete: the root is
// inaccessible, or enumeration failed partway through.
type WalkError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WalkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("walk %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("walk %s: %s", e.Path, e.Message)
}

func (e *WalkError) Unwrap() error { return e.Cause }

// Walk enumerates source files under root, respecting gitignore
// semantics (project .gitignore, nested .gitignore files, the global
// gitignore, and .git/info/exclude), the fixed SkipDirs hard skip-list
// plus any caller-supplied extraSkipDirs, and dot-file/dot-directory
// hiding. Only files whose extension maps to a known Language are
// returned, sorted by relative path.
func Walk(root string, extraSkipDirs ...string) (*symbols.WalkResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &WalkError{Path: root, Message: "resolve absolute path", Cause: err}
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, &WalkError{Path: root, Message: "canonicalize root", Cause: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &WalkError{Path: absRoot, Message: "stat root", Cause: err}
	}
	if !info.IsDir() {
		return nil, &WalkError{Path: absRoot, Message: "root is not a directory"}
	}

	skip := buildSkipSet(extraSkipDirs)
	patterns := collectIgnorePatterns(absRoot, skip)
	matcher := gitignore.CompileIgnoreLines(patterns...)

	var files []symbols.SourceFile
	err = filepath.Walk(absRoot, func(path string, entry os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == absRoot {
			return nil
		}

		relPath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return relErr
		}
		relPath = toSlash(relPath)

		name := entry.Name()
		if entry.IsDir() {
			if skip[name] || isHidden(name) {
				return filepath.SkipDir
			}
			if matcher.MatchesPath(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(name) {
			return nil
		}
		if matcher.MatchesPath(relPath) {
			return nil
		}

		lang, ok := symbols.LanguageFromPath(path)
		if !ok {
			return nil
		}

		files = append(files, symbols.SourceFile{
			AbsolutePath: path,
			RelativePath: relPath,
			Language:     lang,
		})
		return nil
	})
	if err != nil {
		return nil, &WalkError{Path: absRoot, Message: "enumerate directory tree", Cause: err}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})

	return &symbols.WalkResult{Root: absRoot, Files: files}, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

// buildSkipSet merges the fixed SkipDirs hard skip-list with any
// caller-supplied extra directory names (e.g. from a project's
// .metis/config.yaml), producing the lookup table both walk passes
// consult.
func buildSkipSet(extraSkipDirs []string) map[string]bool {
	skip := make(map[string]bool, len(SkipDirs)+len(extraSkipDirs))
	for name := range SkipDirs {
		skip[name] = true
	}
	for _, name := range extraSkipDirs {
		if name != "" {
			skip[name] = true
		}
	}
	return skip
}

// collectIgnorePatterns gathers the project's .gitignore (root and every
// nested directory), the global gitignore, and .git/info/exclude into
// one ordered pattern list, in git's precedence order. The matcher lets
// later patterns win, so the list runs from lowest to highest
// precedence: the global gitignore, then .git/info/exclude, then the root
// .gitignore, then nested .gitignore files.
func collectIgnorePatterns(root string, skip map[string]bool) []string {
	var patterns []string

	patterns = append(patterns, readIgnoreFile(globalGitignorePath())...)
	patterns = append(patterns, readIgnoreFile(filepath.Join(root, ".git", "info", "exclude"))...)
	patterns = append(patterns, readIgnoreFile(filepath.Join(root, ".gitignore"))...)

	_ = filepath.Walk(root, func(path string, entry os.FileInfo, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if path == root {
			return nil
		}
		name := entry.Name()
		if skip[name] || isHidden(name) {
			return filepath.SkipDir
		}
		patterns = append(patterns, readIgnoreFile(filepath.Join(path, ".gitignore"))...)
		return nil
	})

	return patterns
}

func globalGitignorePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "git", "ignore")
	}
	return ""
}

func readIgnoreFile(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
