package extract

import (
	"fmt"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

// ExtractSymbols dispatches to the extractor for pf.Language and returns
// the symbols declared in the file. relPath is stored on every symbol as
// its File field (the workspace-relative path, not pf.Path).
func ExtractSymbols(pf *treesitter.ParsedFile, relPath string) ([]symbols.Symbol, error) {
	switch pf.Language {
	case symbols.LangGo:
		return extractGoSymbols(pf, relPath)
	case symbols.LangRust:
		return extractRustSymbols(pf, relPath)
	case symbols.LangPython:
		return extractPythonSymbols(pf, relPath)
	case symbols.LangTypeScript, symbols.LangJavaScript:
		return extractScriptSymbols(pf, relPath)
	default:
		return nil, fmt.Errorf("extract: unsupported language %s", pf.Language)
	}
}

// ExtractGoImports returns the import specs of a parsed Go file. Import
// extraction is implemented for Go only; the writer does not render
// imports.
func ExtractGoImports(pf *treesitter.ParsedFile) ([]Import, error) {
	if pf.Language != symbols.LangGo {
		return nil, fmt.Errorf("extract: imports only supported for go, got %s", pf.Language)
	}
	return extractGoImports(pf)
}
