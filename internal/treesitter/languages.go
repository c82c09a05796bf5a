// Package treesitter turns source bytes into a concrete syntax tree
// using a language-specific grammar, amortizing grammar initialization
// across calls. Supported languages and their grammars are fixed at
// build time: there is no run-time plugin loading.
package treesitter

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

// grammarRegistry is the lazily initialized, process-lifetime map from
// Language to its tree-sitter grammar handle. Populated once by
// initGrammars and never mutated afterward, so concurrent readers need
// no further synchronization once grammarsOnce.Do has returned.
var (
	grammarRegistry map[symbols.Language]*sitter.Language
	grammarsOnce    sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammarRegistry = map[symbols.Language]*sitter.Language{
			symbols.LangRust:       rust.GetLanguage(),
			symbols.LangPython:     python.GetLanguage(),
			symbols.LangTypeScript: tsx.GetLanguage(),
			symbols.LangJavaScript: javascript.GetLanguage(),
			symbols.LangGo:         golang.GetLanguage(),
		}
	})
}

// GrammarFor returns the tree-sitter grammar handle for lang. Returns
// (nil, false) if the language is not supported.
func GrammarFor(lang symbols.Language) (*sitter.Language, bool) {
	initGrammars()
	g, ok := grammarRegistry[lang]
	return g, ok
}
