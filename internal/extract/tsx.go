package extract

import (
	_ "embed"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

//go:embed queries/typescript_symbols.scm
var typescriptSymbolsQuery string

//go:embed queries/javascript_symbols.scm
var javascriptSymbolsQuery string

var (
	typescriptSymbolsQueryCache lazyQuery
	javascriptSymbolsQueryCache lazyQuery
)

// extractScriptSymbols handles both TypeScript and JavaScript: the two
// grammars share almost every node kind, so one extractor dispatches on
// lang only to choose the query text and grammar.
func extractScriptSymbols(pf *treesitter.ParsedFile, relPath string) ([]symbols.Symbol, error) {
	var (
		grammar *sitter.Language
		ok      bool
		cache   *lazyQuery
		source  string
	)

	switch pf.Language {
	case symbols.LangTypeScript:
		grammar, ok = treesitter.GrammarFor(symbols.LangTypeScript)
		cache, source = &typescriptSymbolsQueryCache, typescriptSymbolsQuery
	case symbols.LangJavaScript:
		grammar, ok = treesitter.GrammarFor(symbols.LangJavaScript)
		cache, source = &javascriptSymbolsQueryCache, javascriptSymbolsQuery
	default:
		return nil, fmt.Errorf("extract: unsupported language %s for script extractor", pf.Language)
	}
	if !ok {
		return nil, fmt.Errorf("extract: no grammar registered for %s", pf.Language)
	}

	query, err := cache.get(grammar, source)
	if err != nil {
		return nil, fmt.Errorf("extract: compile %s symbols query: %w", pf.Language, err)
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, pf.RootNode())

	var out []symbols.Symbol
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, pf.Source)

		var (
			name      string
			kind      symbols.SymbolKind
			haveKind  bool
			startLine int
			endLine   int
			params    string
			outerNode *sitter.Node
		)

		for _, capture := range match.Captures {
			node := capture.Node
			switch captureName(query, capture.Index) {
			case "name", "var_name":
				name = node.Content(pf.Source)
			case "params":
				params = node.Content(pf.Source)
			case "function":
				kind, haveKind = symbols.KindFunction, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "class":
				kind, haveKind = symbols.KindClass, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "method":
				kind, haveKind = symbols.KindMethod, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "interface":
				kind, haveKind = symbols.KindInterface, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "type_def":
				kind, haveKind = symbols.KindType, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "variable":
				kind, haveKind = symbols.KindVariable, true
				startLine, endLine = lineRange(node)
				outerNode = node
			}
		}

		if name == "" || !haveKind {
			continue
		}

		sym := symbols.NewSymbol(name, kind, relPath, startLine, endLine).
			WithVisibility(scriptVisibility(outerNode))

		if (kind == symbols.KindFunction || kind == symbols.KindMethod) && params != "" {
			sym = sym.WithSignature(fmt.Sprintf("function %s%s", name, params))
		}
		if outerNode != nil {
			if doc := scriptDocComment(outerNode, pf.Source); doc != "" {
				sym = sym.WithDocComment(doc)
			}
		}

		out = append(out, sym)
	}

	return dedupeOverlapping(out), nil
}

// scriptVisibility is Public iff the declaration sits underneath an
// `export` statement (named or default) — a method counts as exported
// when its enclosing class is, since the ancestor walk passes straight
// through the class body to reach it.
func scriptVisibility(node *sitter.Node) symbols.Visibility {
	if isExported(node) {
		return symbols.VisibilityPublic
	}
	return symbols.VisibilityPrivate
}

func isExported(node *sitter.Node) bool {
	for n := node; n != nil && !n.IsNull(); n = n.Parent() {
		if n.Type() == "export_statement" {
			return true
		}
	}
	return false
}

// scriptDocComment collects a contiguous /** ... */ or a run of // lines
// immediately preceding a declaration.
func scriptDocComment(node *sitter.Node, source []byte) string {
	return collectDocComment(node, source,
		func(n *sitter.Node) bool { return n.Type() == "comment" },
		func(text string) (string, bool) {
			return stripScriptComment(text), true
		},
	)
}

func stripScriptComment(text string) string {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "//"):
		return strings.TrimSpace(trimmed[2:])
	case strings.HasPrefix(trimmed, "/*") && strings.HasSuffix(trimmed, "*/"):
		body := trimmed[2 : len(trimmed)-2]
		return strings.Trim(strings.TrimSpace(body), "*")
	default:
		return trimmed
	}
}
