package extract

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

//go:embed queries/go_symbols.scm
var goSymbolsQuery string

//go:embed queries/go_imports.scm
var goImportsQuery string

var (
	goSymbolsQueryCache lazyQuery
	goImportsQueryCache lazyQuery
)

// Import is a single Go import spec: its path, optional alias, and the
// 1-indexed line it appears on.
type Import struct {
	Path  string
	Alias string
	Line  int
}

func extractGoSymbols(pf *treesitter.ParsedFile, relPath string) ([]symbols.Symbol, error) {
	grammar, ok := treesitter.GrammarFor(symbols.LangGo)
	if !ok {
		return nil, fmt.Errorf("extract: no grammar registered for go")
	}
	query, err := goSymbolsQueryCache.get(grammar, goSymbolsQuery)
	if err != nil {
		return nil, fmt.Errorf("extract: compile go symbols query: %w", err)
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
			receiver  string
			outerNode *sitter.Node
		)

		for _, capture := range match.Captures {
			captureName := captureName(query, capture.Index)
			node := capture.Node
			text := node.Content(pf.Source)

			switch captureName {
			case "name", "type_name", "const_name", "var_name":
				name = text
			case "params":
				params = text
			case "receiver":
				receiver = text
			case "function":
				kind, haveKind = symbols.KindFunction, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "method":
				kind, haveKind = symbols.KindMethod, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "struct":
				kind, haveKind = symbols.KindStruct, true
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
			case "constant":
				kind, haveKind = symbols.KindVariable, true
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
			WithVisibility(goVisibility(name))

		if sig := goFuncSignature(kind, name, params, receiver, outerNode, pf.Source); sig != "" {
			sym = sym.WithSignature(sig)
		}
		if outerNode != nil {
			if doc := goDocComment(outerNode, pf.Source); doc != "" {
				sym = sym.WithDocComment(doc)
			}
		}

		out = append(out, sym)
	}

	return dedupeOverlapping(out), nil
}

func extractGoImports(pf *treesitter.ParsedFile) ([]Import, error) {
	grammar, ok := treesitter.GrammarFor(symbols.LangGo)
	if !ok {
		return nil, fmt.Errorf("extract: no grammar registered for go")
	}
	query, err := goImportsQueryCache.get(grammar, goImportsQuery)
	if err != nil {
		return nil, fmt.Errorf("extract: compile go imports query: %w", err)
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, pf.RootNode())

	var out []Import
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, pf.Source)

		var (
			path       string
			line       int
			importNode *sitter.Node
		)

		for _, capture := range match.Captures {
			switch captureName(query, capture.Index) {
			case "path":
				node := capture.Node
				path = strings.Trim(node.Content(pf.Source), `"`)
				line, _ = lineRange(node)
			case "import":
				importNode = capture.Node
			}
		}

		if path == "" {
			continue
		}

		var alias string
		if importNode != nil {
			if nameNode := importNode.ChildByFieldName("name"); nameNode != nil {
				text := nameNode.Content(pf.Source)
				if text != "." && text != "_" {
					alias = text
				}
			}
		}

		out = append(out, Import{Path: path, Alias: alias, Line: line})
	}

	return out, nil
}

// goVisibility applies Go's capitalization-as-export convention.
func goVisibility(name string) symbols.Visibility {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return symbols.VisibilityPublic
		}
		break
	}
	return symbols.VisibilityPrivate
}

func goFuncSignature(kind symbols.SymbolKind, name, params, receiver string, outerNode *sitter.Node, source []byte) string {
	if kind != symbols.KindFunction && kind != symbols.KindMethod {
		return ""
	}
	if params == "" {
		params = "()"
	}

	var b strings.Builder
	b.WriteString("func ")
	if receiver != "" {
		b.WriteString(receiver)
		b.WriteByte(' ')
	}
	b.WriteString(name)
	b.WriteString(params)

	if outerNode != nil {
		if result := outerNode.ChildByFieldName("result"); result != nil {
			b.WriteByte(' ')
			b.WriteString(result.Content(source))
		}
	}

	return b.String()
}

// goDocComment collects contiguous // line comments immediately preceding
// a declaration, matching the convention that godoc itself follows.
func goDocComment(node *sitter.Node, source []byte) string {
	return collectDocComment(node, source,
		func(n *sitter.Node) bool { return n.Type() == "comment" },
		func(text string) (string, bool) {
			trimmed := strings.TrimSpace(text)
			content, ok := strings.CutPrefix(trimmed, "//")
			if !ok {
				return "", false
			}
			return strings.TrimSpace(content), true
		},
	)
}
