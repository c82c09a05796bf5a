package extract

import (
	_ "embed"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

//go:embed queries/python_symbols.scm
var pythonSymbolsQuery string

var pythonSymbolsQueryCache lazyQuery

func extractPythonSymbols(pf *treesitter.ParsedFile, relPath string) ([]symbols.Symbol, error) {
	grammar, ok := treesitter.GrammarFor(symbols.LangPython)
	if !ok {
		return nil, fmt.Errorf("extract: no grammar registered for python")
	}
	query, err := pythonSymbolsQueryCache.get(grammar, pythonSymbolsQuery)
	if err != nil {
		return nil, fmt.Errorf("extract: compile python symbols query: %w", err)
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
			outerNode *sitter.Node
		)

		for _, capture := range match.Captures {
			node := capture.Node
			switch captureName(query, capture.Index) {
			case "name", "var_name":
				name = node.Content(pf.Source)
			case "function":
				kind, haveKind = symbols.KindFunction, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "class":
				kind, haveKind = symbols.KindClass, true
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

		// Module-level assignments only count as symbols when they look
		// like constants (upper-case names); everything else is runtime
		// state, not a declaration worth indexing.
		if kind == symbols.KindVariable && !isPythonConstantName(name) {
			continue
		}

		sym := symbols.NewSymbol(name, kind, relPath, startLine, endLine).
			WithVisibility(pythonVisibility(name))

		if kind == symbols.KindFunction {
			sym = sym.WithSignature(fmt.Sprintf("def %s%s", name, pythonParams(outerNode, pf.Source)))
		}
		if outerNode != nil {
			if doc := pythonDocstring(outerNode, pf.Source); doc != "" {
				sym = sym.WithDocComment(doc)
			}
		}

		out = append(out, sym)
	}

	return dedupeOverlapping(out), nil
}

// pythonVisibility is Private iff the name begins with an underscore,
// dunder names (e.g. __init__) included.
func pythonVisibility(name string) symbols.Visibility {
	if strings.HasPrefix(name, "_") {
		return symbols.VisibilityPrivate
	}
	return symbols.VisibilityPublic
}

func isPythonConstantName(name string) bool {
	seenLetter := false
	for _, r := range name {
		switch {
		case r == '_' || (r >= '0' && r <= '9'):
			continue
		case r >= 'A' && r <= 'Z':
			seenLetter = true
		default:
			return false
		}
	}
	return seenLetter
}

func pythonParams(node *sitter.Node, source []byte) string {
	if node == nil {
		return "()"
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		return params.Content(source)
	}
	return "()"
}

// pythonDocstring returns the function/class body's leading string
// literal, Python's convention for documentation, rather than a
// preceding-comment walk.
func pythonDocstring(node *sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	expr := first.NamedChild(0)
	if expr.Type() != "string" {
		return ""
	}
	text := expr.Content(source)
	text = strings.Trim(text, "\"'")
	return strings.TrimSpace(text)
}
