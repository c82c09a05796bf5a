package extract

import (
	_ "embed"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

//go:embed queries/rust_symbols.scm
var rustSymbolsQuery string

var rustSymbolsQueryCache lazyQuery

func extractRustSymbols(pf *treesitter.ParsedFile, relPath string) ([]symbols.Symbol, error) {
	grammar, ok := treesitter.GrammarFor(symbols.LangRust)
	if !ok {
		return nil, fmt.Errorf("extract: no grammar registered for rust")
	}
	query, err := rustSymbolsQueryCache.get(grammar, rustSymbolsQuery)
	if err != nil {
		return nil, fmt.Errorf("extract: compile rust symbols query: %w", err)
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, pf.RootNode())

	// impl blocks are captured separately so methods declared inside one
	// can be attributed to the enclosing type's name in their signature.
	implRanges := collectImplRanges(query, cursor, pf)

	cursor2 := sitter.NewQueryCursor()
	defer cursor2.Close()
	cursor2.Exec(query, pf.RootNode())

	var out []symbols.Symbol
	for {
		match, ok := cursor2.NextMatch()
		if !ok {
			break
		}
		match = cursor2.FilterPredicates(match, pf.Source)

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
			cn := captureName(query, capture.Index)
			node := capture.Node
			text := node.Content(pf.Source)

			switch cn {
			case "name":
				name = text
			case "params":
				params = text
			case "function":
				kind, haveKind = symbols.KindFunction, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "struct":
				kind, haveKind = symbols.KindStruct, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "enum":
				kind, haveKind = symbols.KindEnum, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "trait":
				kind, haveKind = symbols.KindTrait, true
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
			case "module":
				kind, haveKind = symbols.KindModule, true
				startLine, endLine = lineRange(node)
				outerNode = node
			case "macro":
				kind, haveKind = symbols.KindMacro, true
				startLine, endLine = lineRange(node)
				outerNode = node
			}
		}

		if name == "" || !haveKind {
			continue
		}

		// A function_item nested inside an impl_item is a method, not a
		// free function; reclassify and prefix the signature with the
		// enclosing type.
		receiverType := ""
		if kind == symbols.KindFunction {
			if t, inside := enclosingImplType(startLine, implRanges); inside {
				kind = symbols.KindMethod
				receiverType = t
			}
		}

		sym := symbols.NewSymbol(name, kind, relPath, startLine, endLine).
			WithVisibility(rustVisibility(outerNode, pf.Source))

		if kind == symbols.KindFunction || kind == symbols.KindMethod {
			sym = sym.WithSignature(rustFuncSignature(name, params, receiverType))
		}
		if outerNode != nil {
			if doc := rustDocComment(outerNode, pf.Source); doc != "" {
				sym = sym.WithDocComment(doc)
			}
		}

		out = append(out, sym)
	}

	return dedupeOverlapping(out), nil
}

type implRange struct {
	start, end int
	typeName   string
}

func collectImplRanges(query *sitter.Query, cursor *sitter.QueryCursor, pf *treesitter.ParsedFile) []implRange {
	var ranges []implRange
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, pf.Source)

		var typeName string
		var implNode *sitter.Node
		for _, capture := range match.Captures {
			switch captureName(query, capture.Index) {
			case "impl_type":
				typeName = capture.Node.Content(pf.Source)
			case "impl":
				implNode = capture.Node
			}
		}
		if implNode != nil && typeName != "" {
			start, end := lineRange(implNode)
			ranges = append(ranges, implRange{start: start, end: end, typeName: typeName})
		}
	}
	return ranges
}

func enclosingImplType(line int, ranges []implRange) (string, bool) {
	for _, r := range ranges {
		if line >= r.start && line <= r.end {
			return r.typeName, true
		}
	}
	return "", false
}

// rustVisibility looks for a leading `pub` (or `pub(...)`) token among
// the declaration node's children.
func rustVisibility(node *sitter.Node, source []byte) symbols.Visibility {
	if node == nil {
		return symbols.VisibilityPrivate
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child.Type() == "visibility_modifier" {
			return symbols.VisibilityPublic
		}
	}
	return symbols.VisibilityPrivate
}

func rustFuncSignature(name, params, receiverType string) string {
	if params == "" {
		params = "()"
	}
	if receiverType != "" {
		return fmt.Sprintf("fn %s::%s%s", receiverType, name, params)
	}
	return fmt.Sprintf("fn %s%s", name, params)
}

// rustDocComment collects contiguous /// or //! line comments immediately
// preceding a declaration.
func rustDocComment(node *sitter.Node, source []byte) string {
	return collectDocComment(node, source,
		func(n *sitter.Node) bool {
			return n.Type() == "line_comment" || n.Type() == "block_comment"
		},
		func(text string) (string, bool) {
			trimmed := strings.TrimSpace(text)
			if content, ok := strings.CutPrefix(trimmed, "///"); ok {
				return strings.TrimSpace(content), true
			}
			if content, ok := strings.CutPrefix(trimmed, "//!"); ok {
				return strings.TrimSpace(content), true
			}
			return "", false
		},
	)
}
