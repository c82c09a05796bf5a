// Package extract implements one symbol extractor per supported
// language. Each extractor evaluates a precompiled tree-sitter query,
// iterates matches, lifts them into symbols.Symbol values, and applies
// language-specific postprocessing: visibility inference, deduplication,
// and signature/doc-comment assembly. This file holds the postprocessing
// helpers shared across all the language extractors.
package extract

import (
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

// lazyQuery compiles a tree-sitter query exactly once and caches the
// result — success or failure — for the remainder of the process, so a
// broken query fails identically (and cheaply) on every call.
type lazyQuery struct {
	once  sync.Once
	query *sitter.Query
	err   error
}

func (l *lazyQuery) get(grammar *sitter.Language, source string) (*sitter.Query, error) {
	l.once.Do(func() {
		l.query, l.err = sitter.NewQuery([]byte(source), grammar)
	})
	return l.query, l.err
}

// lineRange converts a node's 0-indexed tree-sitter rows into a
// 1-indexed, inclusive-on-both-ends line range.
func lineRange(node *sitter.Node) (start, end int) {
	return int(node.StartPoint().Row) + 1, int(node.EndPoint().Row) + 1
}

// collectDocComment walks preceding sibling nodes of node while they are
// comment nodes matching isComment, stripping each with strip, preserving
// top-to-bottom order. A blank line between a comment and what follows it
// (tracked via row adjacency, since tree-sitter doesn't emit nodes for
// blank lines) or a non-comment sibling terminates the scan.
func collectDocComment(node *sitter.Node, source []byte, isComment func(*sitter.Node) bool, strip func(string) (string, bool)) string {
	var lines []string
	limitRow := node.StartPoint().Row
	sib := node.PrevSibling()
	for sib != nil && isComment(sib) {
		if sib.EndPoint().Row+1 != limitRow {
			break
		}
		text := sib.Content(source)
		stripped, ok := strip(text)
		if !ok {
			break
		}
		lines = append(lines, stripped)
		limitRow = sib.StartPoint().Row
		sib = sib.PrevSibling()
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// kindPriority ranks a SymbolKind for the dedup sort: lower values are
// more specific and win when two queries match the same declaration
// (e.g. a Go struct also matches the generic "type definition" query).
func kindPriority(kind symbols.SymbolKind) int {
	switch kind {
	case symbols.KindStruct, symbols.KindInterface, symbols.KindClass, symbols.KindEnum:
		return 0
	case symbols.KindType:
		return 1
	default:
		return 0
	}
}

// dedupeOverlapping sorts symbols by (start_line, name, kind-priority)
// and then drops adjacent duplicates sharing (name, start_line), keeping
// the higher-priority (more specific) kind. This is a correctness
// requirement for any language whose query file has overlapping
// patterns (Go: struct/interface vs. generic type_spec).
func dedupeOverlapping(syms []symbols.Symbol) []symbols.Symbol {
	sort.SliceStable(syms, func(i, j int) bool {
		if syms[i].StartLine != syms[j].StartLine {
			return syms[i].StartLine < syms[j].StartLine
		}
		if syms[i].Name != syms[j].Name {
			return syms[i].Name < syms[j].Name
		}
		return kindPriority(syms[i].Kind) < kindPriority(syms[j].Kind)
	})

	out := make([]symbols.Symbol, 0, len(syms))
	for i, s := range syms {
		if i > 0 && s.Name == syms[i-1].Name && s.StartLine == syms[i-1].StartLine {
			continue
		}
		out = append(out, s)
	}
	return out
}

func captureName(query *sitter.Query, index uint32) string {
	return query.CaptureNameForId(index)
}
