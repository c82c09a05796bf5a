// Package writer renders the deterministic markdown index document:
// a project-structure tree plus a per-file symbol table, merging in any
// hand-authored "Summary" subsections recovered from a prior run.
package writer

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

// Options configures a single Render call. Every field is supplied by
// the caller; the writer never reads the clock or touches disk itself.
type Options struct {
	WalkResult    *symbols.WalkResult
	SymbolMap     map[string][]symbols.Symbol
	Timestamp     string
	PriorDocument string
	StructureOnly bool
}

// Render produces the fixed-shape markdown document described by the
// index writer's contract. It is pure string assembly: identical
// options always produce byte-identical output.
func Render(opts Options) string {
	summaries := extractSummaries(opts.PriorDocument)

	var b strings.Builder
	b.WriteString("# Code Index\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", opts.Timestamp)

	b.WriteString("## Project Structure\n\n")
	b.WriteString(renderTree(opts.WalkResult))
	b.WriteString("\n")

	b.WriteString("## Modules\n\n")

	paths := sortedRelativePaths(opts.WalkResult)
	for i, rel := range paths {
		fmt.Fprintf(&b, "### %s\n\n", rel)

		if summary, ok := summaries[rel]; ok {
			b.WriteString(summary)
			b.WriteString("\n\n")
		}

		if !opts.StructureOnly {
			b.WriteString("#### Symbols\n\n")
			b.WriteString(renderSymbolTable(opts.SymbolMap[rel]))
			b.WriteString("\n")
		}

		if i < len(paths)-1 {
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func sortedRelativePaths(wr *symbols.WalkResult) []string {
	if wr == nil {
		return nil
	}
	paths := make([]string, len(wr.Files))
	for i, f := range wr.Files {
		paths[i] = f.RelativePath
	}
	sort.Strings(paths)
	return paths
}

// renderSymbolTable renders the fixed 4-column symbol table, sorted by
// start_line then name, matching the extractors' own dedup ordering.
func renderSymbolTable(syms []symbols.Symbol) string {
	sorted := make([]symbols.Symbol, len(syms))
	copy(sorted, syms)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartLine != sorted[j].StartLine {
			return sorted[i].StartLine < sorted[j].StartLine
		}
		return sorted[i].Name < sorted[j].Name
	})

	var b strings.Builder
	b.WriteString("| Kind | Name | Lines | Visibility |\n")
	b.WriteString("|------|------|-------|------------|\n")
	for _, s := range sorted {
		fmt.Fprintf(&b, "| %s | %s | L%d–%d | %s |\n",
			s.Kind, s.Name, s.StartLine, s.EndLine, visibilityCell(s))
	}
	return b.String()
}

func visibilityCell(s symbols.Symbol) string {
	if !s.HasVisibility {
		return ""
	}
	switch s.Visibility {
	case symbols.VisibilityPublic:
		return "pub"
	case symbols.VisibilityProtected:
		return "protected"
	default:
		return "priv"
	}
}

// treeNode is an in-memory directory tree built purely to render
// Project Structure; it holds no data beyond names.
type treeNode struct {
	name     string
	isDir    bool
	children map[string]*treeNode
}

func newTreeNode(name string, isDir bool) *treeNode {
	return &treeNode{name: name, isDir: isDir, children: map[string]*treeNode{}}
}

func renderTree(wr *symbols.WalkResult) string {
	root := newTreeNode("", true)
	if wr != nil {
		for _, f := range wr.Files {
			insertPath(root, f.RelativePath)
		}
	}

	var b strings.Builder
	writeTreeChildren(&b, root, 0)
	if b.Len() == 0 {
		return "(empty)\n"
	}
	return b.String()
}

func insertPath(root *treeNode, relPath string) {
	parts := strings.Split(path.Clean(relPath), "/")
	cur := root
	for i, part := range parts {
		isDir := i < len(parts)-1
		child, ok := cur.children[part]
		if !ok {
			child = newTreeNode(part, isDir)
			cur.children[part] = child
		}
		cur = child
	}
}

func writeTreeChildren(b *strings.Builder, node *treeNode, depth int) {
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := node.children[names[i]], node.children[names[j]]
		if ci.isDir != cj.isDir {
			return ci.isDir
		}
		return names[i] < names[j]
	})

	indent := strings.Repeat("  ", depth)
	for _, name := range names {
		child := node.children[name]
		if child.isDir {
			fmt.Fprintf(b, "%s%s/\n", indent, name)
			writeTreeChildren(b, child, depth+1)
		} else {
			fmt.Fprintf(b, "%s%s\n", indent, name)
		}
	}
}

// extractSummaries scans a prior rendered document for "### <rel_path>"
// sections and, within each, a conventional "#### Summary" subsection.
// It captures that subsection's text verbatim up to the next heading at
// level 4 or higher (#### or fewer #). Recognition is line-based, not a
// markdown-AST parse.
func extractSummaries(doc string) map[string]string {
	result := map[string]string{}
	if doc == "" {
		return result
	}

	lines := strings.Split(doc, "\n")
	var currentPath string
	var inSummary bool
	var summaryLines []string

	flush := func() {
		if currentPath != "" && inSummary {
			text := strings.TrimRight(strings.Join(summaryLines, "\n"), "\n")
			if text != "" {
				result[currentPath] = text
			}
		}
		inSummary = false
		summaryLines = nil
	}

	for _, line := range lines {
		if rel, ok := strings.CutPrefix(line, "### "); ok {
			flush()
			currentPath = strings.TrimSpace(rel)
			continue
		}
		if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") {
			flush()
			currentPath = ""
			continue
		}
		if currentPath == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#### Summary") {
			flush()
			inSummary = true
			summaryLines = append(summaryLines, line)
			continue
		}
		if inSummary {
			if strings.HasPrefix(line, "#### ") {
				flush()
				continue
			}
			summaryLines = append(summaryLines, line)
		}
	}
	flush()

	return result
}
