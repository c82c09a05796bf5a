package treesitter

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeintelx/metis-code-index/internal/symbols"
)

// ParsedFile is a syntax tree together with the source bytes it was
// parsed from. The source is retained so downstream consumers can
// resolve node byte-ranges to text without re-reading the file.
type ParsedFile struct {
	Language symbols.Language
	Tree     *sitter.Tree
	Source   []byte
	Path     string
}

// RootNode returns the tree's root node.
func (f *ParsedFile) RootNode() *sitter.Node {
	return f.Tree.RootNode()
}

// NodeText returns the source text spanned by node.
func (f *ParsedFile) NodeText(node *sitter.Node) string {
	return node.Content(f.Source)
}

// ParseError is the typed error returned by Parser. Exactly one of the
// fields below is meaningful, selected by Kind.
type ParseError struct {
	Kind    ParseErrorKind
	Ext     string
	Message string
	Cause   error
}

// ParseErrorKind enumerates the ways a parse can fail.
type ParseErrorKind int

const (
	ErrUnsupportedExtension ParseErrorKind = iota
	ErrIO
	ErrParseFailed
	ErrLanguage
	ErrQuery
)

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrUnsupportedExtension:
		return fmt.Sprintf("unsupported extension: %s", e.Ext)
	case ErrIO:
		return fmt.Sprintf("io error: %v", e.Cause)
	case ErrParseFailed:
		return "parse failed"
	case ErrLanguage:
		return fmt.Sprintf("language error: %s", e.Message)
	case ErrQuery:
		return fmt.Sprintf("query error: %s", e.Message)
	default:
		return "unknown parse error"
	}
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Parser turns a file or an in-memory source string into a ParsedFile.
// It holds no per-language state beyond a reusable tree-sitter parser;
// languages are switched between calls by re-binding the grammar.
type Parser struct {
	ts *sitter.Parser
}

// NewParser creates a Parser ready for repeated use across languages.
func NewParser() *Parser {
	return &Parser{ts: sitter.NewParser()}
}

// ParseFile detects the language from path's extension, reads the file,
// and parses it.
func (p *Parser) ParseFile(path string) (*ParsedFile, error) {
	lang, ok := symbols.LanguageFromPath(path)
	if !ok {
		return nil, &ParseError{Kind: ErrUnsupportedExtension, Ext: path}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Kind: ErrIO, Cause: err}
	}
	pf, err := p.ParseSource(src, lang)
	if err != nil {
		return nil, err
	}
	pf.Path = path
	return pf, nil
}

// ParseSource parses in-memory text with an explicit language.
func (p *Parser) ParseSource(source []byte, lang symbols.Language) (*ParsedFile, error) {
	grammar, ok := GrammarFor(lang)
	if !ok {
		return nil, &ParseError{Kind: ErrLanguage, Message: fmt.Sprintf("unsupported language %s", lang)}
	}
	p.ts.SetLanguage(grammar)

	tree, err := p.ts.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{Kind: ErrParseFailed, Cause: err}
	}

	return &ParsedFile{Language: lang, Tree: tree, Source: source}, nil
}

// SupportsExtension reports whether ext (including the leading dot) maps
// to a supported language.
func SupportsExtension(ext string) bool {
	_, ok := symbols.LanguageFromExtension(ext)
	return ok
}

// SupportedExtensions returns every recognized file extension, across
// all supported languages.
func SupportedExtensions() []string {
	var exts []string
	for _, lang := range symbols.AllLanguages() {
		exts = append(exts, lang.Extensions()...)
	}
	return exts
}
