// Package symbols defines the data model shared by every stage of the
// indexing pipeline: the closed Language/SymbolKind/Visibility
// enumerations, the Symbol record, and the file-discovery shapes that
// travel between the walker, the extractors, the cache layer, and the
// writer. The cache types and the incremental diff live in package cache.
package symbols

import (
	"encoding/json"
	"fmt"
)

// SymbolKind is the closed enumeration of declaration kinds the
// extractors may emit.
type SymbolKind int

const (
	KindUnknown SymbolKind = iota
	KindFunction
	KindMethod
	KindStruct
	KindEnum
	KindTrait
	KindInterface
	KindType
	KindClass
	KindVariable
	KindModule
	KindMacro
)

var kindNames = map[SymbolKind]string{
	KindUnknown:   "unknown",
	KindFunction:  "function",
	KindMethod:    "method",
	KindStruct:    "struct",
	KindEnum:      "enum",
	KindTrait:     "trait",
	KindInterface: "interface",
	KindType:      "type",
	KindClass:     "class",
	KindVariable:  "variable",
	KindModule:    "module",
	KindMacro:     "macro",
}

var nameToKind map[string]SymbolKind

func init() {
	nameToKind = make(map[string]SymbolKind, len(kindNames))
	for k, v := range kindNames {
		nameToKind[v] = k
	}
}

// String returns the lowercase enumeration name of the kind.
func (k SymbolKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a lowercase enumeration name back into a SymbolKind.
// Returns KindUnknown if the name is not recognized.
func ParseKind(name string) SymbolKind {
	if k, ok := nameToKind[name]; ok {
		return k
	}
	return KindUnknown
}

// MarshalJSON serializes the kind as its lowercase enumeration name.
func (k SymbolKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON parses the kind from its lowercase enumeration name.
func (k *SymbolKind) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}

// Visibility is the closed enumeration of declaration visibility.
// Protected is retained for languages with a distinct "module-private"
// or "package-private" tier; most languages only ever produce Public
// or Private.
type Visibility int

const (
	VisibilityPrivate Visibility = iota
	VisibilityPublic
	VisibilityProtected
)

var visibilityNames = map[Visibility]string{
	VisibilityPrivate:   "private",
	VisibilityPublic:    "public",
	VisibilityProtected: "protected",
}

var nameToVisibility map[string]Visibility

func init() {
	nameToVisibility = make(map[string]Visibility, len(visibilityNames))
	for k, v := range visibilityNames {
		nameToVisibility[v] = k
	}
}

func (v Visibility) String() string {
	if s, ok := visibilityNames[v]; ok {
		return s
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

// ParseVisibility converts a lowercase enumeration name back into a
// Visibility. Returns VisibilityPrivate if the name is not recognized:
// an unknown visibility defaults to the more conservative reading.
func ParseVisibility(name string) Visibility {
	if v, ok := nameToVisibility[name]; ok {
		return v
	}
	return VisibilityPrivate
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

func (v *Visibility) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	*v = ParseVisibility(s)
	return nil
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", fmt.Errorf("symbols: expected JSON string, got %q", data)
	}
	return string(data[1 : len(data)-1]), nil
}

// Symbol is a single named, located declaration lifted from a syntax
// tree. Visibility, Signature, and DocComment are optional: HasVisibility
// distinguishes "not meaningful for this declaration" from "explicitly
// private" (the zero Visibility value).
type Symbol struct {
	Name          string
	Kind          SymbolKind
	File          string
	StartLine     int
	EndLine       int
	Visibility    Visibility
	HasVisibility bool
	Signature     string
	DocComment    string
}

// NewSymbol constructs a Symbol with no visibility, signature, or doc
// comment set; chain the With* methods to attach them.
func NewSymbol(name string, kind SymbolKind, file string, startLine, endLine int) Symbol {
	return Symbol{
		Name:      name,
		Kind:      kind,
		File:      file,
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// WithVisibility returns a copy of the symbol with visibility set.
func (s Symbol) WithVisibility(v Visibility) Symbol {
	s.Visibility = v
	s.HasVisibility = true
	return s
}

// WithSignature returns a copy of the symbol with a signature attached.
func (s Symbol) WithSignature(sig string) Symbol {
	s.Signature = sig
	return s
}

// WithDocComment returns a copy of the symbol with a doc comment attached.
func (s Symbol) WithDocComment(doc string) Symbol {
	s.DocComment = doc
	return s
}

// symbolJSON is the wire shape used to serialize a Symbol: kind and
// visibility are serialized as their lowercase enumeration names, and
// visibility, signature, and doc_comment are omitted when not
// meaningful/empty.
type symbolJSON struct {
	Name       string      `json:"name"`
	Kind       SymbolKind  `json:"kind"`
	File       string      `json:"file"`
	StartLine  int         `json:"start_line"`
	EndLine    int         `json:"end_line"`
	Visibility *Visibility `json:"visibility,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	DocComment string      `json:"doc_comment,omitempty"`
}

func (s Symbol) MarshalJSON() ([]byte, error) {
	wire := symbolJSON{
		Name:       s.Name,
		Kind:       s.Kind,
		File:       s.File,
		StartLine:  s.StartLine,
		EndLine:    s.EndLine,
		Signature:  s.Signature,
		DocComment: s.DocComment,
	}
	if s.HasVisibility {
		v := s.Visibility
		wire.Visibility = &v
	}
	return json.Marshal(wire)
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	var wire symbolJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Symbol{
		Name:       wire.Name,
		Kind:       wire.Kind,
		File:       wire.File,
		StartLine:  wire.StartLine,
		EndLine:    wire.EndLine,
		Signature:  wire.Signature,
		DocComment: wire.DocComment,
	}
	if wire.Visibility != nil {
		s.Visibility = *wire.Visibility
		s.HasVisibility = true
	}
	return nil
}
