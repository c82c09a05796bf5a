package symbols

import "strings"

// Language is the closed enumeration of languages the indexer supports.
// Adding a language is a source-level change here and in every package
// that switches on it, never a runtime plugin.
type Language int

const (
	LangUnknown Language = iota
	LangRust
	LangPython
	LangTypeScript
	LangJavaScript
	LangGo
)

// languageInfo carries the fixed metadata for one Language variant:
// its display name and the file extensions that map onto it.
type languageInfo struct {
	name       string
	extensions []string
}

var languageTable = map[Language]languageInfo{
	LangRust:       {name: "Rust", extensions: []string{".rs"}},
	LangPython:     {name: "Python", extensions: []string{".py", ".pyi"}},
	LangTypeScript: {name: "TypeScript", extensions: []string{".ts", ".tsx"}},
	LangJavaScript: {name: "JavaScript", extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
	LangGo:         {name: "Go", extensions: []string{".go"}},
}

var extToLanguage map[string]Language

func init() {
	extToLanguage = make(map[string]Language)
	for lang, info := range languageTable {
		for _, ext := range info.extensions {
			extToLanguage[ext] = lang
		}
	}
}

// String returns the display name of the language, or "unknown".
func (l Language) String() string {
	if info, ok := languageTable[l]; ok {
		return info.name
	}
	return "unknown"
}

// Extensions returns the fixed set of file extensions for this language.
func (l Language) Extensions() []string {
	return languageTable[l].extensions
}

// LanguageFromExtension maps a file extension (including the leading
// dot, case-insensitive) to a Language. Returns (LangUnknown, false) if
// the extension is not recognized.
func LanguageFromExtension(ext string) (Language, bool) {
	lang, ok := extToLanguage[strings.ToLower(ext)]
	return lang, ok
}

// LanguageFromPath maps a file path to a Language by its extension.
func LanguageFromPath(path string) (Language, bool) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return LangUnknown, false
	}
	return LanguageFromExtension(path[idx:])
}

// AllLanguages returns every supported Language, in a fixed order.
func AllLanguages() []Language {
	return []Language{LangRust, LangPython, LangTypeScript, LangJavaScript, LangGo}
}

// SourceFile is a single file discovered by the walker. Immutable once
// produced: RelativePath is the canonical key into every cache and
// output, always forward-slash separated with no leading separator.
type SourceFile struct {
	AbsolutePath string
	RelativePath string
	Language     Language
}

// WalkResult is the output of one walk: every discovered source file,
// sorted by relative path for deterministic downstream processing.
type WalkResult struct {
	Root  string
	Files []SourceFile
}

// ByLanguage groups the walk's files by detected language. Derived on
// demand, never stored, matching the original Rust implementation's
// by_language() view.
func (w *WalkResult) ByLanguage() map[Language][]SourceFile {
	grouped := make(map[Language][]SourceFile)
	for _, f := range w.Files {
		grouped[f.Language] = append(grouped[f.Language], f)
	}
	return grouped
}

// FileCount returns the number of files in the walk result.
func (w *WalkResult) FileCount() int {
	return len(w.Files)
}
