package extract

import (
	"testing"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

func parseScript(t *testing.T, source string, lang symbols.Language) *treesitter.ParsedFile {
	t.Helper()
	pf, err := treesitter.NewParser().ParseSource([]byte(source), lang)
	if err != nil {
		t.Fatalf("parse %s source: %v", lang, err)
	}
	return pf
}

func TestExtractTypeScriptInterfaceAndType(t *testing.T) {
	source := `
interface Reader {
  read(): string;
}

type Callback = (x: number) => void;

export const greeting = "hello";

class Widget {
  render(): void {}
}
`
	pf := parseScript(t, source, symbols.LangTypeScript)
	syms, err := extractScriptSymbols(pf, "widget.ts")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	reader, ok := findSymbol(syms, "Reader")
	if !ok || reader.Kind != symbols.KindInterface {
		t.Fatalf("Reader interface not found or wrong kind: %+v", reader)
	}
	callback, ok := findSymbol(syms, "Callback")
	if !ok || callback.Kind != symbols.KindType {
		t.Fatalf("Callback type not found or wrong kind: %+v", callback)
	}
	greeting, ok := findSymbol(syms, "greeting")
	if !ok || greeting.Kind != symbols.KindVariable {
		t.Fatalf("greeting variable not found or wrong kind: %+v", greeting)
	}
	widget, ok := findSymbol(syms, "Widget")
	if !ok || widget.Kind != symbols.KindClass {
		t.Fatalf("Widget class not found or wrong kind: %+v", widget)
	}
	render, ok := findSymbol(syms, "render")
	if !ok || render.Kind != symbols.KindMethod {
		t.Fatalf("render method not found or wrong kind: %+v", render)
	}
}

func TestExtractJavaScriptHasNoInterfaceOrTypeAlias(t *testing.T) {
	source := `
function greet(name) {
  return "hi " + name;
}

class Widget {
  render() {}
}

export const VERSION = "1.0.0";
`
	pf := parseScript(t, source, symbols.LangJavaScript)
	syms, err := extractScriptSymbols(pf, "widget.js")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if _, ok := findSymbol(syms, "greet"); !ok {
		t.Error("greet function not found")
	}
	if _, ok := findSymbol(syms, "Widget"); !ok {
		t.Error("Widget class not found")
	}
	if _, ok := findSymbol(syms, "VERSION"); !ok {
		t.Error("VERSION variable not found")
	}
	if n := countKind(syms, symbols.KindInterface) + countKind(syms, symbols.KindType); n != 0 {
		t.Errorf("expected no interface or type alias symbols in JavaScript, got %d", n)
	}
}

func TestScriptVisibilityFollowsExportNotNaming(t *testing.T) {
	source := `
export function helper() {}

function _internal() {}

export class Public {
  method() {}
}

class Hidden {
  method() {}
}

export default function anon() {}
`
	pf := parseScript(t, source, symbols.LangJavaScript)
	syms, err := extractScriptSymbols(pf, "mixed.js")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	helper, ok := findSymbol(syms, "helper")
	if !ok || !helper.HasVisibility || helper.Visibility != symbols.VisibilityPublic {
		t.Errorf("exported helper should be Public, got %+v", helper)
	}
	internal, ok := findSymbol(syms, "_internal")
	if !ok || !internal.HasVisibility || internal.Visibility != symbols.VisibilityPrivate {
		t.Errorf("non-exported _internal should be Private despite its name, got %+v", internal)
	}
	anon, ok := findSymbol(syms, "anon")
	if !ok || !anon.HasVisibility || anon.Visibility != symbols.VisibilityPublic {
		t.Errorf("export default function should be Public, got %+v", anon)
	}

	publicMethods := 0
	hiddenMethods := 0
	for _, s := range syms {
		if s.Name != "method" {
			continue
		}
		if s.Visibility == symbols.VisibilityPublic {
			publicMethods++
		} else {
			hiddenMethods++
		}
	}
	if publicMethods != 1 || hiddenMethods != 1 {
		t.Errorf("expected one public and one private 'method', got public=%d private=%d", publicMethods, hiddenMethods)
	}
}
