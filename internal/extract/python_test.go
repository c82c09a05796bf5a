package extract

import (
	"testing"

	"github.com/codeintelx/metis-code-index/internal/symbols"
	"github.com/codeintelx/metis-code-index/internal/treesitter"
)

func parsePython(t *testing.T, source string) *treesitter.ParsedFile {
	t.Helper()
	pf, err := treesitter.NewParser().ParseSource([]byte(source), symbols.LangPython)
	if err != nil {
		t.Fatalf("parse python source: %v", err)
	}
	return pf
}

func TestExtractPythonFunctionWithDocstring(t *testing.T) {
	source := `
def add(a, b):
    """Adds two numbers together."""
    return a + b


def _helper(x):
    return x
`
	pf := parsePython(t, source)
	syms, err := extractPythonSymbols(pf, "math_utils.py")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	add, ok := findSymbol(syms, "add")
	if !ok {
		t.Fatal("add not found")
	}
	if add.Visibility != symbols.VisibilityPublic {
		t.Errorf("add visibility = %v, want public", add.Visibility)
	}
	if add.DocComment != "Adds two numbers together." {
		t.Errorf("add doc comment = %q", add.DocComment)
	}
	if add.Signature == "" {
		t.Error("add should have a signature")
	}

	helper, ok := findSymbol(syms, "_helper")
	if !ok {
		t.Fatal("_helper not found")
	}
	if helper.Visibility != symbols.VisibilityPrivate {
		t.Errorf("_helper visibility = %v, want private", helper.Visibility)
	}
}

func TestExtractPythonClass(t *testing.T) {
	source := `
class Config:
    def __init__(self):
        self.host = "localhost"
`
	pf := parsePython(t, source)
	syms, err := extractPythonSymbols(pf, "config.py")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	config, ok := findSymbol(syms, "Config")
	if !ok || config.Kind != symbols.KindClass {
		t.Fatalf("Config class not found or wrong kind: %+v", config)
	}

	init, ok := findSymbol(syms, "__init__")
	if !ok || init.Kind != symbols.KindFunction {
		t.Fatalf("__init__ not found or wrong kind: %+v", init)
	}
	if init.Visibility != symbols.VisibilityPrivate {
		t.Errorf("__init__ visibility = %v, want private (a dunder name still begins with _)", init.Visibility)
	}
}

func TestExtractPythonModuleConstants(t *testing.T) {
	source := `
MAX_RETRIES = 3
APP_NAME = "widget"
current_user = None
`
	pf := parsePython(t, source)
	syms, err := extractPythonSymbols(pf, "settings.py")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	for _, name := range []string{"MAX_RETRIES", "APP_NAME"} {
		if _, ok := findSymbol(syms, name); !ok {
			t.Errorf("%s not found", name)
		}
	}
	if _, ok := findSymbol(syms, "current_user"); ok {
		t.Error("current_user should not be indexed: not a constant-looking name")
	}
}
