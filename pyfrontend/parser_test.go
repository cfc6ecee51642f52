package pyfrontend_test

import (
	"testing"

	"github.com/godoctor/decompose/ast"
	"github.com/godoctor/decompose/pyfrontend"
)

func parseOne(t *testing.T, text string) *ast.FuncDef {
	t.Helper()
	funcs := pyfrontend.ParseFunctions(text)
	if len(funcs) != 1 {
		t.Fatalf("expected exactly one function, got %d", len(funcs))
	}
	return funcs[0]
}

func TestParseFuncDefParams(t *testing.T) {
	fn := parseOne(t, "def f(a, b, c=1, *args, **kwargs):\n    return a\n")
	want := []string{"a", "b", "c", "args", "kwargs"}
	if len(fn.Params) != len(want) {
		t.Fatalf("expected params %v, got %v", want, fn.Params)
	}
	for i, p := range want {
		if fn.Params[i] != p {
			t.Errorf("expected param %d to be %q, got %q", i, p, fn.Params[i])
		}
	}
}

func TestParseChainedAssignment(t *testing.T) {
	fn := parseOne(t, "def f(x):\n    a = b = x + 1\n    return a\n")
	assign, ok := fn.Body[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected an Assign statement, got %T", fn.Body[0])
	}
	if len(assign.Targets) != 2 {
		t.Fatalf("expected two chained targets, got %d", len(assign.Targets))
	}
}

func TestParseElifChainProducesNestedIf(t *testing.T) {
	fn := parseOne(t, "def f(a):\n    if a < 0:\n        a = 0\n    elif a == 0:\n        a = 1\n    else:\n        a = 2\n    return a\n")
	outer, ok := fn.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected an If statement, got %T", fn.Body[0])
	}
	if len(outer.Orelse) != 1 {
		t.Fatalf("expected the elif to appear as the sole orelse statement, got %d", len(outer.Orelse))
	}
	inner, ok := outer.Orelse[0].(*ast.If)
	if !ok {
		t.Fatalf("expected the elif to parse as a nested If, got %T", outer.Orelse[0])
	}
	if len(inner.Orelse) == 0 {
		t.Fatal("expected the nested If to carry the trailing else body")
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	fn := parseOne(t, "def f(y):\n    try:\n        return y\n    except ValueError as e:\n        return str(e)\n    finally:\n        pass\n")
	try, ok := fn.Body[0].(*ast.Try)
	if !ok {
		t.Fatalf("expected a Try statement, got %T", fn.Body[0])
	}
	if len(try.Handlers) != 1 {
		t.Fatalf("expected one handler, got %d", len(try.Handlers))
	}
	if try.Handlers[0].Name != "e" {
		t.Errorf("expected handler binding name e, got %q", try.Handlers[0].Name)
	}
	if len(try.Finally) != 1 {
		t.Fatalf("expected one finally statement, got %d", len(try.Finally))
	}
}

func TestParseAugAssign(t *testing.T) {
	fn := parseOne(t, "def f(a):\n    a += 1\n    return a\n")
	aug, ok := fn.Body[0].(*ast.AugAssign)
	if !ok {
		t.Fatalf("expected an AugAssign statement, got %T", fn.Body[0])
	}
	if aug.Op != "+=" {
		t.Errorf("expected op +=, got %q", aug.Op)
	}
}

func TestParseClassMethodsFlattened(t *testing.T) {
	funcs := pyfrontend.ParseFunctions("class C:\n    def m1(self):\n        return 1\n    def m2(self):\n        return 2\n")
	if len(funcs) != 2 {
		t.Fatalf("expected two flattened methods, got %d", len(funcs))
	}
}
