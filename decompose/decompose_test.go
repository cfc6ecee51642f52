package decompose_test

import (
	"testing"

	"github.com/godoctor/decompose/ast"
	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/config"
	"github.com/godoctor/decompose/decompose"
	"github.com/godoctor/decompose/pyfrontend"
	"github.com/godoctor/decompose/slicer"
	"github.com/godoctor/decompose/source"
	"github.com/godoctor/decompose/suggest"
)

// buildOne runs source -> AST -> CFG for a fixture expected to contain
// exactly one function, mirroring the scenarios named in spec §8.
func buildOne(t *testing.T, text string) *cfgbuild.FunctionBlock {
	t.Helper()
	funcs := parseFuncs(t, text)
	bl := cfgbuild.NewBlockList()
	fb, err := bl.Build(funcs[0], source.Scan(text, false))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return fb
}

func parseFuncs(t *testing.T, text string) []*ast.FuncDef {
	t.Helper()
	funcs := pyfrontend.ParseFunctions(text)
	if len(funcs) != 1 {
		t.Fatalf("expected exactly one function, got %d", len(funcs))
	}
	return funcs
}

// TestScenarioS1WhileNestedIf mirrors spec §8 S1: cyclomatic complexity of
// the whole function is 7 and no suggestion fires under the default
// thresholds.
func TestScenarioS1WhileNestedIf(t *testing.T) {
	fb := buildOne(t, `def f():
    i = 3
    i = j = i + 1
    a = j + 2
    while a > 0:
        i = i + 1
        j = j - 1
        if i != j:
            a = a - 1
        i = i + 1
`)
	if got := slicer.Complexity(fb); got != 7 {
		t.Fatalf("expected cyclomatic complexity 7, got %d", got)
	}

	suggestions := suggest.Suggest(fb, config.Default(), false)
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions under default thresholds, got %d: %+v", len(suggestions), suggestions)
	}
}

// TestScenarioS2TwoLoopSlice mirrors spec §8 S2: the slice at the print
// line pulls in exactly the hpixels chain, and excluding wpixels drops the
// outer loop's tail increment from every slice.
func TestScenarioS2TwoLoopSlice(t *testing.T) {
	text := `def f():
    a = 5
    hpixels = 5
    wpixels = 10
    for y in range(5):
        for x in range(2):
            hpixels += 1
            new_var = 0
        wpixels += 1
    print(hpixels)
`
	fb := buildOne(t, text)
	sl := slicer.New(fb)

	printLine := 10
	baseline := sl.LineSlice(printLine, slicer.Options{})
	want := map[int]bool{3: true, 5: true, 6: true, 7: true, 10: true}
	if len(baseline) != len(want) {
		t.Fatalf("expected slice %v, got %v", want, baseline)
	}
	for ln := range want {
		if !baseline[ln] {
			t.Errorf("expected line %d in slice, got %v", ln, baseline)
		}
	}

	excluded := sl.LineSlice(printLine, slicer.Options{ExcludeVars: cfgbuild.NewVarSet("wpixels")})
	if excluded[9] {
		t.Errorf("expected excluding wpixels to drop the outer loop tail (line 9), got %v", excluded)
	}
}

// TestScenarioS3ConditionalReturn mirrors spec §8 S3: two exits merge into
// one sink and no suggestion fires.
func TestScenarioS3ConditionalReturn(t *testing.T) {
	fb := buildOne(t, `def f(y):
    x = 5
    if y < 4:
        return y
    return x
`)
	if fb.Exit == nil {
		t.Fatal("expected a single exit block")
	}
	if !fb.Exit.IsEmpty() {
		t.Fatal("exit block must carry no instructions")
	}

	suggestions := suggest.Suggest(fb, config.Default(), false)
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %+v", suggestions)
	}
}

// TestScenarioS4BodyExtractCandidate mirrors spec §8 S4.
func TestScenarioS4BodyExtractCandidate(t *testing.T) {
	fb := buildOne(t, `def f(a):
    idx = 0
    if a < 5:
        a = 5
    check_cond = True
    while check_cond:
        if a < 0:
            check_cond = False
        if idx > 100:
            return a
        idx += 1
        a -= 1
    print(idx)
    return 0
`)

	suggestions := suggest.Suggest(fb, config.Default(), false)

	var found711, found613 *suggest.Suggestion
	for _, s := range suggestions {
		if s.Start == 7 && s.End == 11 {
			found711 = s
		}
		if s.Start == 6 && s.End == 13 {
			found613 = s
		}
	}
	if found711 == nil {
		t.Fatalf("expected a (7,11) suggestion, got %+v", suggestions)
	}
	if !found711.Reasons[suggest.RemoveVar] {
		t.Errorf("expected (7,11) to carry RemoveVar, got %v", found711.Reasons.Sorted())
	}
	if joined(found711.Parameters) != "a,idx" {
		t.Errorf("expected (7,11) parameters {a, idx}, got %v", found711.Parameters)
	}
	if joined(found711.Returns) != "a,check_cond" {
		t.Errorf("expected (7,11) returns {a, check_cond}, got %v", found711.Returns)
	}

	if found613 == nil {
		t.Fatalf("expected a (6,13) suggestion, got %+v", suggestions)
	}
	if !found613.Reasons[suggest.DiffRefLiveVarBlock] || !found613.Reasons[suggest.DiffRefLiveVarInstr] {
		t.Errorf("expected (6,13) to carry DiffRefLiveVarBlock and DiffRefLiveVarInstr, got %v", found613.Reasons.Sorted())
	}
	if joined(found613.Parameters) != "a,check_cond,idx" {
		t.Errorf("expected (6,13) parameters {a, check_cond, idx}, got %v", found613.Parameters)
	}
	if joined(found613.Returns) != "a,idx" {
		t.Errorf("expected (6,13) returns {a, idx}, got %v", found613.Returns)
	}
}

// TestScenarioS5TryExceptBinding mirrors spec §8 S5.
func TestScenarioS5TryExceptBinding(t *testing.T) {
	fb := buildOne(t, `def f(y):
    try:
        return y
    except SyntaxException as e:
        return str(e)
    except Exception as e:
        return str(e)
`)
	tryBlock := fb.Block
	if got := len(tryBlock.Successors()); got != 3 {
		t.Fatalf("expected 3 successors from the try block, got %d", got)
	}

	var sawBoundE bool
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			if instr.Kind == cfgbuild.KindExcept && instr.Defined.Has("e") {
				sawBoundE = true
			}
		}
	}
	if !sawBoundE {
		t.Fatal("expected a handler header to define e")
	}

	reachExit := map[string]bool{}
	var walk func(b *cfgbuild.Block, seen map[string]bool)
	walk = func(b *cfgbuild.Block, seen map[string]bool) {
		if seen[b.Label] {
			return
		}
		seen[b.Label] = true
		if b == fb.Exit {
			reachExit[b.Label] = true
			return
		}
		for _, s := range b.Successors() {
			walk(s, seen)
		}
	}
	walk(fb.Block, map[string]bool{})
	if len(reachExit) != 1 {
		t.Fatalf("expected all three bodies to converge on the single exit, got %v", reachExit)
	}
}

// TestScenarioS6MultilineLiteral mirrors spec §8 S6.
func TestScenarioS6MultilineLiteral(t *testing.T) {
	fb := buildOne(t, "def f(y):\n    x = (\"a\\n\"\n         \"b\"\n         \"c\")\n    return x\n")

	var assign *cfgbuild.Instruction
	for _, b := range cfgbuild.Reachable(fb.Block) {
		if i, ok := b.Instruction(2); ok {
			assign = i
		}
	}
	if assign == nil {
		t.Fatal("expected an instruction on line 2")
	}
	want := map[int]bool{2: true, 3: true, 4: true}
	if len(assign.Multiline) != len(want) {
		t.Fatalf("expected multiline group %v, got %v", want, assign.Multiline)
	}
	for ln := range want {
		if !assign.Multiline[ln] {
			t.Errorf("expected line %d in multiline group, got %v", ln, assign.Multiline)
		}
	}

	sl := slicer.New(fb)
	sliceSet := sl.LineSlice(5, slicer.Options{})
	for ln := range want {
		if !sliceSet[ln] {
			t.Errorf("expected the slice at the return to pull in multiline member %d, got %v", ln, sliceSet)
		}
	}
}

// TestAnalyzeEndToEnd exercises the whole A-F pipeline via decompose.Analyze,
// the single entry point a frontend calls.
func TestAnalyzeEndToEnd(t *testing.T) {
	text := `def f(a):
    idx = 0
    if a < 5:
        a = 5
    check_cond = True
    while check_cond:
        if a < 0:
            check_cond = False
        if idx > 100:
            return a
        idx += 1
        a -= 1
    print(idx)
    return 0
`
	funcs := parseFuncs(t, text)
	report := decompose.Analyze(text, funcs, decompose.Options{Thresholds: config.Default()})
	if len(report.Functions) != 1 {
		t.Fatalf("expected one function report, got %d", len(report.Functions))
	}
	fr := report.Functions[0]
	if fr.Name != "f" {
		t.Errorf("expected function name f, got %s", fr.Name)
	}
	if len(fr.Suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if fr.AverageWeightedComplexity <= 0 {
		t.Errorf("expected a positive average weighted complexity, got %f", fr.AverageWeightedComplexity)
	}
}

// TestAnalyzeSkipsNestedFunctionAndLogsError checks spec §7's
// NestedFunctionRejected path: the offending function is skipped rather
// than aborting the whole run, and the rejection is logged.
func TestAnalyzeSkipsNestedFunctionAndLogsError(t *testing.T) {
	text := `def good():
    return 1


def bad():
    x = 1
    def inner():
        return x
    return inner
`
	funcs := pyfrontend.ParseFunctions(text)
	if len(funcs) != 2 {
		t.Fatalf("expected two top-level functions, got %d", len(funcs))
	}
	report := decompose.Analyze(text, funcs, decompose.Options{Thresholds: config.Default()})
	if len(report.Functions) != 1 {
		t.Fatalf("expected only the well-formed function to produce a report, got %d", len(report.Functions))
	}
	if report.Functions[0].Name != "good" {
		t.Errorf("expected the surviving report to be for 'good', got %q", report.Functions[0].Name)
	}
	if !report.Log.HasErrors() {
		t.Fatal("expected the nested function rejection to be logged as an error")
	}
}

func joined(vs []string) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}
