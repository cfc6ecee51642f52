package dataflow_test

import (
	"testing"

	"github.com/godoctor/decompose/analysis/dataflow"
	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/pyfrontend"
	"github.com/godoctor/decompose/source"
)

// buildFunction runs the real source -> AST -> CFG pipeline over a small
// fixture, mirroring the style of the teacher's cfg_test.go wrapper.
func buildFunction(t *testing.T, text string) *cfgbuild.FunctionBlock {
	t.Helper()
	funcs := pyfrontend.ParseFunctions(text)
	if len(funcs) != 1 {
		t.Fatalf("expected exactly one function, got %d", len(funcs))
	}
	meta := source.Scan(text, false)
	bl := cfgbuild.NewBlockList()
	fb, err := bl.Build(funcs[0], meta)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return fb
}

func TestReachingDefinitionsStraightLine(t *testing.T) {
	fb := buildFunction(t, `def f(c):
    a = c
    b = a
    b = a + 1
    return b
`)
	ri := dataflow.ReachingDefinitions(fb)

	// The final return references b, whose reaching definition is line 4
	// (the last assignment to b before the return), not line 3.
	facts := ri.Instr[5]
	if facts == nil {
		t.Fatal("no reaching facts for line 5")
	}
	sites := facts.In.Get("b").Sorted()
	if len(sites) != 1 || sites[0].Line != 4 {
		t.Fatalf("expected b to reach from line 4 only, got %v", sites)
	}
}

func TestReachingDefinitionsLoopJoin(t *testing.T) {
	fb := buildFunction(t, `def f(c):
    a = c
    b = a
    b = a
    while a < c:
        a = a + c
    a = c
    c = b
    return a
`)
	ri := dataflow.ReachingDefinitions(fb)

	// Line 5 is the loop test ("while a < c:"); it can see a from either
	// line 2 (on entry) or line 6 (the loop body, from a prior iteration).
	facts := ri.Instr[5]
	if facts == nil {
		t.Fatal("no reaching facts for line 5")
	}
	lines := map[int]bool{}
	for _, s := range facts.In.Get("a").Sorted() {
		lines[s.Line] = true
	}
	if !lines[2] || !lines[6] {
		t.Fatalf("expected a to reach the loop test from lines 2 and 6, got %v", facts.In.Get("a").Sorted())
	}
}

func TestLiveVariablesDropsDeadAssignment(t *testing.T) {
	fb := buildFunction(t, `def f(c):
    a = c
    b = a
    b = a + 1
    return b
`)
	live := dataflow.LiveVariables(fb)

	// b is immediately overwritten on line 4, so the result of line 3's
	// assignment never reaches a use: b is not live going into line 4.
	facts := live.Instr[4]
	if facts == nil {
		t.Fatal("no live facts for line 4")
	}
	if facts.In.Has("b") {
		t.Errorf("expected b not live before line 4, got live-in %v", facts.In.Sorted())
	}
	if !facts.In.Has("a") {
		t.Errorf("expected a live before line 4 (it is referenced there), got %v", facts.In.Sorted())
	}
}

func TestLiveVariablesAugmentedAssignment(t *testing.T) {
	fb := buildFunction(t, `def f(c):
    a = c
    a += 1
    return a
`)
	live := dataflow.LiveVariables(fb)

	facts := live.Instr[3]
	if facts == nil {
		t.Fatal("no live facts for line 3")
	}
	if !facts.Defined.Has("a") || !facts.Referenced.Has("a") {
		t.Errorf("augmented assignment should both define and reference its target, got defined=%v referenced=%v",
			facts.Defined.Sorted(), facts.Referenced.Sorted())
	}
}
