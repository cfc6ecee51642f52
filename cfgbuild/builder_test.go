package cfgbuild_test

import (
	"testing"

	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/pyfrontend"
	"github.com/godoctor/decompose/source"
)

func build(t *testing.T, text string) *cfgbuild.FunctionBlock {
	t.Helper()
	funcs := pyfrontend.ParseFunctions(text)
	if len(funcs) != 1 {
		t.Fatalf("expected exactly one function, got %d", len(funcs))
	}
	bl := cfgbuild.NewBlockList()
	fb, err := bl.Build(funcs[0], source.Scan(text, false))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return fb
}

func TestNestedFunctionRejected(t *testing.T) {
	funcs := pyfrontend.ParseFunctions(`def outer():
    x = 1
    def inner():
        return x
    return inner
`)
	if len(funcs) != 1 {
		t.Fatalf("expected exactly one top-level function, got %d", len(funcs))
	}
	bl := cfgbuild.NewBlockList()
	_, err := bl.Build(funcs[0], source.Scan("", false))
	if err == nil {
		t.Fatal("expected an error for a nested function definition")
	}
}

// TestPredecessorSuccessorSymmetry checks invariant 1 of spec §8 across a
// function exercising every branching construct.
func TestPredecessorSuccessorSymmetry(t *testing.T) {
	fb := build(t, `def f(a):
    if a < 0:
        a = 0
    for i in range(a):
        if i == 2:
            continue
        if i == 3:
            break
        a += i
    try:
        a = a / 2
    except ZeroDivisionError as e:
        a = 0
    return a
`)
	assertSymmetric(t, fb)
}

func assertSymmetric(t *testing.T, fb *cfgbuild.FunctionBlock) {
	t.Helper()
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, s := range b.Successors() {
			if !s.HasPredecessor(b) {
				t.Errorf("block %s has successor %s but %s does not list it as a predecessor", b.Label, s.Label, s.Label)
			}
		}
		for _, p := range b.Predecessors() {
			if !p.HasSuccessor(b) {
				t.Errorf("block %s has predecessor %s but %s does not list it as a successor", b.Label, p.Label, p.Label)
			}
		}
		if b.HasSuccessor(b) {
			t.Errorf("block %s is its own successor", b.Label)
		}
	}
}

// TestSingleExit checks invariant 2: exactly one exit block, with no
// instructions, regardless of how many return paths a function has.
func TestSingleExit(t *testing.T) {
	fb := build(t, `def f(a):
    if a < 0:
        return -1
    if a == 0:
        return 0
    return 1
`)
	if fb.Exit == nil {
		t.Fatal("expected an exit block")
	}
	if !fb.Exit.IsEmpty() {
		t.Fatal("exit block must carry no instructions")
	}
	exits := 0
	for _, b := range cfgbuild.Reachable(fb.Block) {
		if len(b.Successors()) == 0 {
			exits++
			if b != fb.Exit {
				t.Errorf("found a sink block %s distinct from the recorded exit %s", b.Label, fb.Exit.Label)
			}
		}
	}
	if exits != 1 {
		t.Fatalf("expected exactly one sink block, found %d", exits)
	}
}

func TestBreakLinksToAfterBlock(t *testing.T) {
	fb := build(t, `def f(a):
    for i in range(a):
        if i == 2:
            break
        a += i
    return a
`)
	assertSymmetric(t, fb)

	var breakBlock *cfgbuild.Block
	for _, b := range cfgbuild.Reachable(fb.Block) {
		if instr, ok := b.Instruction(4); ok && instr.Kind == cfgbuild.KindBreak {
			breakBlock = b
		}
	}
	if breakBlock == nil {
		t.Fatal("expected to find the break instruction's block")
	}
	if len(breakBlock.Successors()) != 1 {
		t.Fatalf("expected the break block to have exactly one successor, got %d", len(breakBlock.Successors()))
	}
}

func TestMutatingMethodCallDefinesReceiver(t *testing.T) {
	fb := build(t, `def f():
    items = []
    items.append(1)
    return items
`)
	var appendInstr *cfgbuild.Instruction
	for _, b := range cfgbuild.Reachable(fb.Block) {
		if i, ok := b.Instruction(3); ok {
			appendInstr = i
		}
	}
	if appendInstr == nil {
		t.Fatal("expected an instruction on line 3")
	}
	if !appendInstr.Defined.Has("items") {
		t.Errorf("expected items.append(1) to define items, got defined=%v", appendInstr.Defined.Sorted())
	}
	if !appendInstr.Referenced.Has("items") {
		t.Errorf("expected items.append(1) to reference items, got referenced=%v", appendInstr.Referenced.Sorted())
	}
}

func TestSubscriptStoreDefinesContainerReferencesIndex(t *testing.T) {
	fb := build(t, `def f(items, i):
    items[i] = 5
    return items
`)
	var instr *cfgbuild.Instruction
	for _, b := range cfgbuild.Reachable(fb.Block) {
		if in, ok := b.Instruction(2); ok {
			instr = in
		}
	}
	if instr == nil {
		t.Fatal("expected an instruction on line 2")
	}
	if !instr.Defined.Has("items") {
		t.Errorf("expected items[i] = 5 to define items, got %v", instr.Defined.Sorted())
	}
	if !instr.Referenced.Has("i") {
		t.Errorf("expected items[i] = 5 to reference i, got %v", instr.Referenced.Sorted())
	}
}

func TestAugmentedAssignmentDefinesAndReferences(t *testing.T) {
	fb := build(t, `def f(a):
    a += 1
    return a
`)
	var instr *cfgbuild.Instruction
	for _, b := range cfgbuild.Reachable(fb.Block) {
		if in, ok := b.Instruction(2); ok {
			instr = in
		}
	}
	if instr == nil {
		t.Fatal("expected an instruction on line 2")
	}
	if !instr.Defined.Has("a") || !instr.Referenced.Has("a") {
		t.Errorf("expected a += 1 to both define and reference a, got defined=%v referenced=%v",
			instr.Defined.Sorted(), instr.Referenced.Sorted())
	}
}

func TestSyntheticElseInstruction(t *testing.T) {
	fb := build(t, `def f(a):
    if a < 0:
        a = 0
    else:
        a = 1
    return a
`)
	var sawElse bool
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			if instr.Kind == cfgbuild.KindElse {
				sawElse = true
			}
		}
	}
	if !sawElse {
		t.Fatal("expected a synthetic Else instruction for a non-elif else branch")
	}
}

func TestElifDoesNotSynthesizeElse(t *testing.T) {
	fb := build(t, `def f(a):
    if a < 0:
        a = 0
    elif a == 0:
        a = 1
    return a
`)
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			if instr.Kind == cfgbuild.KindElse {
				t.Fatal("did not expect a synthetic Else instruction for an elif chain")
			}
		}
	}
}
