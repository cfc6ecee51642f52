package suggest

import (
	"testing"

	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/pyfrontend"
	"github.com/godoctor/decompose/source"
)

func buildForNormalize(t *testing.T, text string) *cfgbuild.FunctionBlock {
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

// TestNormalizeIsIdempotent checks the round-trip law of spec §8:
// normalise_range(normalise_range(S)) = normalise_range(S). Feeding a
// produced range's own line set back through normalize must reproduce
// exactly that range.
func TestNormalizeIsIdempotent(t *testing.T) {
	fb := buildForNormalize(t, `def f(a):
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
	n := newNormalizer(fb)

	whole := map[int]bool{}
	for ln := fb.FirstLine; ln <= fb.LastLine; ln++ {
		whole[ln] = true
	}
	ranges := n.normalize(whole)
	if len(ranges) == 0 {
		t.Fatal("expected at least one candidate range from the whole function body")
	}

	for _, r := range ranges {
		lines := map[int]bool{}
		for ln := r.Start; ln <= r.End; ln++ {
			lines[ln] = true
		}
		again := n.normalize(lines)
		if len(again) != 1 || again[0] != r {
			t.Errorf("expected normalize(%v) to reproduce itself, got %v", r, again)
		}
	}
}

// TestNormalizeRangeIsSingleIndentationLevel checks the §9 open-question
// property: every returned range is syntactically a contiguous body at a
// single indentation level (no line dips below the range's own base
// indentation).
func TestNormalizeRangeIsSingleIndentationLevel(t *testing.T) {
	fb := buildForNormalize(t, `def f(a):
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
	n := newNormalizer(fb)

	whole := map[int]bool{}
	for ln := fb.FirstLine; ln <= fb.LastLine; ln++ {
		whole[ln] = true
	}
	for _, r := range n.normalize(whole) {
		var base int
		haveBase := false
		for ln := r.Start; ln <= r.End; ln++ {
			instr := n.instrByLine[ln]
			if instr == nil {
				continue
			}
			if !haveBase {
				base = instr.Indentation
				haveBase = true
				continue
			}
			if instr.Indentation < base {
				t.Errorf("range %v dips below its base indentation %d at line %d (indent %d)", r, base, ln, instr.Indentation)
			}
		}
	}
}

// TestNormalizeKeepsMultilineGroupIntact checks that a candidate touching
// only the owning line of a multiline statement pulls in every member of
// that statement's group, never a partial prefix.
func TestNormalizeKeepsMultilineGroupIntact(t *testing.T) {
	fb := buildForNormalize(t, "def f(y):\n    x = (\"a\\n\"\n         \"b\"\n         \"c\")\n    y = 1\n    return x\n")
	n := newNormalizer(fb)

	// Line 2 owns the multiline group {2,3,4}; seeding the candidate with
	// just line 2 plus the unrelated line 5 must still pull in 3 and 4.
	seed := map[int]bool{2: true, 5: true}
	for _, r := range n.normalize(seed) {
		if r.Start <= 2 && r.End >= 2 {
			if r.End < 4 {
				t.Errorf("range %v includes the multiline owner at line 2 without the rest of its group (3,4)", r)
			}
		}
	}
}
