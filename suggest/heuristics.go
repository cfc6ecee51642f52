package suggest

import (
	"github.com/godoctor/decompose/analysis/dataflow"
	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/config"
	"github.com/godoctor/decompose/slicer"
)

// runH1 is the RemoveVar heuristic: for every candidate variable group, mark
// every line whose slice complexity drops by at least
// min_diff_complexity_between_slices once that group is excluded from
// consideration.
func runH1(fb *cfgbuild.FunctionBlock, sl *slicer.Slicer, th config.Thresholds, slow bool) map[int]bool {
	baseline := sl.SliceMap(slicer.Options{})
	lineSet := map[int]bool{}
	for _, group := range variableGroups(fb, slow) {
		reduced := sl.SliceMap(slicer.Options{ExcludeVars: group})
		for line, base := range baseline {
			red, ok := reduced[line]
			if !ok {
				continue
			}
			if base.Complexity-red.Complexity >= th.MinDiffComplexityBetweenSlices {
				lineSet[line] = true
			}
		}
	}
	return lineSet
}

// variableGroups returns the candidate variable groups H1 tries excluding:
// every single variable defined anywhere in fb, plus, when slow is set,
// every run of three and four variables that are consecutive in the order
// of their first definition (blocks in DFS order, lines ascending).
func variableGroups(fb *cfgbuild.FunctionBlock, slow bool) []cfgbuild.VarSet {
	order := firstUseOrder(fb)

	var groups []cfgbuild.VarSet
	for _, v := range order {
		groups = append(groups, cfgbuild.NewVarSet(v))
	}
	if !slow {
		return groups
	}
	for _, size := range []int{3, 4} {
		for i := 0; i+size <= len(order); i++ {
			groups = append(groups, cfgbuild.NewVarSet(order[i:i+size]...))
		}
	}
	return groups
}

func firstUseOrder(fb *cfgbuild.FunctionBlock) []string {
	seen := map[string]bool{}
	var order []string
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			for _, v := range instr.Defined.Sorted() {
				if !seen[v] {
					seen[v] = true
					order = append(order, v)
				}
			}
		}
	}
	return order
}

// runH2 is the SimilarRef heuristic: walk each block in its own instruction
// order, close and flush a run whenever the live-variable referenced set
// changes from the previous instruction, keeping only runs that already
// satisfy min_lines_in_suggestion.
func runH2(fb *cfgbuild.FunctionBlock, live *dataflow.LiveInfo, th config.Thresholds) map[int]bool {
	lineSet := map[int]bool{}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		var prevRef cfgbuild.VarSet
		var havePrev bool
		var run []int

		flush := func() {
			if len(run) >= th.MinLinesInSuggestion {
				for _, l := range run {
					lineSet[l] = true
				}
			}
			run = nil
		}

		for _, instr := range b.Instructions() {
			var ref cfgbuild.VarSet
			if f := live.Instr[instr.LineNo]; f != nil {
				ref = f.Referenced
			}
			if havePrev && !ref.Equal(prevRef) {
				flush()
			}
			run = append(run, instr.LineNo)
			prevRef = ref
			havePrev = true
		}
		flush()
	}
	return lineSet
}

// runH3 is the DiffRefLiveVarBlock heuristic: mark every instruction of a
// block whose live-in set exceeds its own referenced set by at least
// min_diff_ref_and_live_var.
func runH3(fb *cfgbuild.FunctionBlock, live *dataflow.LiveInfo, th config.Thresholds) map[int]bool {
	lineSet := map[int]bool{}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		bf := live.Block[b.Label]
		if bf == nil {
			continue
		}
		if len(bf.In)-len(bf.Referenced) >= th.MinDiffRefAndLiveVar {
			for _, instr := range b.Instructions() {
				lineSet[instr.LineNo] = true
			}
		}
	}
	return lineSet
}

// runH4 is the DiffRefLiveVarInstr heuristic: the same predicate as H3 at
// instruction granularity, followed by a post-filter requiring more than
// min_linenos_diff_reference_livevar_instr real instruction lines in the
// resulting range.
func runH4(fb *cfgbuild.FunctionBlock, live *dataflow.LiveInfo, th config.Thresholds, norm *normalizer) []Range {
	lineSet := map[int]bool{}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			f := live.Instr[instr.LineNo]
			if f == nil {
				continue
			}
			if len(f.In)-len(f.Referenced) >= th.MinDiffRefAndLiveVar {
				lineSet[instr.LineNo] = true
			}
		}
	}

	var out []Range
	for _, r := range norm.normalize(lineSet) {
		if countInstructionLines(fb, r) > th.MinLinenosDiffReferenceLivevarInstr {
			out = append(out, r)
		}
	}
	return out
}
