package suggest

import (
	"sort"

	"github.com/godoctor/decompose/cfgbuild"
)

// normalizer turns a raw set of candidate lines contributed by a heuristic
// into one or more validated, contiguous ranges. It is built once per function and shared by every
// heuristic so the per-range fixed-point work is memoized across them.
type normalizer struct {
	fb           *cfgbuild.FunctionBlock
	instrByLine  map[int]*cfgbuild.Instruction
	controlledBy map[int][]int

	cache map[[2]int][]Range
}

func newNormalizer(fb *cfgbuild.FunctionBlock) *normalizer {
	n := &normalizer{
		fb:           fb,
		instrByLine:  map[int]*cfgbuild.Instruction{},
		controlledBy: map[int][]int{},
		cache:        map[[2]int][]Range{},
	}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			n.instrByLine[instr.LineNo] = instr
			if instr.Control != 0 {
				n.controlledBy[instr.Control] = append(n.controlledBy[instr.Control], instr.LineNo)
			}
		}
	}
	return n
}

// normalize expands lines with every full multiline group they touch and
// every unimportant line in the function, splits the result into runs
// separated by gaps of two or more, and reduces each run to a fixed point
// of indentation splitting, multiline adjustment and control adjustment
//.
func (n *normalizer) normalize(lines map[int]bool) []Range {
	full := map[int]bool{}
	for ln := range lines {
		full[ln] = true
		if instr := n.instrByLine[ln]; instr != nil {
			for ml := range instr.Multiline {
				full[ml] = true
			}
		}
	}
	for ln := range n.fb.Unimportant {
		full[ln] = true
	}

	var out []Range
	for _, run := range splitRuns(sortedKeys(full)) {
		out = append(out, n.processCandidate(run)...)
	}
	return out
}

func (n *normalizer) processCandidate(members []int) []Range {
	if len(members) < 2 {
		return nil
	}
	key := [2]int{members[0], members[len(members)-1]}
	if cached, ok := n.cache[key]; ok {
		return cached
	}

	var results []Range
	queue := [][]int{members}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if len(cur) < 2 {
			continue
		}

		pieces := n.indentSplit(cur)
		if len(pieces) > 1 {
			queue = append(pieces, queue...)
			continue
		}

		adjusted, changed1 := n.multilineAdjust(cur)
		adjusted, changed2 := n.controlAdjust(adjusted)
		if changed1 || changed2 {
			queue = append(splitRuns(adjusted), queue...)
			continue
		}

		if r, ok := n.trim(cur); ok {
			results = append(results, r)
		}
	}

	n.cache[key] = results
	return results
}

// indentSplit breaks members into sub-groups whenever an instruction's
// indentation drops below the indentation of the first instruction seen in
// the current group.
func (n *normalizer) indentSplit(members []int) [][]int {
	var groups [][]int
	var cur []int
	base := -1
	for _, ln := range members {
		if instr := n.instrByLine[ln]; instr != nil {
			if base == -1 {
				base = instr.Indentation
			} else if instr.Indentation < base {
				groups = append(groups, cur)
				cur = nil
				base = instr.Indentation
			}
		}
		cur = append(cur, ln)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// multilineAdjust drops any line whose multiline group is not entirely
// within [min, max] of the current members.
func (n *normalizer) multilineAdjust(members []int) ([]int, bool) {
	min, max := members[0], members[len(members)-1]
	var out []int
	changed := false
	for _, ln := range members {
		drop := false
		if instr := n.instrByLine[ln]; instr != nil {
			for ml := range instr.Multiline {
				if ml < min || ml > max {
					drop = true
					break
				}
			}
		}
		if drop {
			changed = true
			continue
		}
		out = append(out, ln)
	}
	return out, changed
}

// controlAdjust drops any line that controls another instruction unless
// every instruction it controls also falls within [min, max].
func (n *normalizer) controlAdjust(members []int) ([]int, bool) {
	if len(members) == 0 {
		return members, false
	}
	min, max := members[0], members[len(members)-1]
	var out []int
	changed := false
	for _, ln := range members {
		drop := false
		for _, controlled := range n.controlledBy[ln] {
			if controlled < min || controlled > max {
				drop = true
				break
			}
		}
		if drop {
			changed = true
			continue
		}
		out = append(out, ln)
	}
	return out, changed
}

// trim removes unimportant lines from both ends and discards empty or
// single-line results.
func (n *normalizer) trim(members []int) (Range, bool) {
	lo, hi := 0, len(members)-1
	for lo <= hi && n.fb.Unimportant[members[lo]] {
		lo++
	}
	for hi >= lo && n.fb.Unimportant[members[hi]] {
		hi--
	}
	if hi-lo < 1 {
		return Range{}, false
	}
	return Range{Start: members[lo], End: members[hi]}, true
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// splitRuns splits an ascending, duplicate-free slice of lines into runs
// separated by a gap of two or more.
func splitRuns(sorted []int) [][]int {
	var runs [][]int
	var cur []int
	for i, ln := range sorted {
		if i > 0 && ln-sorted[i-1] >= 2 {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, ln)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// rangeSpan is the literal inclusive length of r, including any
// unimportant lines between its endpoints.
func rangeSpan(r Range) int { return r.End - r.Start + 1 }

// countInstructionLines counts the lines in [r.Start, r.End] that carry a
// real instruction, i.e. excluding blank/comment lines.
func countInstructionLines(fb *cfgbuild.FunctionBlock, r Range) int {
	n := 0
	for ln := r.Start; ln <= r.End; ln++ {
		if !fb.Unimportant[ln] {
			n++
		}
	}
	return n
}
