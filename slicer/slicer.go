// Package slicer computes static backward program slices (component D of
// the decomposition engine), materializes each slice as a reduced CFG, and
// reports its cyclomatic complexity — the one metric that drives the
// RemoveVar suggestion heuristic.
//
// Grounded on the entry/exit-fringe bookkeeping a godoctor-style
// stmtRange performs when deciding which variables cross a selected
// region's boundary: the slicer's worklist walk plays the same role for
// "which lines does this line depend on" that stmtRange's
// EntryPoints/ExitDestinations play for "which blocks touch this range's
// boundary".
package slicer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/godoctor/decompose/analysis/dataflow"
	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/condense"
)

// Options configures one slice computation.
type Options struct {
	// ExcludeVars removes these variables from consideration when
	// walking reaching definitions backward: a reference to an excluded
	// variable never pulls in its defining line(s).
	ExcludeVars cfgbuild.VarSet
	// IncludeControl forces every controlling line to be pulled into
	// the slice, not just the ones structurally necessary to keep an
	// already-included body line from dangling.
	IncludeControl bool
}

// Slice is a derived FunctionBlock plus its cyclomatic complexity.
type Slice struct {
	Function   *cfgbuild.FunctionBlock
	Complexity int
}

// Slicer computes slices of one function, sharing the condensed base
// graph and its reaching-definitions analysis across every operation
//.
type Slicer struct {
	base     *cfgbuild.FunctionBlock
	reaching *dataflow.ReachingInfo

	lineIndex map[int]*cfgbuild.Instruction

	sliceCache map[string]*Slice
}

// New deep-copies fn, condenses the copy, and runs reaching definitions
// against it once. fn itself is never mutated.
func New(fn *cfgbuild.FunctionBlock) *Slicer {
	base := fn.Clone()
	condense.Condense(base)

	lineIndex := map[int]*cfgbuild.Instruction{}
	for _, b := range cfgbuild.Reachable(base.Block) {
		for _, instr := range b.Instructions() {
			lineIndex[instr.LineNo] = instr
		}
	}

	return &Slicer{
		base:       base,
		reaching:   dataflow.ReachingDefinitions(base),
		lineIndex:  lineIndex,
		sliceCache: map[string]*Slice{},
	}
}

// Base returns the condensed clone every slice operation works from.
func (sl *Slicer) Base() *cfgbuild.FunctionBlock { return sl.base }

// Lines returns every line that has an instruction in the condensed base
// graph, ascending.
func (sl *Slicer) Lines() []int {
	out := make([]int, 0, len(sl.lineIndex))
	for l := range sl.lineIndex {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// LineSlice computes the static backward slice of line: the set of lines
// line depends on, via reaching definitions, control dependence, and
// shared multiline groups.
func (sl *Slicer) LineSlice(line int, opts Options) map[int]bool {
	visited := map[int]bool{}
	inWorklist := map[int]bool{line: true}
	queue := []int{line}

	enqueue := func(ln int) {
		if !visited[ln] && !inWorklist[ln] {
			inWorklist[ln] = true
			queue = append(queue, ln)
		}
	}
	minInWorklist := func() int {
		min := -1
		for ln := range inWorklist {
			if min == -1 || ln < min {
				min = ln
			}
		}
		return min
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		delete(inWorklist, cur)
		if visited[cur] {
			continue
		}
		visited[cur] = true

		instr := sl.lineIndex[cur]
		if instr == nil {
			continue
		}

		if facts := sl.reaching.Instr[cur]; facts != nil {
			for v := range instr.Referenced {
				if opts.ExcludeVars.Has(v) {
					continue
				}
				for _, site := range facts.In.Get(v).Sorted() {
					enqueue(site.Line)
				}
			}
		}

		for ml := range instr.Multiline {
			enqueue(ml)
		}

		if instr.Control != 0 {
			if opts.IncludeControl || instr.Control > minInWorklist() {
				enqueue(instr.Control)
			}
		}
	}

	return visited
}

// Materialize copies every block of the condensed base graph, keeping only
// instructions on the given lines, then condenses the result. A block none
// of whose instructions survive the line filter is still copied, empty:
// Condense's "remove empty block" rewrite bridges through it rather than
// Materialize severing its edges itself, matching
// `_generate_cfg_slice`'s unconditional walk over every block followed by
// condensation.
// Results are memoized by the frozen set of lines.
func (sl *Slicer) Materialize(lines map[int]bool) *Slice {
	key := canonicalKey(lines)
	if cached, ok := sl.sliceCache[key]; ok {
		return cached
	}

	order := cfgbuild.Reachable(sl.base.Block)

	fresh := map[string]*cfgbuild.Block{}
	counter := cfgbuild.NewLabelCounter()
	for _, b := range order {
		var nb *cfgbuild.Block
		if b == sl.base.Block {
			nb = cfgbuild.NewBlock(b.Label)
		} else {
			nb = cfgbuild.NewBlock(counter.Next())
		}
		for _, instr := range b.Instructions() {
			if lines[instr.LineNo] {
				nb.AddInstruction(instr)
			}
		}
		fresh[b.Label] = nb
	}
	for _, b := range order {
		for _, s := range b.Successors() {
			cfgbuild.Link(fresh[b.Label], fresh[s.Label])
		}
	}

	sliceFn := &cfgbuild.FunctionBlock{
		Block:       fresh[sl.base.Block.Label],
		Name:        sl.base.Name,
		Params:      append([]string{}, sl.base.Params...),
		Exit:        fresh[sl.base.Exit.Label],
		FirstLine:   sl.base.FirstLine,
		LastLine:    sl.base.LastLine,
		BlankLines:  sl.base.BlankLines,
		Comments:    sl.base.Comments,
		Unimportant: sl.base.Unimportant,
	}
	condense.Condense(sliceFn)

	result := &Slice{Function: sliceFn, Complexity: Complexity(sliceFn)}
	sl.sliceCache[key] = result
	return result
}

// SliceMap returns, for every line with an instruction in the condensed
// base graph, the materialized slice rooted at that line under opts.
func (sl *Slicer) SliceMap(opts Options) map[int]*Slice {
	out := make(map[int]*Slice, len(sl.lineIndex))
	for line := range sl.lineIndex {
		out[line] = sl.Materialize(sl.LineSlice(line, opts))
	}
	return out
}

// topoSort orders fb's reachable blocks the way `get_sorted_blocks` does: a
// postorder DFS from entry, each block pushed to the front of the result
// once every successor beneath it has been placed. The entry block ends up
// first; the block whose DFS subtree finishes first ends up last. This is a
// true topological order when the graph is acyclic, and degrades gracefully
// (but deterministically) on the back-edges a loop introduces, exactly as
// the original does.
func topoSort(entry *cfgbuild.Block) []*cfgbuild.Block {
	visited := map[string]bool{}
	var sorted []*cfgbuild.Block
	var visit func(b *cfgbuild.Block)
	visit = func(b *cfgbuild.Block) {
		visited[b.Label] = true
		succs := b.Successors()
		for i := len(succs) - 1; i >= 0; i-- {
			if s := succs[i]; !visited[s.Label] {
				visit(s)
			}
		}
		sorted = append([]*cfgbuild.Block{b}, sorted...)
	}
	visit(entry)
	return sorted
}

// Complexity computes cyclomatic complexity as edges - nodes + 2*exits,
// where exits are blocks last in topological order or with more than one
// predecessor (a join point), per spec §4.D and the original's
// _get_num_exits.
func Complexity(fb *cfgbuild.FunctionBlock) int {
	order := topoSort(fb.Block)
	nodes := len(order)
	edges := 0
	exits := 0
	for i, b := range order {
		edges += len(b.Successors())
		if i == nodes-1 || len(b.Predecessors()) > 1 {
			exits++
		}
	}
	return edges - nodes + 2*exits
}

func canonicalKey(lines map[int]bool) string {
	sorted := make([]int, 0, len(lines))
	for l := range lines {
		sorted = append(sorted, l)
	}
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, l := range sorted {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}
