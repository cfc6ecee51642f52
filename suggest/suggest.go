package suggest

import (
	"github.com/godoctor/decompose/analysis/dataflow"
	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/config"
	"github.com/godoctor/decompose/slicer"
)

// Engine holds the shared analysis results for one function across every
// heuristic, so each is computed exactly once.
type Engine struct {
	fb   *cfgbuild.FunctionBlock
	th   config.Thresholds
	slow bool

	live *dataflow.LiveInfo
	sl   *slicer.Slicer
	norm *normalizer

	instrByLine  map[int]*cfgbuild.Instruction
	lineToBlock  map[int]*cfgbuild.Block
	totalInstrs  int
	ownParamSet  cfgbuild.VarSet
}

// New builds a suggestion Engine for fb, computing live variables over the
// original (uncondensed) graph and a Slicer for on-demand complexity
// queries, up front.
func New(fb *cfgbuild.FunctionBlock, th config.Thresholds, slow bool) *Engine {
	e := &Engine{
		fb:          fb,
		th:          th,
		slow:        slow,
		live:        dataflow.LiveVariables(fb),
		sl:          slicer.New(fb),
		norm:        newNormalizer(fb),
		instrByLine: map[int]*cfgbuild.Instruction{},
		lineToBlock: map[int]*cfgbuild.Block{},
		ownParamSet: cfgbuild.NewVarSet(fb.Params...),
	}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			e.instrByLine[instr.LineNo] = instr
			e.lineToBlock[instr.LineNo] = b
		}
	}
	for ln := fb.FirstLine; ln <= fb.LastLine; ln++ {
		if !fb.Unimportant[ln] {
			e.totalInstrs++
		}
	}
	return e
}

// Suggest runs every heuristic over fb, normalizes their candidate ranges,
// merges reasons for identical (start, end) keys, validates and projects
// parameters/returns, and returns the surviving Suggestions in the order
// required by spec §3/§8 (ascending start, descending end).
func Suggest(fb *cfgbuild.FunctionBlock, th config.Thresholds, slow bool) []*Suggestion {
	e := New(fb, th, slow)

	type tagged struct {
		r Range
		w Reason
	}
	var all []tagged

	for _, r := range e.norm.normalize(runH1(fb, e.sl, th, slow)) {
		all = append(all, tagged{r, RemoveVar})
	}
	for _, r := range e.norm.normalize(runH2(fb, e.live, th)) {
		all = append(all, tagged{r, SimilarRef})
	}
	for _, r := range e.norm.normalize(runH3(fb, e.live, th)) {
		all = append(all, tagged{r, DiffRefLiveVarBlock})
	}
	for _, r := range runH4(fb, e.live, th, e.norm) {
		all = append(all, tagged{r, DiffRefLiveVarInstr})
	}

	type key struct{ start, end int }
	merged := map[key]ReasonSet{}
	var order []key
	for _, t := range all {
		k := key{t.r.Start, t.r.End}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		if merged[k] == nil {
			merged[k] = ReasonSet{}
		}
		merged[k][t.w] = true
	}

	var out []*Suggestion
	for _, k := range order {
		s := e.build(Range{k.start, k.end}, merged[k])
		if s != nil {
			out = append(out, s)
		}
	}
	Sort(out)
	return out
}

// build validates r against thresholds and, if it survives, projects its
// parameters and returns into a Suggestion.
func (e *Engine) build(r Range, reasons ReasonSet) *Suggestion {
	if countInstructionLines(e.fb, r) < e.th.MinLinesInSuggestion {
		return nil
	}
	if e.totalInstrs-countInstructionLines(e.fb, r) < e.th.MinLinesFuncNotInSuggestion {
		return nil
	}

	params := e.computeParameters(r)
	if len(params) < e.th.MinVariablesParameterInSuggestion {
		return nil
	}
	if len(params) > e.th.MaxVariablesParameterInSuggestion {
		return nil
	}
	if cfgbuild.NewVarSet(params...).Equal(e.ownParamSet) {
		return nil
	}

	returns := e.computeReturns(r)
	if len(returns) > e.th.MaxVariablesReturnInSuggestion {
		return nil
	}

	return &Suggestion{
		Function:   e.fb.Name,
		Start:      r.Start,
		End:        r.End,
		Parameters: params,
		Returns:    returns,
		Reasons:    reasons,
	}
}

// computeParameters walks r line by line, tracking which variables have
// already been defined within the range, and collects every variable
// referenced before its own in-range definition.
func (e *Engine) computeParameters(r Range) []string {
	var defined cfgbuild.VarSet
	var params cfgbuild.VarSet
	for ln := r.Start; ln <= r.End; ln++ {
		instr := e.instrByLine[ln]
		if instr == nil {
			continue
		}
		for v := range instr.Referenced {
			if !defined.Has(v) {
				params = params.Add(v)
			}
		}
		for v := range instr.Defined {
			defined = defined.Add(v)
		}
	}
	return params.Sorted()
}

// computeReturns seeds the return set with every variable referenced by an
// in-range Return instruction and the carry set with every in-range-defined
// variable, then walks breadth-first from the successors of every block
// that holds an in-range instruction (those blocks themselves, including
// any out-of-range lines they hold, are not scanned): an
// out-of-range reference to a carried variable adds it to the returns, and
// an out-of-range definition of a carried variable (checked after its own
// references) drops it from further consideration. Traversal stops once the
// carry set is empty or no new block is reached.
func (e *Engine) computeReturns(r Range) []string {
	var inRangeDefined cfgbuild.VarSet
	var returns cfgbuild.VarSet
	for ln := r.Start; ln <= r.End; ln++ {
		instr := e.instrByLine[ln]
		if instr == nil {
			continue
		}
		for v := range instr.Defined {
			inRangeDefined = inRangeDefined.Add(v)
		}
		if instr.Kind == cfgbuild.KindReturn {
			for v := range instr.Referenced {
				returns = returns.Add(v)
			}
		}
	}

	carry := inRangeDefined.Clone()
	if len(carry) == 0 {
		return returns.Sorted()
	}

	startBlocks := map[string]*cfgbuild.Block{}
	for ln := r.Start; ln <= r.End; ln++ {
		if _, ok := e.instrByLine[ln]; !ok {
			continue
		}
		if b := e.lineToBlock[ln]; b != nil {
			startBlocks[b.Label] = b
		}
	}

	visited := map[string]bool{}
	var queue []*cfgbuild.Block
	for _, b := range startBlocks {
		visited[b.Label] = true
		for _, s := range b.Successors() {
			if !visited[s.Label] {
				visited[s.Label] = true
				queue = append(queue, s)
			}
		}
	}

	for len(queue) > 0 && len(carry) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, instr := range b.Instructions() {
			if instr.LineNo >= r.Start && instr.LineNo <= r.End {
				continue
			}
			for v := range instr.Referenced {
				if carry.Has(v) {
					returns = returns.Add(v)
				}
			}
			for v := range instr.Defined {
				if carry.Has(v) {
					delete(carry, v)
				}
			}
		}
		if len(carry) == 0 {
			break
		}
		for _, s := range b.Successors() {
			if !visited[s.Label] {
				visited[s.Label] = true
				queue = append(queue, s)
			}
		}
	}

	return returns.Sorted()
}

// AverageWeightedComplexity computes the per-function summary metric from
// spec §6: each materialized slice's complexity, multiplied by its rank
// (1-based) among the function's ascending line numbers, summed and
// divided by the function's length plus one.
func AverageWeightedComplexity(sl *slicer.Slicer, fb *cfgbuild.FunctionBlock) float64 {
	lines := sl.Lines()
	if len(lines) == 0 {
		return 0
	}
	slices := sl.SliceMap(slicer.Options{})
	var sum float64
	for i, ln := range lines {
		sum += float64(slices[ln].Complexity * (i + 1))
	}
	length := fb.LastLine - fb.FirstLine + 1
	return sum / float64(length+1)
}
