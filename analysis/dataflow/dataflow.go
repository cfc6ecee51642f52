// Package dataflow runs the two iterative dataflow analyses (component C
// of the decomposition engine) over a previously built FunctionBlock:
// reaching definitions and live variables, each computed at both block and
// instruction granularity. Both analyses share the same
// iterate-to-fixed-point skeleton: seed per-block gen/kill (or def/use),
// propagate across the block graph until the fact table stops changing,
// then sweep once more within each block to derive instruction-level
// facts from the block-level ones.
package dataflow

import "github.com/godoctor/decompose/cfgbuild"

// FuncGenVars returns the set of every variable defined anywhere in fb,
// used by both analyses to restrict their tracked variables to names that
// are actually assigned somewhere inside the function — pure globals or
// free references are not tracked.
func FuncGenVars(fb *cfgbuild.FunctionBlock) cfgbuild.VarSet {
	vars := cfgbuild.VarSet{}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			for v := range instr.Defined {
				vars[v] = true
			}
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}

// FunctionBlockInformation bundles the reaching-definitions and
// live-variables facts computed for one FunctionBlock. Both
// inner bundles are keyed the same way: by block label and by instruction
// line.
type FunctionBlockInformation struct {
	Function *cfgbuild.FunctionBlock
	Reaching *ReachingInfo
	Live     *LiveInfo
}

// Analyze runs both dataflow analyses over fb and returns their combined
// result.
func Analyze(fb *cfgbuild.FunctionBlock) *FunctionBlockInformation {
	return &FunctionBlockInformation{
		Function: fb,
		Reaching: ReachingDefinitions(fb),
		Live:     LiveVariables(fb),
	}
}

// Equal reports structural equality of both inner bundles.
func (fbi *FunctionBlockInformation) Equal(o *FunctionBlockInformation) bool {
	if fbi == nil || o == nil {
		return fbi == o
	}
	return fbi.Reaching.Equal(o.Reaching) && fbi.Live.Equal(o.Live)
}

func restrictVarSet(s cfgbuild.VarSet, allowed cfgbuild.VarSet) cfgbuild.VarSet {
	return s.Intersect(allowed)
}
