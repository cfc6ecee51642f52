package dataflow

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/godoctor/decompose/cfgbuild"
)

// LiveFacts holds the four variable sets for one program point:
// the instruction/block's own defined and referenced sets, plus the
// propagated in/out live sets.
type LiveFacts struct {
	Defined, Referenced, In, Out cfgbuild.VarSet
}

// Equal reports structural equality of all four sets.
func (f *LiveFacts) Equal(o *LiveFacts) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Defined.Equal(o.Defined) && f.Referenced.Equal(o.Referenced) &&
		f.In.Equal(o.In) && f.Out.Equal(o.Out)
}

func (f *LiveFacts) clone() *LiveFacts {
	if f == nil {
		return nil
	}
	return &LiveFacts{
		Defined:    f.Defined.Clone(),
		Referenced: f.Referenced.Clone(),
		In:         f.In.Clone(),
		Out:        f.Out.Clone(),
	}
}

// LiveInfo is the per-block and per-instruction live-variables result for
// one FunctionBlock.
type LiveInfo struct {
	Function *cfgbuild.FunctionBlock
	Block    map[string]*LiveFacts
	Instr    map[int]*LiveFacts
}

// Equal reports structural equality of every block and instruction fact.
func (li *LiveInfo) Equal(o *LiveInfo) bool {
	if li == nil || o == nil {
		return li == o
	}
	if len(li.Block) != len(o.Block) || len(li.Instr) != len(o.Instr) {
		return false
	}
	for k, f := range li.Block {
		if !f.Equal(o.Block[k]) {
			return false
		}
	}
	for k, f := range li.Instr {
		if !f.Equal(o.Instr[k]) {
			return false
		}
	}
	return true
}

// blockDefRef computes a block's aggregate Defined/Referenced sets by
// scanning its instructions *in reverse*: a variable is added
// to defined when written and, if currently exposed as a reference, it is
// dropped from referenced; an earlier (textually "above") reference
// re-adds it. This reproduces upward-exposed-use semantics, including for
// an instruction that both reads and writes the same variable (e.g. an
// augmented assignment): the write is applied first, clearing any
// exposure from later in the block, and then the instruction's own read
// re-exposes it.
func blockDefRef(b *cfgbuild.Block, allowed cfgbuild.VarSet) (defined, referenced cfgbuild.VarSet) {
	instrs := b.Instructions()
	for i := len(instrs) - 1; i >= 0; i-- {
		instr := instrs[i]
		d := restrictVarSet(instr.Defined, allowed)
		r := restrictVarSet(instr.Referenced, allowed)
		for v := range d {
			defined = defined.Add(v)
			if referenced.Has(v) {
				delete(referenced, v)
			}
		}
		for v := range r {
			referenced = referenced.Add(v)
		}
	}
	return defined, referenced
}

// varDomain assigns a stable bit index to every variable FuncGenVars
// tracks, so the fixed-point loops below can run over bitset.BitSet the
// way the teacher's liveVarBuilder tracks def/use/in/out, rather than over
// map[string]bool.
type varDomain struct {
	vars  []string
	index map[string]uint
}

func newVarDomain(allowed cfgbuild.VarSet) *varDomain {
	d := &varDomain{index: map[string]uint{}}
	for _, v := range allowed.Sorted() {
		d.index[v] = uint(len(d.vars))
		d.vars = append(d.vars, v)
	}
	return d
}

func (d *varDomain) bitsetOf(vs cfgbuild.VarSet) *bitset.BitSet {
	bs := new(bitset.BitSet)
	for v := range vs {
		if i, ok := d.index[v]; ok {
			bs.Set(i)
		}
	}
	return bs
}

func (d *varDomain) varSetOf(bs *bitset.BitSet) cfgbuild.VarSet {
	var out cfgbuild.VarSet
	for i, ok := uint(0), true; ok; i++ {
		if i, ok = bs.NextSet(i); ok {
			out = out.Add(d.vars[i])
		}
	}
	return out
}

// LiveVariables runs the backward, union-confluence live-variables
// analysis over fb. Defined/Referenced/In/Out are tracked as bitset.BitSet
// over the FuncGenVars domain, the way the teacher's liveVarBuilder tracks
// def/use/ins/outs, then mapped back to VarSet for the result.
func LiveVariables(fb *cfgbuild.FunctionBlock) *LiveInfo {
	blocks := cfgbuild.Reachable(fb.Block)
	allowed := FuncGenVars(fb)
	dom := newVarDomain(allowed)

	info := &LiveInfo{Function: fb, Block: map[string]*LiveFacts{}, Instr: map[int]*LiveFacts{}}

	defined := map[string]cfgbuild.VarSet{}
	referenced := map[string]cfgbuild.VarSet{}
	def := map[string]*bitset.BitSet{}
	use := map[string]*bitset.BitSet{}
	for _, b := range blocks {
		d, r := blockDefRef(b, allowed)
		defined[b.Label] = d
		referenced[b.Label] = r
		def[b.Label] = dom.bitsetOf(d)
		use[b.Label] = dom.bitsetOf(r)
	}

	ins := map[string]*bitset.BitSet{}
	outs := map[string]*bitset.BitSet{}
	for _, b := range blocks {
		ins[b.Label] = new(bitset.BitSet)
		outs[b.Label] = new(bitset.BitSet)
	}

	// Iterate to a fixed point: out(B) = U in(succ); in(B) = use(B) U
	// (out(B) - def(B)).
	for {
		changed := false
		for _, b := range blocks {
			for _, s := range b.Successors() {
				outs[b.Label].InPlaceUnion(ins[s.Label])
			}
			old := ins[b.Label].Clone()
			ins[b.Label] = use[b.Label].Union(outs[b.Label].Difference(def[b.Label]))
			changed = changed || !old.Equal(ins[b.Label])
		}
		if !changed {
			break
		}
	}

	for _, b := range blocks {
		info.Block[b.Label] = &LiveFacts{
			Defined:    defined[b.Label],
			Referenced: referenced[b.Label],
			In:         dom.varSetOf(ins[b.Label]),
			Out:        dom.varSetOf(outs[b.Label]),
		}
	}

	// Sweep backward within each block, from the block's out, to derive
	// instruction-level facts.
	for _, b := range blocks {
		instrs := b.Instructions()
		cur := outs[b.Label]
		for i := len(instrs) - 1; i >= 0; i-- {
			instr := instrs[i]
			instrDefined := restrictVarSet(instr.Defined, allowed)
			instrReferenced := restrictVarSet(instr.Referenced, allowed)
			out := cur
			in := dom.bitsetOf(instrReferenced).Union(out.Difference(dom.bitsetOf(instrDefined)))
			info.Instr[instr.LineNo] = &LiveFacts{
				Defined:    instrDefined,
				Referenced: instrReferenced,
				In:         dom.varSetOf(in),
				Out:        dom.varSetOf(out),
			}
			cur = in
		}
	}

	return info
}
