package dataflow

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/godoctor/decompose/cfgbuild"
)

// DefSite identifies one point at which a variable may have been defined:
// the block it was defined in and the source line.
type DefSite struct {
	Block string
	Line  int
}

// SiteSet is an unordered collection of DefSites.
type SiteSet map[DefSite]bool

// Sorted returns the set's members ordered by block label then line, for
// deterministic debug output and tests.
func (s SiteSet) Sorted() []DefSite {
	out := make([]DefSite, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func (s SiteSet) clone() SiteSet {
	if s == nil {
		return nil
	}
	out := make(SiteSet, len(s))
	for d := range s {
		out[d] = true
	}
	return out
}

func (s SiteSet) equal(o SiteSet) bool {
	if len(s) != len(o) {
		return false
	}
	for d := range s {
		if !o[d] {
			return false
		}
	}
	return true
}

// VarSites maps a variable name to the set of DefSites currently
// associated with it — the spec's "four mappings variable -> set of
// (block-label, line) pairs" (§3), one instance each for gen, kill, in
// and out.
type VarSites map[string]SiteSet

func newVarSites() VarSites { return VarSites{} }

func (v VarSites) get(name string) SiteSet { return v[name] }

// Get returns the DefSites currently associated with name, or nil.
func (v VarSites) Get(name string) SiteSet { return v[name] }

func (v VarSites) set(name string, s SiteSet) {
	if len(s) == 0 {
		delete(v, name)
		return
	}
	v[name] = s
}

func (v VarSites) clone() VarSites {
	out := make(VarSites, len(v))
	for k, s := range v {
		out[k] = s.clone()
	}
	return out
}

func (v VarSites) equal(o VarSites) bool {
	if len(v) != len(o) {
		return false
	}
	for k, s := range v {
		if !s.equal(o[k]) {
			return false
		}
	}
	return true
}

// ReachingFacts holds the four VarSites mappings for one program point
//.
type ReachingFacts struct {
	Gen, Kill, In, Out VarSites
}

// Equal reports structural equality of all four mappings.
func (f *ReachingFacts) Equal(o *ReachingFacts) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Gen.equal(o.Gen) && f.Kill.equal(o.Kill) && f.In.equal(o.In) && f.Out.equal(o.Out)
}

func (f *ReachingFacts) clone() *ReachingFacts {
	if f == nil {
		return nil
	}
	return &ReachingFacts{Gen: f.Gen.clone(), Kill: f.Kill.clone(), In: f.In.clone(), Out: f.Out.clone()}
}

// ReachingInfo is the per-block and per-instruction reaching-definitions
// result for one FunctionBlock.
type ReachingInfo struct {
	Function *cfgbuild.FunctionBlock
	Block    map[string]*ReachingFacts
	Instr    map[int]*ReachingFacts
}

// Equal reports structural equality of every block and instruction fact.
func (ri *ReachingInfo) Equal(o *ReachingInfo) bool {
	if ri == nil || o == nil {
		return ri == o
	}
	if len(ri.Block) != len(o.Block) || len(ri.Instr) != len(o.Instr) {
		return false
	}
	for k, f := range ri.Block {
		if !f.Equal(o.Block[k]) {
			return false
		}
	}
	for k, f := range ri.Instr {
		if !f.Equal(o.Instr[k]) {
			return false
		}
	}
	return true
}

func (ri *ReachingInfo) clone() *ReachingInfo {
	nb := make(map[string]*ReachingFacts, len(ri.Block))
	for k, f := range ri.Block {
		nb[k] = f.clone()
	}
	ni := make(map[int]*ReachingFacts, len(ri.Instr))
	for k, f := range ri.Instr {
		ni[k] = f.clone()
	}
	return &ReachingInfo{Function: ri.Function, Block: nb, Instr: ni}
}

// siteVar names one bit of the reaching-definitions domain: the (variable,
// definition-site) pair a single bit stands for. DefSite alone is not
// enough to key the domain, since a chained assignment ("a = b = 1")
// defines two variables at the same (block, line).
type siteVar struct {
	Site DefSite
	Var  string
}

// siteDomain assigns a stable bit index to every (variable, definition-site)
// pair in a function, the way the teacher's genKillBitsets/okills indexes
// every definition into one flat bitset space rather than nesting a set per
// variable.
type siteDomain struct {
	order []siteVar
	index map[siteVar]uint
}

func buildSiteDomain(fb *cfgbuild.FunctionBlock) *siteDomain {
	d := &siteDomain{index: map[siteVar]uint{}}
	for _, b := range cfgbuild.Reachable(fb.Block) {
		for _, instr := range b.Instructions() {
			for v := range instr.Defined {
				sv := siteVar{DefSite{Block: b.Label, Line: instr.LineNo}, v}
				if _, ok := d.index[sv]; !ok {
					d.index[sv] = uint(len(d.order))
					d.order = append(d.order, sv)
				}
			}
		}
	}
	return d
}

func (d *siteDomain) indexOf(sv siteVar) uint { return d.index[sv] }

// varMasks returns, for every variable in the domain, the bitset of every
// site index at which that variable is ever defined in the function — the
// bitset analogue of funcGen's "every (block, line) pair that defines v".
func (d *siteDomain) varMasks() map[string]*bitset.BitSet {
	out := map[string]*bitset.BitSet{}
	for i, sv := range d.order {
		m := out[sv.Var]
		if m == nil {
			m = new(bitset.BitSet)
			out[sv.Var] = m
		}
		m.Set(uint(i))
	}
	return out
}

// siteSet maps bits from bs back to the VarSites mapping they represent.
func (d *siteDomain) siteSet(bs *bitset.BitSet) VarSites {
	out := newVarSites()
	for i, ok := uint(0), true; ok; i++ {
		if i, ok = bs.NextSet(i); ok {
			sv := d.order[i]
			s := out.get(sv.Var)
			if s == nil {
				s = SiteSet{}
			}
			s[sv.Site] = true
			out.set(sv.Var, s)
		}
	}
	return out
}

// ReachingDefinitions runs the forward, union-confluence reaching
// definitions analysis over fb. GEN/KILL/IN/OUT are tracked as
// bitset.BitSet over the function's flat definition-site domain, the way
// the teacher's genKillBitsets/reachingDefBitsets do over statement
// indices, then mapped back to the VarSites result shape.
func ReachingDefinitions(fb *cfgbuild.FunctionBlock) *ReachingInfo {
	blocks := cfgbuild.Reachable(fb.Block)
	dom := buildSiteDomain(fb)
	masks := dom.varMasks()

	info := &ReachingInfo{Function: fb, Block: map[string]*ReachingFacts{}, Instr: map[int]*ReachingFacts{}}

	// Seed block-level gen/kill. Block gen is the *last* definition of
	// each variable within the block (later instructions overwrite
	// earlier ones as we scan in line order).
	gen := map[string]*bitset.BitSet{}
	kill := map[string]*bitset.BitSet{}
	for _, b := range blocks {
		lastSite := map[string]uint{}
		for _, instr := range b.Instructions() {
			for v := range instr.Defined {
				lastSite[v] = dom.indexOf(siteVar{DefSite{Block: b.Label, Line: instr.LineNo}, v})
			}
		}
		g := new(bitset.BitSet)
		for _, idx := range lastSite {
			g.Set(idx)
		}
		k := new(bitset.BitSet)
		for v := range lastSite {
			k.InPlaceUnion(masks[v])
		}
		gen[b.Label] = g
		kill[b.Label] = k.Difference(g)
	}

	// Iterate to a fixed point: in(B) = U out(pred); out(B) = gen(B) U
	// (in(B) - kill(B)).
	in := map[string]*bitset.BitSet{}
	out := map[string]*bitset.BitSet{}
	for _, b := range blocks {
		in[b.Label] = new(bitset.BitSet)
		out[b.Label] = new(bitset.BitSet)
	}
	for {
		changed := false
		for _, b := range blocks {
			ib := new(bitset.BitSet)
			for _, p := range b.Predecessors() {
				ib.InPlaceUnion(out[p.Label])
			}
			ob := gen[b.Label].Union(ib.Difference(kill[b.Label]))

			if !ib.Equal(in[b.Label]) || !ob.Equal(out[b.Label]) {
				changed = true
			}
			in[b.Label] = ib
			out[b.Label] = ob
		}
		if !changed {
			break
		}
	}

	for _, b := range blocks {
		info.Block[b.Label] = &ReachingFacts{
			Gen:  dom.siteSet(gen[b.Label]),
			Kill: dom.siteSet(kill[b.Label]),
			In:   dom.siteSet(in[b.Label]),
			Out:  dom.siteSet(out[b.Label]),
		}
	}

	// Sweep forward within each block, from the block's in, to derive
	// instruction-level facts.
	for _, b := range blocks {
		cur := in[b.Label]
		for _, instr := range b.Instructions() {
			definedHere := map[string]bool{}
			g := new(bitset.BitSet)
			for v := range instr.Defined {
				definedHere[v] = true
				g.Set(dom.indexOf(siteVar{DefSite{Block: b.Label, Line: instr.LineNo}, v}))
			}
			k := new(bitset.BitSet)
			for v := range definedHere {
				k.InPlaceUnion(masks[v])
			}
			k = k.Difference(g)

			o := g.Union(cur.Difference(k))

			info.Instr[instr.LineNo] = &ReachingFacts{
				Gen:  dom.siteSet(g),
				Kill: dom.siteSet(k),
				In:   dom.siteSet(cur),
				Out:  dom.siteSet(o),
			}
			cur = o
		}
	}

	return info
}
