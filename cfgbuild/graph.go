package cfgbuild

import "strconv"

// LabelCounter generates fresh block labels. Spec §5/§9 call for this to be
// scoped per analysis (one per BlockList, and one per Slice clone) rather
// than a single process-wide counter, so that independent analyses never
// collide and tests can reset it deterministically.
type LabelCounter struct{ n int }

// NewLabelCounter returns a counter starting at zero.
func NewLabelCounter() *LabelCounter { return &LabelCounter{} }

// Next returns the next fresh label, e.g. "L7".
func (c *LabelCounter) Next() string {
	c.n++
	return "L" + strconv.Itoa(c.n)
}

// Reset zeroes the counter, for deterministic tests.
func (c *LabelCounter) Reset() { c.n = 0 }

// NewBlock creates a fresh, empty generic Block with the given label. Used
// by the condenser and slicer, which build and rewrite graphs outside of
// BlockList.Build.
func NewBlock(label string) *Block { return newBlock(label) }

// AddInstruction appends instr to b, keyed by its line.
func (b *Block) AddInstruction(instr *Instruction) { b.addInstruction(instr) }

// RemoveInstruction deletes the instruction at line, if present.
func (b *Block) RemoveInstruction(line int) { delete(b.instrs, line) }

// HasSuccessor reports whether o is among b's successors.
func (b *Block) HasSuccessor(o *Block) bool { return b.succs.has(o.Label) }

// HasPredecessor reports whether o is among b's predecessors.
func (b *Block) HasPredecessor(o *Block) bool { return b.preds.has(o.Label) }

// Link adds a successor/predecessor edge between from and to, updating
// both sides transactionally. A block is never linked as its own
// successor.
func Link(from, to *Block) { link(from, to) }

// Unlink removes the edge between from and to, on both sides.
func Unlink(from, to *Block) { unlink(from, to) }

// ReplaceSuccessor rewires b's edge to old so that it instead points at
// replacement, leaving every other edge untouched. A no-op if old is not
// currently a successor of b.
func (b *Block) ReplaceSuccessor(old, replacement *Block) {
	if !b.succs.has(old.Label) {
		return
	}
	unlink(b, old)
	link(b, replacement)
}

// ReplacePredecessor is the predecessor-side analogue of ReplaceSuccessor.
func (b *Block) ReplacePredecessor(old, replacement *Block) {
	if !b.preds.has(old.Label) {
		return
	}
	unlink(old, b)
	link(replacement, b)
}

// Isolate disconnects b from every predecessor and successor it currently
// has, on both sides. b is left with no instructions removed, only edges.
func (b *Block) Isolate() {
	for _, p := range b.Predecessors() {
		unlink(p, b)
	}
	for _, s := range b.Successors() {
		unlink(b, s)
	}
}

// Reachable returns every block reachable from entry via successor edges,
// in DFS preorder, visiting each block exactly once. Used both by the
// condenser (to walk the graph each pass) and by Clone (to assign fresh
// labels that preserve the original's relative order).
func Reachable(entry *Block) []*Block {
	seen := map[string]bool{}
	var order []*Block
	var walk func(b *Block)
	walk = func(b *Block) {
		if b == nil || seen[b.Label] {
			return
		}
		seen[b.Label] = true
		order = append(order, b)
		for _, s := range b.Successors() {
			walk(s)
		}
	}
	walk(entry)
	return order
}

func cloneIntBoolMap(m map[int]bool) map[int]bool {
	if m == nil {
		return nil
	}
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of fb with fresh blocks, fresh instructions and
// a fresh, independent label counter whose labels preserve the original's
// topological order relative to the entry. fb itself is never observably mutated by callers
// that only ever rewrite the clone, which is how the slicer uses this.
func (fb *FunctionBlock) Clone() *FunctionBlock {
	order := Reachable(fb.Block)
	counter := NewLabelCounter()

	fresh := make(map[string]*Block, len(order))
	for _, b := range order {
		label := b.Label
		if b != fb.Block {
			label = counter.Next()
		}
		nb := newBlock(label)
		for _, instr := range b.Instructions() {
			nb.addInstruction(instr.clone())
		}
		fresh[b.Label] = nb
	}
	for _, b := range order {
		nb := fresh[b.Label]
		for _, s := range b.Successors() {
			if ns, ok := fresh[s.Label]; ok {
				link(nb, ns)
			}
		}
	}

	var exit *Block
	if fb.Exit != nil {
		exit = fresh[fb.Exit.Label]
	}
	return &FunctionBlock{
		Block:       fresh[fb.Block.Label],
		Name:        fb.Name,
		Params:      append([]string{}, fb.Params...),
		Exit:        exit,
		FirstLine:   fb.FirstLine,
		LastLine:    fb.LastLine,
		BlankLines:  cloneIntBoolMap(fb.BlankLines),
		Comments:    cloneIntBoolMap(fb.Comments),
		Unimportant: cloneIntBoolMap(fb.Unimportant),
	}
}
