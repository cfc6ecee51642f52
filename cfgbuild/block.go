package cfgbuild

import (
	"sort"
	"strconv"
)

// edgeSet is an insertion-ordered set of block labels, used for both the
// successor and predecessor maps so iteration order is deterministic
//.
type edgeSet struct {
	order  []string
	byName map[string]*Block
}

func newEdgeSet() *edgeSet {
	return &edgeSet{byName: map[string]*Block{}}
}

func (e *edgeSet) add(b *Block) {
	if _, ok := e.byName[b.Label]; ok {
		return
	}
	e.order = append(e.order, b.Label)
	e.byName[b.Label] = b
}

func (e *edgeSet) remove(label string) {
	if _, ok := e.byName[label]; !ok {
		return
	}
	delete(e.byName, label)
	for i, l := range e.order {
		if l == label {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (e *edgeSet) has(label string) bool {
	_, ok := e.byName[label]
	return ok
}

func (e *edgeSet) list() []*Block {
	out := make([]*Block, 0, len(e.order))
	for _, l := range e.order {
		out = append(out, e.byName[l])
	}
	return out
}

func (e *edgeSet) labels() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Block is a basic block: an ordered map from line to Instruction, plus
// ordered successor/predecessor links keyed by block label.
type Block struct {
	Label  string
	instrs map[int]*Instruction
	succs  *edgeSet
	preds  *edgeSet
}

func newBlock(label string) *Block {
	return &Block{
		Label:  label,
		instrs: map[int]*Instruction{},
		succs:  newEdgeSet(),
		preds:  newEdgeSet(),
	}
}

// Instruction returns the instruction at line, if any.
func (b *Block) Instruction(line int) (*Instruction, bool) {
	i, ok := b.instrs[line]
	return i, ok
}

// Lines returns this block's instruction lines in ascending order.
func (b *Block) Lines() []int {
	out := make([]int, 0, len(b.instrs))
	for l := range b.instrs {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Instructions returns this block's instructions ordered by line.
func (b *Block) Instructions() []*Instruction {
	lines := b.Lines()
	out := make([]*Instruction, len(lines))
	for i, l := range lines {
		out[i] = b.instrs[l]
	}
	return out
}

// IsEmpty reports whether the block carries no instructions.
func (b *Block) IsEmpty() bool { return len(b.instrs) == 0 }

// Successors returns this block's successors in link order.
func (b *Block) Successors() []*Block { return b.succs.list() }

// Predecessors returns this block's predecessors in link order.
func (b *Block) Predecessors() []*Block { return b.preds.list() }

func (b *Block) addInstruction(instr *Instruction) {
	b.instrs[instr.LineNo] = instr
}

// link adds a successor/predecessor edge between from and to transactionally.
// A block is never linked as its own successor.
func link(from, to *Block) {
	if from == nil || to == nil || from == to {
		return
	}
	from.succs.add(to)
	to.preds.add(from)
}

// unlink removes the edge between from and to, on both sides.
func unlink(from, to *Block) {
	if from == nil || to == nil {
		return
	}
	from.succs.remove(to.Label)
	to.preds.remove(from.Label)
}

// FunctionBlock is the entry block of one function: its label equals the
// function name, and it additionally records the function's blank/comment
// line sets.
type FunctionBlock struct {
	*Block
	Name        string
	Params      []string
	Exit        *Block
	FirstLine   int
	LastLine    int
	BlankLines  map[int]bool
	Comments    map[int]bool
	Unimportant map[int]bool
}

// BlockList is an ordered collection of FunctionBlocks, one per top-level
// function or method found in the input, sharing one label counter.
type BlockList struct {
	Functions []*FunctionBlock
	counter   *labelCounter
}

// NewBlockList creates an empty BlockList with a fresh label counter.
func NewBlockList() *BlockList {
	return &BlockList{counter: &labelCounter{}}
}

// ResetCounter resets the label counter to zero, for deterministic tests
//.
func (bl *BlockList) ResetCounter() { bl.counter.reset() }

type labelCounter struct{ n int }

func (c *labelCounter) next() string {
	c.n++
	return "L" + strconv.Itoa(c.n)
}

func (c *labelCounter) reset() { c.n = 0 }
