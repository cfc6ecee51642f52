// Package condense implements the four structural CFG rewrites (component
// E of the decomposition engine): fold redundant branches, remove an empty
// block, combine a linear chain, and hoist a branch past an empty block
//. They are applied repeatedly, in that order, over a DFS walk
// of the graph, until a full pass makes no further change.
//
// Grounded on Design Note "Cyclic graphs with symmetric links": blocks
// live in a flat arena keyed by label (cfgbuild.Block), and every
// mutating operation updates both the successor and predecessor side
// transactionally (see cfgbuild.Link/Unlink/ReplaceSuccessor).
package condense

import "github.com/godoctor/decompose/cfgbuild"

// Condense mutates fb in place, applying the four rewrites to a fixed
// point. The function's entry block and its distinguished exit sink are
// never folded away or absorbed, preserving the single-exit invariant
//. Callers that need to keep fb's original graph
// intact (the slicer, in particular) must call FunctionBlock.Clone first.
func Condense(fb *cfgbuild.FunctionBlock) {
	for {
		changed := false
		for _, b := range cfgbuild.Reachable(fb.Block) {
			if isOrphaned(fb, b) {
				continue
			}
			if foldRedundantBranches(b) {
				changed = true
			}
			if removeEmptyBlock(fb, b) {
				changed = true
			}
			if combineLinearChain(fb, b) {
				changed = true
			}
			if hoistBranchPastEmpty(fb, b) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// isOrphaned reports whether b was disconnected from the graph by an
// earlier rewrite within the same pass (and is not the entry, which is
// always reachable by definition).
func isOrphaned(fb *cfgbuild.FunctionBlock, b *cfgbuild.Block) bool {
	return b != fb.Block && b != fb.Exit && len(b.Predecessors()) == 0 && len(b.Successors()) == 0
}

// foldRedundantBranches destroys every successor of b but the first when
// b has at least two successors and they are all structurally equal. Equality ignores labels but requires identical instruction
// line numbers.
func foldRedundantBranches(b *cfgbuild.Block) bool {
	succs := b.Successors()
	if len(succs) < 2 {
		return false
	}
	first := succs[0]
	for _, s := range succs[1:] {
		if !structurallyEqual(first, s, map[[2]string]bool{}) {
			return false
		}
	}
	for _, s := range succs[1:] {
		cfgbuild.Unlink(b, s)
		if len(s.Predecessors()) == 0 {
			isolateUnreachable(s, map[string]bool{})
		}
	}
	return true
}

// isolateUnreachable disconnects b's outgoing edges and recurses into any
// successor that becomes predecessor-less as a result, so a destroyed
// branch doesn't leave dangling references into blocks nothing reaches
// anymore.
func isolateUnreachable(b *cfgbuild.Block, seen map[string]bool) {
	if seen[b.Label] {
		return
	}
	seen[b.Label] = true
	succs := b.Successors()
	b.Isolate()
	for _, s := range succs {
		if len(s.Predecessors()) == 0 {
			isolateUnreachable(s, seen)
		}
	}
}

// structurallyEqual compares a and b recursively through their successor
// graphs without regard to label identity. visiting records in-progress
// comparisons so that cyclic graphs (loop back-edges) terminate: revisiting
// a pair already being compared is treated as confirming, not refuting,
// equality (a standard coinductive bisimulation hypothesis).
func structurallyEqual(a, b *cfgbuild.Block, visiting map[[2]string]bool) bool {
	key := [2]string{a.Label, b.Label}
	if visiting[key] {
		return true
	}
	visiting[key] = true

	al, bl := a.Lines(), b.Lines()
	if len(al) != len(bl) {
		return false
	}
	for i := range al {
		if al[i] != bl[i] {
			return false
		}
		ia, _ := a.Instruction(al[i])
		ib, _ := b.Instruction(bl[i])
		if !ia.Equal(ib) {
			return false
		}
	}

	ap, bp := a.Predecessors(), b.Predecessors()
	if len(ap) != len(bp) {
		return false
	}

	as, bs := a.Successors(), b.Successors()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !structurallyEqual(as[i], bs[i], visiting) {
			return false
		}
	}
	return true
}

// removeEmptyBlock re-parents every predecessor of b to point directly at
// b's sole successor and unlinks b, provided b carries no instructions and
// is neither the function's entry nor its distinguished exit.
func removeEmptyBlock(fb *cfgbuild.FunctionBlock, b *cfgbuild.Block) bool {
	if b == fb.Block || b == fb.Exit {
		return false
	}
	if !b.IsEmpty() {
		return false
	}
	succs := b.Successors()
	if len(succs) != 1 {
		return false
	}
	succ := succs[0]
	for _, p := range b.Predecessors() {
		p.ReplaceSuccessor(b, succ)
	}
	cfgbuild.Unlink(b, succ)
	return true
}

// combineLinearChain moves b's sole successor's instructions into b and
// rewires b directly to that successor's successors, when the successor
// has no other predecessor. The distinguished exit sink
// is never absorbed this way, preserving the single-exit, no-instruction
// invariant on it.
func combineLinearChain(fb *cfgbuild.FunctionBlock, b *cfgbuild.Block) bool {
	succs := b.Successors()
	if len(succs) != 1 {
		return false
	}
	s := succs[0]
	if s == b || s == fb.Exit {
		return false
	}
	if len(s.Predecessors()) != 1 {
		return false
	}

	for _, instr := range s.Instructions() {
		b.AddInstruction(instr)
	}
	grandchildren := s.Successors()
	cfgbuild.Unlink(b, s)
	for _, g := range grandchildren {
		cfgbuild.Unlink(s, g)
		cfgbuild.Link(b, g)
	}
	return true
}

// hoistBranchPastEmpty adds a direct edge from b to each successor of its
// sole successor, when that successor is empty and itself branches two or
// more ways. The empty block is left in place; later
// passes may remove it once nothing of interest still depends on routing
// through it.
func hoistBranchPastEmpty(fb *cfgbuild.FunctionBlock, b *cfgbuild.Block) bool {
	succs := b.Successors()
	if len(succs) != 1 {
		return false
	}
	s := succs[0]
	if !s.IsEmpty() {
		return false
	}
	grandchildren := s.Successors()
	if len(grandchildren) <= 1 {
		return false
	}
	changed := false
	for _, g := range grandchildren {
		if g != b && !b.HasSuccessor(g) {
			cfgbuild.Link(b, g)
			changed = true
		}
	}
	return changed
}
