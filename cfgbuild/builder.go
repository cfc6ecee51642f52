package cfgbuild

import (
	"github.com/godoctor/decompose/apperr"
	"github.com/godoctor/decompose/ast"
	"github.com/godoctor/decompose/source"
)

// builder walks one function body and accumulates instructions into
// blocks. Its fields mirror the state a statement-level CFG builder needs
// to thread through recursive descent: a cursor (the block instructions
// are currently being appended to; nil once a path is known dead), the
// innermost loop's guard/after blocks for break/continue, the line of the
// statement whose body is currently being emitted into, and the function's
// single exit block.
type builder struct {
	cur     *Block
	exit    *Block
	guard   *Block
	after   *Block
	control int // 0 = no active controlling statement
	meta    *source.Metadata
	counter *labelCounter
	maxLine int
	err     error
}

// Build constructs the FunctionBlock for fn, given the source metadata for
// the enclosing file and the BlockList's shared label counter. It returns
// an apperr.NestedFunctionRejected error if fn's body (at any depth) contains a
// nested function definition.
func (bl *BlockList) Build(fn *ast.FuncDef, meta *source.Metadata) (*FunctionBlock, error) {
	entry := newBlock(fn.Name)
	exit := newBlock(bl.counter.next())

	fb := &FunctionBlock{
		Block:     entry,
		Name:      fn.Name,
		Params:    append([]string{}, fn.Params...),
		Exit:      exit,
		FirstLine: fn.LineNo,
	}

	b := &builder{
		cur:     entry,
		exit:    exit,
		meta:    meta,
		counter: bl.counter,
		maxLine: fn.LineNo,
	}

	b.emit(fn.LineNo, KindFunctionHeader, nil, paramNames(fn.Params))
	b.buildBody(fn.Body)
	if b.err != nil {
		return nil, b.err
	}
	if b.cur != nil {
		link(b.cur, exit)
	}

	fb.LastLine = b.maxLine
	fb.BlankLines, fb.Comments, fb.Unimportant = classifyRange(meta, fb.FirstLine, fb.LastLine)

	bl.Functions = append(bl.Functions, fb)
	return fb, nil
}

func paramNames(params []string) VarSet {
	return newVarSet(params...)
}

func classifyRange(meta *source.Metadata, first, last int) (blank, comment, unimportant map[int]bool) {
	blank = map[int]bool{}
	comment = map[int]bool{}
	unimportant = map[int]bool{}
	for ln := first; ln <= last; ln++ {
		if meta.BlankLines[ln] {
			blank[ln] = true
			unimportant[ln] = true
		}
		if meta.Comments[ln] {
			comment[ln] = true
			unimportant[ln] = true
		}
	}
	return blank, comment, unimportant
}

func (b *builder) newBlock() *Block {
	blk := newBlock(b.counter.next())
	return blk
}

// emit appends an instruction to the current block, if one is live (a nil
// cursor means the preceding statements were unreachable, e.g. after a
// return, and are intentionally dropped from the graph).
func (b *builder) emit(line int, kind Kind, referenced, defined VarSet) *Instruction {
	if line > b.maxLine {
		b.maxLine = line
	}
	instr := &Instruction{
		LineNo:     line,
		Kind:       kind,
		Referenced: referenced,
		Defined:    defined,
		Control:    b.control,
	}
	if b.meta != nil {
		instr.Indentation = b.meta.LineIndent[line]
		if ml, ok := b.meta.Multiline[line]; ok {
			instr.Multiline = LineSet(ml).clone()
		}
	}
	if b.cur != nil {
		b.cur.addInstruction(instr)
	}
	return instr
}

func (b *builder) buildBody(stmts []ast.Stmt) {
	for _, s := range stmts {
		if b.err != nil {
			return
		}
		if b.cur == nil {
			return // remainder of this body is dead code; intentionally dropped
		}
		b.buildStmt(s)
	}
}

func (b *builder) buildStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.FuncDef:
		b.err = apperr.NestedFunctionRejected(s.LineNo)
	case *ast.Return:
		b.buildReturn(s)
	case *ast.Raise:
		b.buildRaise(s)
	case *ast.Pass:
		b.emit(s.LineNo, KindPass, nil, nil)
	case *ast.Break:
		b.buildBreak(s)
	case *ast.Continue:
		b.buildContinue(s)
	case *ast.If:
		b.buildIf(s)
	case *ast.For:
		b.buildFor(s)
	case *ast.While:
		b.buildWhile(s)
	case *ast.Try:
		b.buildTry(s)
	case *ast.Assign:
		ref, def := assignDefUse(s)
		b.emit(s.LineNo, KindNone, ref, def)
	case *ast.AugAssign:
		ref, def := augAssignDefUse(s)
		b.emit(s.LineNo, KindNone, ref, def)
	case *ast.ExprStmt:
		ref, def := exprStmtDefUse(s)
		b.emit(s.LineNo, KindNone, ref, def)
	}
}

func (b *builder) buildReturn(s *ast.Return) {
	instr := b.emit(s.LineNo, KindReturn, identNames(ast.Idents(s.Value)), nil)
	_ = instr
	if b.cur != nil {
		link(b.cur, b.exit)
	}
	b.cur = nil
}

func (b *builder) buildRaise(s *ast.Raise) {
	b.emit(s.LineNo, KindRaise, identNames(ast.Idents(s.Value)), nil)
	if b.cur != nil {
		link(b.cur, b.exit)
	}
	b.cur = nil
}

func (b *builder) buildBreak(s *ast.Break) {
	b.emit(s.LineNo, KindBreak, nil, nil)
	if b.cur != nil && b.after != nil {
		link(b.cur, b.after)
	}
	b.cur = nil
}

func (b *builder) buildContinue(s *ast.Continue) {
	b.emit(s.LineNo, KindContinue, nil, nil)
	if b.cur != nil && b.guard != nil {
		link(b.cur, b.guard)
	}
	b.cur = nil
}

// buildIf implements the structural rule in spec §4.B. An elif is just an
// ordinary nested *ast.If appearing as the sole statement of Orelse, so it
// is walked by the same recursive buildBody call that walks a plain else
// body; the only special case is whether to synthesize an Else marker
// instruction.
func (b *builder) buildIf(s *ast.If) {
	b.emit(s.LineNo, KindNone, identNames(ast.Idents(s.Test)), nil)
	entry := b.cur
	savedControl := b.control
	b.control = s.LineNo

	ifBody := b.newBlock()
	link(entry, ifBody)
	b.cur = ifBody
	b.buildBody(s.Body)
	thenEnd := b.cur

	haveElse := len(s.Orelse) > 0
	var elseEnd *Block
	if haveElse {
		elseBody := b.newBlock()
		link(entry, elseBody)
		b.cur = elseBody

		if !isElif(s.Orelse) {
			b.emitSyntheticElse(s)
		}
		b.buildBody(s.Orelse)
		elseEnd = b.cur
	}
	b.control = savedControl

	after := b.newBlock()
	if thenEnd != nil {
		link(thenEnd, after)
	}
	if haveElse {
		if elseEnd != nil {
			link(elseEnd, after)
		}
	} else {
		link(entry, after)
	}
	b.cur = after
}

func isElif(orelse []ast.Stmt) bool {
	if len(orelse) != 1 {
		return false
	}
	_, ok := orelse[0].(*ast.If)
	return ok
}

func (b *builder) emitSyntheticElse(s *ast.If) {
	b.emit(s.Orelse[0].Line()-1, KindElse, nil, nil)
}

func (b *builder) buildFor(s *ast.For) {
	guard := b.newBlock()
	link(b.cur, guard)
	b.cur = guard
	b.emit(s.LineNo, KindFor, identNames(ast.Idents(s.Iter)), identNames(ast.Idents(s.Target)))

	body := b.newBlock()
	after := b.newBlock()
	link(guard, body)
	link(guard, after)

	savedGuard, savedAfter, savedControl := b.guard, b.after, b.control
	b.guard, b.after, b.control = guard, after, s.LineNo

	b.cur = body
	b.buildBody(s.Body)
	if b.cur != nil {
		link(b.cur, guard)
	}

	b.guard, b.after, b.control = savedGuard, savedAfter, savedControl
	b.cur = after
}

func (b *builder) buildWhile(s *ast.While) {
	guard := b.newBlock()
	link(b.cur, guard)
	b.cur = guard
	b.emit(s.LineNo, KindWhile, identNames(ast.Idents(s.Test)), nil)

	body := b.newBlock()
	after := b.newBlock()
	link(guard, body)
	link(guard, after)

	savedGuard, savedAfter, savedControl := b.guard, b.after, b.control
	b.guard, b.after, b.control = guard, after, s.LineNo

	b.cur = body
	b.buildBody(s.Body)
	if b.cur != nil {
		link(b.cur, guard)
	}

	b.guard, b.after, b.control = savedGuard, savedAfter, savedControl
	b.cur = after
}

func (b *builder) buildTry(s *ast.Try) {
	entry := b.cur
	b.emit(s.LineNo, KindTry, nil, nil)
	savedControl := b.control
	b.control = s.LineNo

	tryBody := b.newBlock()
	link(entry, tryBody)
	b.cur = tryBody
	b.buildBody(s.Body)
	tryEnd := b.cur

	var handlerEnds []*Block
	for _, h := range s.Handlers {
		hBlock := b.newBlock()
		link(entry, hBlock)
		b.cur = hBlock

		var ref VarSet
		if h.Type != nil {
			ref = identNames(ast.Idents(h.Type))
		}
		var def VarSet
		if h.Name != "" {
			def = newVarSet(h.Name)
		}
		b.control = h.LineNo
		b.emit(h.LineNo, KindExcept, ref, def)
		b.buildBody(h.Body)
		if b.cur != nil {
			handlerEnds = append(handlerEnds, b.cur)
		}
	}
	b.control = savedControl

	after := b.newBlock()
	if tryEnd != nil {
		link(tryEnd, after)
	}
	for _, he := range handlerEnds {
		link(he, after)
	}
	b.cur = after

	if len(s.Finally) > 0 {
		b.control = s.LineNo
		b.emit(s.FinallyLine, KindFinally, nil, nil)
		b.buildBody(s.Finally)
		b.control = savedControl
	}
}

func identNames(idents []*ast.Name) VarSet {
	if len(idents) == 0 {
		return nil
	}
	names := make([]string, len(idents))
	for i, id := range idents {
		names[i] = id.Ident
	}
	return newVarSet(names...)
}
