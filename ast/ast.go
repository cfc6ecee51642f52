// Package ast defines the tree shape the decomposition engine consumes.
//
// The engine is deliberately independent of any one source language's
// concrete grammar: a thin frontend is expected to parse real source text
// and produce this tree. The
// shape below follows the classic statement/expression split used by most
// scripting-language grammars (test/body/orelse for conditionals, a
// handler list for exception clauses, load/store context for names) rather
// than any particular Go AST.
package ast

// Stmt is a statement node. Every concrete statement type below implements
// it. Line is 1-based, matching the source text.
type Stmt interface {
	Line() int
}

// Expr is an expression node.
type Expr interface {
	exprNode()
}

// FuncDef is a top-level function or method definition. Nested FuncDefs
// inside Body are rejected by the CFG builder (see cfgbuild).
type FuncDef struct {
	LineNo int
	Name   string
	Params []string
	Body   []Stmt
}

func (f *FuncDef) Line() int { return f.LineNo }

// If represents `if Test: Body else: Orelse`. Orelse may contain a single
// *If (an "elif") or arbitrary statements (a plain "else"); nil Orelse
// means there is no else-clause.
type If struct {
	LineNo int
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (s *If) Line() int { return s.LineNo }

// For represents `for Target in Iter: Body`.
type For struct {
	LineNo int
	Target Expr
	Iter   Expr
	Body   []Stmt
}

func (s *For) Line() int { return s.LineNo }

// While represents `while Test: Body`.
type While struct {
	LineNo int
	Test   Expr
	Body   []Stmt
}

func (s *While) Line() int { return s.LineNo }

// ExceptHandler is one `except [Type [as Name]]: Body` clause.
type ExceptHandler struct {
	LineNo int
	Type   Expr // nil for a bare `except:`
	Name   string
	Body   []Stmt
}

// Try represents `try: Body` plus zero or more Handlers and an optional
// Finally block.
type Try struct {
	LineNo   int
	Body     []Stmt
	Handlers []*ExceptHandler
	Finally  []Stmt
	// FinallyLine is the line of the "finally:" keyword, used to place the
	// synthetic Finally marker instruction. Zero when there is no finally
	// clause.
	FinallyLine int
}

func (s *Try) Line() int { return s.LineNo }

// Return represents `return [Value]`.
type Return struct {
	LineNo int
	Value  Expr // nil for a bare return
}

func (s *Return) Line() int { return s.LineNo }

// Raise represents `raise [Value]`.
type Raise struct {
	LineNo int
	Value  Expr
}

func (s *Raise) Line() int { return s.LineNo }

// Pass represents a no-op statement.
type Pass struct{ LineNo int }

func (s *Pass) Line() int { return s.LineNo }

// Break represents a loop-break statement.
type Break struct{ LineNo int }

func (s *Break) Line() int { return s.LineNo }

// Continue represents a loop-continue statement.
type Continue struct{ LineNo int }

func (s *Continue) Line() int { return s.LineNo }

// Assign represents `Targets... = Value` (including chained assignment,
// e.g. `i = j = i + 1`, which is why Targets is a slice).
type Assign struct {
	LineNo  int
	Targets []Expr
	Value   Expr
}

func (s *Assign) Line() int { return s.LineNo }

// AugAssign represents `Target Op= Value` (e.g. `x += 1`). It both defines
// and references Target.
type AugAssign struct {
	LineNo int
	Target Expr
	Op     string
	Value  Expr
}

func (s *AugAssign) Line() int { return s.LineNo }

// ExprStmt is an expression evaluated for effect, e.g. a bare call such as
// `a.append(x)`.
type ExprStmt struct {
	LineNo int
	Value  Expr
}

func (s *ExprStmt) Line() int { return s.LineNo }

/* -=-=- Expressions -=-=- */

// Name is an identifier reference. Store is true when the identifier is
// being written (an assignment target), false when it is read.
type Name struct {
	Ident string
	Store bool
}

func (*Name) exprNode() {}

// Attribute is `Value.Attr`, e.g. `x.append`.
type Attribute struct {
	Value Expr
	Attr  string
}

func (*Attribute) exprNode() {}

// Subscript is `Value[Index]`. Store is true for a subscript assignment
// target (`x[i] = ...`), which references Index and defines Value.
type Subscript struct {
	Value Expr
	Index Expr
	Store bool
}

func (*Subscript) exprNode() {}

// Call is `Func(Args...)`.
type Call struct {
	Func Expr
	Args []Expr
}

func (*Call) exprNode() {}

// BinOp is a binary expression, e.g. `X + Y` or `X < Y`.
type BinOp struct {
	X, Y Expr
}

func (*BinOp) exprNode() {}

// BoolOp is a boolean combination of more than two operands, e.g.
// `a and b and c`.
type BoolOp struct {
	Values []Expr
}

func (*BoolOp) exprNode() {}

// UnaryOp is a unary expression, e.g. `not X` or `-X`.
type UnaryOp struct {
	X Expr
}

func (*UnaryOp) exprNode() {}

// Paren is a parenthesized expression, preserved so multiline detection
// over the source text lines up with what the scanner observed.
type Paren struct {
	X Expr
}

func (*Paren) exprNode() {}

// Tuple/List/composite literal: a fixed sequence of element expressions.
type CompositeLit struct {
	Elts []Expr
}

func (*CompositeLit) exprNode() {}

// Literal is a constant with no referenced identifiers (numbers, strings,
// True/False/None).
type Literal struct{}

func (*Literal) exprNode() {}

// Idents returns every Name found while walking expr, recursively.
// Underscore placeholders ("_") are omitted, mirroring the convention that
// "_" never counts as a real variable reference.
func Idents(expr Expr) []*Name {
	if expr == nil {
		return nil
	}
	var out []*Name
	var walk func(Expr)
	walk = func(e Expr) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *Name:
			if n.Ident != "_" {
				out = append(out, n)
			}
		case *Attribute:
			walk(n.Value)
		case *Subscript:
			walk(n.Value)
			walk(n.Index)
		case *Call:
			walk(n.Func)
			for _, a := range n.Args {
				walk(a)
			}
		case *BinOp:
			walk(n.X)
			walk(n.Y)
		case *BoolOp:
			for _, v := range n.Values {
				walk(v)
			}
		case *UnaryOp:
			walk(n.X)
		case *Paren:
			walk(n.X)
		case *CompositeLit:
			for _, el := range n.Elts {
				walk(el)
			}
		case *Literal:
			// no identifiers
		}
	}
	walk(expr)
	return out
}

// BaseIdent returns the leftmost identifier a selector/subscript chain is
// rooted at, e.g. "x" for `x.append` or `x[i]`. It returns "" if expr does
// not resolve to a simple name chain.
func BaseIdent(expr Expr) string {
	switch n := expr.(type) {
	case *Name:
		return n.Ident
	case *Attribute:
		return BaseIdent(n.Value)
	case *Subscript:
		return BaseIdent(n.Value)
	case *Paren:
		return BaseIdent(n.X)
	default:
		return ""
	}
}

// MutatingMethods is the set of attribute-call method names treated as a
// mutation of their receiver, e.g. x.append(...).
var MutatingMethods = map[string]bool{
	"append": true,
	"insert": true,
	"extend": true,
	"pop":    true,
}
