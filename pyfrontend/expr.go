package pyfrontend

import "github.com/godoctor/decompose/ast"

// exprParser is a small precedence-climbing recursive-descent parser over
// one logical line's already-lexed tokens.
type exprParser struct {
	toks []token
	pos  int
}

// parseExprString lexes and parses s as a single expression. Constructs
// this parser doesn't understand degrade to *ast.Literal rather than
// failing, consistent with the package's best-effort scope.
func parseExprString(s string) ast.Expr {
	ep := &exprParser{toks: tokenize(s)}
	if ep.cur().kind == tokEOF {
		return &ast.Literal{}
	}
	return ep.parseOr()
}

func (e *exprParser) cur() token {
	if e.pos >= len(e.toks) {
		return token{kind: tokEOF}
	}
	return e.toks[e.pos]
}

func (e *exprParser) advance() token {
	t := e.cur()
	if e.pos < len(e.toks) {
		e.pos++
	}
	return t
}

func (e *exprParser) isOp(s string) bool {
	t := e.cur()
	return t.kind == tokOp && t.text == s
}

func (e *exprParser) isKeyword(s string) bool {
	t := e.cur()
	return t.kind == tokIdent && t.text == s
}

func (e *exprParser) parseOr() ast.Expr {
	first := e.parseAnd()
	values := []ast.Expr{first}
	for e.isKeyword("or") {
		e.advance()
		values = append(values, e.parseAnd())
	}
	if len(values) == 1 {
		return first
	}
	return &ast.BoolOp{Values: values}
}

func (e *exprParser) parseAnd() ast.Expr {
	first := e.parseNot()
	values := []ast.Expr{first}
	for e.isKeyword("and") {
		e.advance()
		values = append(values, e.parseNot())
	}
	if len(values) == 1 {
		return first
	}
	return &ast.BoolOp{Values: values}
}

func (e *exprParser) parseNot() ast.Expr {
	if e.isKeyword("not") {
		e.advance()
		return &ast.UnaryOp{X: e.parseNot()}
	}
	return e.parseComparison()
}

var compareOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

func (e *exprParser) parseComparison() ast.Expr {
	left := e.parseArith()
	for {
		t := e.cur()
		if t.kind == tokOp && compareOps[t.text] {
			e.advance()
			right := e.parseArith()
			left = &ast.BinOp{X: left, Y: right}
			continue
		}
		if e.isKeyword("in") {
			e.advance()
			right := e.parseArith()
			left = &ast.BinOp{X: left, Y: right}
			continue
		}
		if e.isKeyword("not") && e.pos+1 < len(e.toks) && e.toks[e.pos+1].text == "in" {
			e.advance()
			e.advance()
			right := e.parseArith()
			left = &ast.BinOp{X: left, Y: right}
			continue
		}
		if e.isKeyword("is") {
			e.advance()
			if e.isKeyword("not") {
				e.advance()
			}
			right := e.parseArith()
			left = &ast.BinOp{X: left, Y: right}
			continue
		}
		break
	}
	return left
}

func (e *exprParser) parseArith() ast.Expr {
	left := e.parseTerm()
	for e.isOp("+") || e.isOp("-") {
		e.advance()
		right := e.parseTerm()
		left = &ast.BinOp{X: left, Y: right}
	}
	return left
}

func (e *exprParser) parseTerm() ast.Expr {
	left := e.parseFactor()
	for e.isOp("*") || e.isOp("/") || e.isOp("//") || e.isOp("%") {
		e.advance()
		right := e.parseFactor()
		left = &ast.BinOp{X: left, Y: right}
	}
	return left
}

func (e *exprParser) parseFactor() ast.Expr {
	if e.isOp("+") || e.isOp("-") || e.isOp("~") {
		e.advance()
		return &ast.UnaryOp{X: e.parseFactor()}
	}
	return e.parsePower()
}

func (e *exprParser) parsePower() ast.Expr {
	base := e.parsePostfix()
	if e.isOp("**") {
		e.advance()
		exp := e.parseFactor()
		return &ast.BinOp{X: base, Y: exp}
	}
	return base
}

func (e *exprParser) parsePostfix() ast.Expr {
	atom := e.parseAtom()
	for {
		switch {
		case e.isOp("."):
			e.advance()
			name := e.advance().text
			atom = &ast.Attribute{Value: atom, Attr: name}
		case e.isOp("("):
			e.advance()
			args := e.parseArgList()
			if e.isOp(")") {
				e.advance()
			}
			atom = &ast.Call{Func: atom, Args: args}
		case e.isOp("["):
			e.advance()
			idx := e.parseSubscriptIndex()
			if e.isOp("]") {
				e.advance()
			}
			atom = &ast.Subscript{Value: atom, Index: idx}
		default:
			return atom
		}
	}
}

// parseSubscriptIndex parses the contents of a `[...]` trailer. Slice
// syntax (`a:b:c`) is not modeled in the AST; only the first bound, if any,
// is kept as Index, which is enough for def/use extraction (the omitted
// bounds are ordinary expressions too, but dropping them only under-counts
// references in the rare slicing case).
func (e *exprParser) parseSubscriptIndex() ast.Expr {
	if e.isOp(":") {
		return &ast.Literal{}
	}
	return e.parseOr()
}

func (e *exprParser) parseArgList() []ast.Expr {
	if e.isOp(")") {
		return nil
	}
	var args []ast.Expr
	for {
		if e.cur().kind == tokIdent && e.pos+1 < len(e.toks) && e.toks[e.pos+1].kind == tokOp && e.toks[e.pos+1].text == "=" {
			e.advance()
			e.advance()
		}
		args = append(args, e.parseOr())
		if e.isOp(",") {
			e.advance()
			continue
		}
		break
	}
	return args
}

func (e *exprParser) parseAtom() ast.Expr {
	t := e.cur()
	switch {
	case t.kind == tokIdent:
		e.advance()
		if t.text == "True" || t.text == "False" || t.text == "None" {
			return &ast.Literal{}
		}
		return &ast.Name{Ident: t.text}
	case t.kind == tokNumber || t.kind == tokString:
		e.advance()
		return &ast.Literal{}
	case t.kind == tokOp && t.text == "(":
		e.advance()
		if e.isOp(")") {
			e.advance()
			return &ast.CompositeLit{}
		}
		first := e.parseOr()
		if e.isOp(",") {
			elts := []ast.Expr{first}
			for e.isOp(",") {
				e.advance()
				if e.isOp(")") {
					break
				}
				elts = append(elts, e.parseOr())
			}
			if e.isOp(")") {
				e.advance()
			}
			return &ast.CompositeLit{Elts: elts}
		}
		if e.isOp(")") {
			e.advance()
		}
		return &ast.Paren{X: first}
	case t.kind == tokOp && t.text == "[":
		e.advance()
		var elts []ast.Expr
		for !e.isOp("]") && e.cur().kind != tokEOF {
			elts = append(elts, e.parseOr())
			if e.isOp(",") {
				e.advance()
				continue
			}
			break
		}
		if e.isOp("]") {
			e.advance()
		}
		return &ast.CompositeLit{Elts: elts}
	case t.kind == tokOp && t.text == "{":
		depth := 0
		for {
			ct := e.advance()
			if ct.kind == tokEOF {
				break
			}
			if ct.kind == tokOp && ct.text == "{" {
				depth++
			}
			if ct.kind == tokOp && ct.text == "}" {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		return &ast.Literal{}
	default:
		e.advance()
		return &ast.Literal{}
	}
}
