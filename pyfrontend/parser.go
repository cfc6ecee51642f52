package pyfrontend

import (
	"strings"

	"github.com/godoctor/decompose/ast"
)

// ParseFunctions extracts every top-level function and class method defined
// in text into ast.FuncDef trees. Class
// wrappers themselves have no AST representation here — only the methods
// they contain are returned, flattened alongside ordinary top-level
// functions. Constructs this parser does not recognize are skipped
// best-effort rather than causing a parse failure.
func ParseFunctions(text string) []*ast.FuncDef {
	lines := splitLogicalLines(text)
	p := &parser{lines: lines}

	var funcs []*ast.FuncDef
	for p.pos < len(p.lines) {
		ll := p.lines[p.pos]
		head := firstWord(ll.Text)
		switch {
		case head == "def":
			funcs = append(funcs, p.parseFuncDef())
		case head == "class":
			funcs = append(funcs, p.parseClassMethods()...)
		default:
			p.skipStatement(ll.Indent)
		}
	}
	return funcs
}

type parser struct {
	lines []logicalLine
	pos   int
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == ' ' || r == '(' || r == ':' {
			return s[:i]
		}
	}
	return s
}

// skipStatement consumes one statement at indent, including its suite if
// it has one, without interpreting it.
func (p *parser) skipStatement(indent int) {
	p.pos++
	if p.pos < len(p.lines) && p.lines[p.pos].Indent > indent {
		p.skipBlock(p.lines[p.pos].Indent)
	}
}

func (p *parser) skipBlock(indent int) {
	for p.pos < len(p.lines) && p.lines[p.pos].Indent == indent {
		p.skipStatement(indent)
	}
}

// parseClassMethods consumes a "class ...:" header and its suite, returning
// every *ast.FuncDef found directly inside the class body.
func (p *parser) parseClassMethods() []*ast.FuncDef {
	indent := p.lines[p.pos].Indent
	p.pos++
	if p.pos >= len(p.lines) || p.lines[p.pos].Indent <= indent {
		return nil
	}
	bodyIndent := p.lines[p.pos].Indent

	var methods []*ast.FuncDef
	for p.pos < len(p.lines) && p.lines[p.pos].Indent == bodyIndent {
		ll := p.lines[p.pos]
		if firstWord(ll.Text) == "def" {
			methods = append(methods, p.parseFuncDef())
		} else {
			p.skipStatement(bodyIndent)
		}
	}
	return methods
}

// parseBlock parses every statement at exactly indent until a shallower (or
// absent) line is found.
func (p *parser) parseBlock(indent int) []ast.Stmt {
	var out []ast.Stmt
	for p.pos < len(p.lines) && p.lines[p.pos].Indent == indent {
		out = append(out, p.parseStatement(indent))
	}
	return out
}

// parseSuite consumes the body of a compound statement whose header was
// just consumed at headerIndent: the body is whatever block follows at a
// deeper indentation.
func (p *parser) parseSuite(headerIndent int) []ast.Stmt {
	if p.pos >= len(p.lines) || p.lines[p.pos].Indent <= headerIndent {
		return nil
	}
	return p.parseBlock(p.lines[p.pos].Indent)
}

func trimHeader(text, keyword string) string {
	text = strings.TrimPrefix(text, keyword)
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ":")
	return strings.TrimSpace(text)
}

func (p *parser) parseStatement(indent int) ast.Stmt {
	ll := p.lines[p.pos]
	head := firstWord(ll.Text)

	switch head {
	case "def":
		return p.parseFuncDef()
	case "if":
		return p.parseIf(indent)
	case "for":
		return p.parseFor(indent)
	case "while":
		return p.parseWhile(indent)
	case "try":
		return p.parseTry(indent)
	case "return":
		p.pos++
		val := trimHeader(ll.Text, "return")
		var v ast.Expr
		if val != "" {
			v = parseExprString(val)
		}
		return &ast.Return{LineNo: ll.Line, Value: v}
	case "raise":
		p.pos++
		val := trimHeader(ll.Text, "raise")
		var v ast.Expr
		if val != "" {
			v = parseExprString(val)
		}
		return &ast.Raise{LineNo: ll.Line, Value: v}
	case "pass":
		p.pos++
		return &ast.Pass{LineNo: ll.Line}
	case "break":
		p.pos++
		return &ast.Break{LineNo: ll.Line}
	case "continue":
		p.pos++
		return &ast.Continue{LineNo: ll.Line}
	default:
		p.pos++
		return parseSimpleStatement(ll)
	}
}

func (p *parser) parseFuncDef() *ast.FuncDef {
	ll := p.lines[p.pos]
	header := trimHeader(ll.Text, "def")
	open := strings.Index(header, "(")
	closeParen := strings.LastIndex(header, ")")
	name := strings.TrimSpace(header[:open])
	var params []string
	if open >= 0 && closeParen > open {
		for _, raw := range strings.Split(header[open+1:closeParen], ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if i := strings.IndexAny(raw, "=:"); i >= 0 {
				raw = strings.TrimSpace(raw[:i])
			}
			raw = strings.TrimPrefix(raw, "*")
			raw = strings.TrimPrefix(raw, "*")
			if raw != "" {
				params = append(params, raw)
			}
		}
	}
	p.pos++
	body := p.parseSuite(ll.Indent)
	return &ast.FuncDef{LineNo: ll.Line, Name: name, Params: params, Body: body}
}

func (p *parser) parseIf(indent int) *ast.If {
	ll := p.lines[p.pos]
	test := parseExprString(trimHeader(ll.Text, "if"))
	p.pos++
	body := p.parseSuite(indent)

	var orelse []ast.Stmt
	if p.pos < len(p.lines) && p.lines[p.pos].Indent == indent {
		next := p.lines[p.pos]
		switch firstWord(next.Text) {
		case "elif":
			inner := p.parseElif(indent)
			orelse = []ast.Stmt{inner}
		case "else":
			p.pos++
			orelse = p.parseSuite(indent)
		}
	}

	return &ast.If{LineNo: ll.Line, Test: test, Body: body, Orelse: orelse}
}

// parseElif behaves like parseIf but reads the "elif" keyword as the test
// introducer, producing the same *ast.If shape an "if" would.
func (p *parser) parseElif(indent int) *ast.If {
	ll := p.lines[p.pos]
	test := parseExprString(trimHeader(ll.Text, "elif"))
	p.pos++
	body := p.parseSuite(indent)

	var orelse []ast.Stmt
	if p.pos < len(p.lines) && p.lines[p.pos].Indent == indent {
		next := p.lines[p.pos]
		switch firstWord(next.Text) {
		case "elif":
			inner := p.parseElif(indent)
			orelse = []ast.Stmt{inner}
		case "else":
			p.pos++
			orelse = p.parseSuite(indent)
		}
	}

	return &ast.If{LineNo: ll.Line, Test: test, Body: body, Orelse: orelse}
}

func (p *parser) parseFor(indent int) *ast.For {
	ll := p.lines[p.pos]
	header := trimHeader(ll.Text, "for")
	idx := strings.Index(header, " in ")
	var target, iter ast.Expr
	if idx >= 0 {
		target = toStoreTarget(parseExprString(header[:idx]))
		iter = parseExprString(header[idx+4:])
	}
	p.pos++
	body := p.parseSuite(indent)
	return &ast.For{LineNo: ll.Line, Target: target, Iter: iter, Body: body}
}

func (p *parser) parseWhile(indent int) *ast.While {
	ll := p.lines[p.pos]
	test := parseExprString(trimHeader(ll.Text, "while"))
	p.pos++
	body := p.parseSuite(indent)
	return &ast.While{LineNo: ll.Line, Test: test, Body: body}
}

func (p *parser) parseTry(indent int) *ast.Try {
	ll := p.lines[p.pos]
	p.pos++
	body := p.parseSuite(indent)

	t := &ast.Try{LineNo: ll.Line, Body: body}
	for p.pos < len(p.lines) && p.lines[p.pos].Indent == indent && firstWord(p.lines[p.pos].Text) == "except" {
		hl := p.lines[p.pos]
		clause := trimHeader(hl.Text, "except")
		handler := &ast.ExceptHandler{LineNo: hl.Line}
		if clause != "" {
			if asIdx := strings.Index(clause, " as "); asIdx >= 0 {
				handler.Type = parseExprString(clause[:asIdx])
				handler.Name = strings.TrimSpace(clause[asIdx+4:])
			} else {
				handler.Type = parseExprString(clause)
			}
		}
		p.pos++
		handler.Body = p.parseSuite(indent)
		t.Handlers = append(t.Handlers, handler)
	}
	if p.pos < len(p.lines) && p.lines[p.pos].Indent == indent && firstWord(p.lines[p.pos].Text) == "finally" {
		fl := p.lines[p.pos]
		t.FinallyLine = fl.Line
		p.pos++
		t.Finally = p.parseSuite(indent)
	}
	return t
}

func parseSimpleStatement(ll logicalLine) ast.Stmt {
	if op, lhs, rhs, ok := splitAugAssign(ll.Text); ok {
		return &ast.AugAssign{
			LineNo: ll.Line,
			Target: toStoreTarget(parseExprString(lhs)),
			Op:     op,
			Value:  parseExprString(rhs),
		}
	}
	if parts, ok := splitAssign(ll.Text); ok {
		value := parseExprString(parts[len(parts)-1])
		targets := make([]ast.Expr, 0, len(parts)-1)
		for _, t := range parts[:len(parts)-1] {
			targets = append(targets, toStoreTarget(parseExprString(t)))
		}
		return &ast.Assign{LineNo: ll.Line, Targets: targets, Value: value}
	}
	return &ast.ExprStmt{LineNo: ll.Line, Value: parseExprString(ll.Text)}
}

// toStoreTarget marks the cosmetic Store flag on Name/Subscript nodes that
// appear in assignment-target position; def/use extraction itself switches on Go type alone and does not consult this flag.
func toStoreTarget(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Name:
		n.Store = true
	case *ast.Subscript:
		n.Store = true
	case *ast.CompositeLit:
		for _, el := range n.Elts {
			toStoreTarget(el)
		}
	case *ast.Paren:
		toStoreTarget(n.X)
	}
	return e
}

var augOps = []string{"+=", "-=", "*=", "/=", "//=", "%=", "**="}

func splitAugAssign(text string) (op, lhs, rhs string, ok bool) {
	depth := 0
	var quote rune
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth != 0 || quote != 0 {
			continue
		}
		for _, o := range augOps {
			ol := len(o)
			if i+ol <= len(runes) && string(runes[i:i+ol]) == o {
				return o, string(runes[:i]), string(runes[i+ol:]), true
			}
		}
	}
	return "", "", "", false
}

// splitAssign splits text on top-level '=' signs that are not part of a
// comparison operator, supporting chained assignment (a = b = expr).
func splitAssign(text string) ([]string, bool) {
	depth := 0
	var quote rune
	runes := []rune(text)
	var cuts []int
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth != 0 || quote != 0 || r != '=' {
			continue
		}
		prev := rune(0)
		if i > 0 {
			prev = runes[i-1]
		}
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		if prev == '=' || prev == '!' || prev == '<' || prev == '>' || next == '=' {
			continue
		}
		cuts = append(cuts, i)
	}
	if len(cuts) == 0 {
		return nil, false
	}
	var parts []string
	start := 0
	for _, c := range cuts {
		parts = append(parts, string(runes[start:c]))
		start = c + 1
	}
	parts = append(parts, string(runes[start:]))
	return parts, true
}
