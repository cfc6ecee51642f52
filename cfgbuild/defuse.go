package cfgbuild

import "github.com/godoctor/decompose/ast"

// assignDefUse computes the referenced/defined variable sets for an
// assignment statement, applying the store-context rules from the spec:
// a plain name target defines that name; a subscript target (`x[i] = ...`)
// defines the container and references the index; an attribute target
// (`x.attr = ...`) references x. The right-hand side is always a
// reference. Grounded on the def/use extraction in the original
// dataflow analysis's defs()/uses() walk, adapted to run once per
// instruction at CFG-build time rather than once per pass.
func assignDefUse(s *ast.Assign) (referenced, defined VarSet) {
	ref := map[string]bool{}
	def := map[string]bool{}

	for _, t := range s.Targets {
		targetDefUse(t, ref, def)
	}
	for _, id := range ast.Idents(s.Value) {
		ref[id.Ident] = true
	}

	return setOf(ref), setOf(def)
}

// augAssignDefUse handles `x += expr` style statements: per the spec, the
// target is both referenced (its old value is read) and defined (a new
// value is written).
func augAssignDefUse(s *ast.AugAssign) (referenced, defined VarSet) {
	ref := map[string]bool{}
	def := map[string]bool{}

	base := ast.BaseIdent(s.Target)
	if base != "" {
		ref[base] = true
		def[base] = true
	}
	for _, id := range ast.Idents(s.Value) {
		ref[id.Ident] = true
	}

	return setOf(ref), setOf(def)
}

// exprStmtDefUse handles a bare expression statement. A call to a mutating
// method on a base identifier (`x.append(y)`) defines x, per the spec's
// rule that such calls count as a mutation of the receiver; every
// identifier walked in the expression is referenced.
func exprStmtDefUse(s *ast.ExprStmt) (referenced, defined VarSet) {
	ref := map[string]bool{}
	def := map[string]bool{}

	for _, id := range ast.Idents(s.Value) {
		ref[id.Ident] = true
	}

	if call, ok := s.Value.(*ast.Call); ok {
		if attr, ok := call.Func.(*ast.Attribute); ok && ast.MutatingMethods[attr.Attr] {
			base := ast.BaseIdent(attr.Value)
			if base != "" {
				def[base] = true
			}
		}
	}

	return setOf(ref), setOf(def)
}

func targetDefUse(t ast.Expr, ref, def map[string]bool) {
	switch n := t.(type) {
	case *ast.Name:
		if n.Ident != "_" {
			def[n.Ident] = true
		}
	case *ast.Subscript:
		// Spec §4.B: a subscript store `x[i] = ...` defines x and
		// references i.
		if base := ast.BaseIdent(n.Value); base != "" {
			def[base] = true
		}
		for _, id := range ast.Idents(n.Index) {
			ref[id.Ident] = true
		}
	case *ast.Attribute:
		if base := ast.BaseIdent(n.Value); base != "" {
			ref[base] = true
		}
	case *ast.CompositeLit:
		for _, el := range n.Elts {
			targetDefUse(el, ref, def)
		}
	case *ast.Paren:
		targetDefUse(n.X, ref, def)
	}
}

func setOf(m map[string]bool) VarSet {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	return newVarSet(names...)
}
