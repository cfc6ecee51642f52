package cfgbuild

// NewVarSet builds a VarSet from names, dropping "" and "_" per the
// convention that "_" never counts as a real variable reference.
func NewVarSet(names ...string) VarSet { return newVarSet(names...) }

// Clone returns a shallow copy of s.
func (s VarSet) Clone() VarSet { return s.clone() }

// Equal reports whether s and o contain exactly the same members.
func (s VarSet) Equal(o VarSet) bool { return s.equal(o) }

// Has reports whether v is a member of s.
func (s VarSet) Has(v string) bool { return s != nil && s[v] }

// Union returns a new VarSet containing every member of s and o.
func (s VarSet) Union(o VarSet) VarSet {
	out := make(VarSet, len(s)+len(o))
	for v := range s {
		out[v] = true
	}
	for v := range o {
		out[v] = true
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Intersect returns a new VarSet containing members present in both s and o.
func (s VarSet) Intersect(o VarSet) VarSet {
	var out VarSet
	for v := range s {
		if o[v] {
			if out == nil {
				out = VarSet{}
			}
			out[v] = true
		}
	}
	return out
}

// Difference returns a new VarSet containing members of s not present in o.
func (s VarSet) Difference(o VarSet) VarSet {
	var out VarSet
	for v := range s {
		if !o[v] {
			if out == nil {
				out = VarSet{}
			}
			out[v] = true
		}
	}
	return out
}

// Add returns a new VarSet equal to s with v added.
func (s VarSet) Add(v string) VarSet {
	out := s.clone()
	if out == nil {
		out = VarSet{}
	}
	if v != "" && v != "_" {
		out[v] = true
	}
	return out
}
