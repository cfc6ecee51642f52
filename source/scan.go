// Package source implements the source metadata scanner (component A of the
// decomposition engine): a lexical, best-effort pass over raw source text
// that produces per-line attributes the CFG builder and suggestion engine
// rely on. It never fails; malformed input simply yields best-effort
// metadata (see the scanner's failure model).
package source

import (
	"strings"
)

// lineSet is an immutable (after construction) group of line numbers that
// all map to the same underlying set value, mirroring the spec's
// "every line in the group maps to the same set, including itself" rule.
type lineSet = map[int]bool

// Metadata holds every signal the scanner produces, indexed by line number
// where applicable. Lines are 1-based.
type Metadata struct {
	BlankLines map[int]bool
	Comments   map[int]bool
	LineIndent map[int]int
	Multiline  map[int]lineSet
	// IncludeConditional records whether conditional/exception sibling
	// groups were folded into Multiline, per the policy flag.
	IncludeConditional bool
}

const commentMarker = "#"

// tripleQuotes are the two block-comment/string delimiters recognized by
// the lexical scanner.
var tripleQuotes = []string{`"""`, `'''`}

// Scan tokenizes raw source text into line metadata. includeConditional
// controls whether if/elif/else and try/except/finally sibling groups are
// merged into the Multiline map (letting the slicer treat them as one
// indivisible unit during range splitting).
func Scan(text string, includeConditional bool) *Metadata {
	lines := splitLines(text)

	m := &Metadata{
		BlankLines:         map[int]bool{},
		Comments:           map[int]bool{},
		LineIndent:         map[int]int{},
		Multiline:          map[int]lineSet{},
		IncludeConditional: includeConditional,
	}

	scanBlankAndComments(lines, m)
	scanIndentation(lines, m)
	scanMultiline(lines, m)

	conditionals := scanSiblingFamilies(lines, m, ifFamilyStarter, ifFamilyMember)
	exceptions := scanSiblingFamilies(lines, m, tryFamilyStarter, tryFamilyMember)

	if includeConditional {
		mergeFamilies(m.Multiline, conditionals)
		mergeFamilies(m.Multiline, exceptions)
	}

	return m
}

func splitLines(text string) []string {
	// Keep a 1-based, empty-at-index-0 slice so callers can index by line
	// number directly.
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw)+1)
	copy(lines[1:], raw)
	return lines
}

func scanBlankAndComments(lines []string, m *Metadata) {
	insideBlock := false
	for ln := 1; ln < len(lines); ln++ {
		line := lines[ln]
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			m.BlankLines[ln] = true
			continue
		}

		if insideBlock {
			m.Comments[ln] = true
			if closesBlock(line) {
				insideBlock = false
			}
			continue
		}

		if strings.HasPrefix(stripped, commentMarker) {
			m.Comments[ln] = true
			continue
		}

		if opensBlock(line) {
			m.Comments[ln] = true
			insideBlock = true
			if closesBlockAfterOpen(line) {
				insideBlock = false
			}
		}
	}
}

// opensBlock reports whether line contains a triple-quote occurrence
// followed by any non-quote character, toggling "inside a block comment"
// on. This is a lexical approximation, not a full string-literal parser.
func opensBlock(line string) bool {
	for _, tq := range tripleQuotes {
		idx := strings.Index(line, tq)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(tq):]
		if rest == "" || !strings.HasPrefix(rest, tq[:1]) {
			return true
		}
	}
	return false
}

// closesBlock reports whether a later line contains a triple-quote
// occurrence that ends the block comment region.
func closesBlock(line string) bool {
	for _, tq := range tripleQuotes {
		if strings.Contains(line, tq) {
			return true
		}
	}
	return false
}

// closesBlockAfterOpen reports whether the same line that opens a block
// also closes it (a one-line triple-quoted comment).
func closesBlockAfterOpen(line string) bool {
	for _, tq := range tripleQuotes {
		first := strings.Index(line, tq)
		if first < 0 {
			continue
		}
		second := strings.Index(line[first+len(tq):], tq)
		if second >= 0 {
			return true
		}
	}
	return false
}

// scanIndentation computes, for every line, the indentation depth in units
// of the function's indentation unit: the leading whitespace of the first
// non-comment, non-blank, non-zero-indent line in the file.
func scanIndentation(lines []string, m *Metadata) {
	unit := 0
	for ln := 1; ln < len(lines); ln++ {
		if m.BlankLines[ln] || m.Comments[ln] {
			continue
		}
		lead := leadingWhitespace(lines[ln])
		if len(lead) > 0 {
			unit = len(lead)
			break
		}
	}
	if unit == 0 {
		unit = 1
	}

	for ln := 1; ln < len(lines); ln++ {
		lead := leadingWhitespace(lines[ln])
		m.LineIndent[ln] = len(lead) / unit
	}
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// scanMultiline groups lines that form one logical multi-line statement,
// either via unmatched bracket continuation or explicit backslash
// line-joining. Brackets inside string literals and after a comment marker
// are ignored; bracket underflow is ignored silently.
func scanMultiline(lines []string, m *Metadata) {
	depth := 0
	explicitJoin := false
	groupStart := 0

	flush := func(endLine int) {
		if groupStart == 0 || endLine < groupStart+1 {
			return
		}
		group := map[int]bool{}
		for ln := groupStart; ln <= endLine; ln++ {
			group[ln] = true
		}
		for ln := range group {
			m.Multiline[ln] = group
		}
	}

	for ln := 1; ln < len(lines); ln++ {
		inMultiline := depth > 0 || explicitJoin
		if inMultiline && groupStart == 0 {
			groupStart = ln - 1
		}

		lineDepthDelta, endsWithString := bracketDelta(lines[ln])
		depth += lineDepthDelta
		if depth < 0 {
			depth = 0 // bracket underflow is ignored silently
		}
		_ = endsWithString

		explicitJoin = strings.HasSuffix(lines[ln], `\`) && !strings.HasSuffix(lines[ln], `\\`)

		if depth == 0 && !explicitJoin {
			if groupStart != 0 {
				flush(ln)
				groupStart = 0
			}
		}
	}
	if groupStart != 0 {
		flush(len(lines) - 1)
	}
}

// bracketDelta returns the net change in open-paren depth contributed by
// line, ignoring parens that appear inside string literals or after an
// unquoted comment marker.
func bracketDelta(line string) (delta int, insideStringAtEnd bool) {
	var quote byte
	inString := false
	prevBackslash := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			if c == quote && !prevBackslash {
				inString = false
			}
			prevBackslash = c == '\\' && !prevBackslash
			continue
		}
		switch c {
		case '#':
			return delta, false
		case '\'', '"':
			inString = true
			quote = c
			prevBackslash = false
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return delta, inString
}

func mergeFamilies(multiline map[int]lineSet, families []lineSet) {
	for _, fam := range families {
		for ln := range fam {
			existing, ok := multiline[ln]
			if !ok {
				merged := map[int]bool{}
				for l := range fam {
					merged[l] = true
				}
				for l := range fam {
					multiline[l] = merged
				}
				continue
			}
			for l := range fam {
				existing[l] = true
			}
			for l := range existing {
				multiline[l] = existing
			}
		}
	}
}

/* -=-=- sibling family grouping (conditionals / exceptions) -=-=- */

type familyPredicate func(stripped string) bool

func ifFamilyStarter(s string) bool {
	return hasKeyword(s, "if")
}

func ifFamilyMember(s string) bool {
	return hasKeyword(s, "elif") || s == "else:" || s == "else" || strings.HasPrefix(s, "else ")
}

func tryFamilyStarter(s string) bool {
	return s == "try:" || s == "try"
}

func tryFamilyMember(s string) bool {
	return hasKeyword(s, "except") || s == "finally:" || s == "finally" || strings.HasPrefix(s, "finally ")
}

func hasKeyword(stripped, kw string) bool {
	if stripped == kw || stripped == kw+":" {
		return true
	}
	return strings.HasPrefix(stripped, kw+" ") || strings.HasPrefix(stripped, kw+"(")
}

// scanSiblingFamilies gathers lines of each starter/member family (an
// if/elif/else chain, or a try/except/finally chain) at the same
// indentation level into sibling sets.
func scanSiblingFamilies(lines []string, m *Metadata, isStart, isMember familyPredicate) []lineSet {
	var families []lineSet

	for ln := 1; ln < len(lines); ln++ {
		if m.BlankLines[ln] || m.Comments[ln] {
			continue
		}
		stripped := strings.TrimSpace(lines[ln])
		if !isStart(stripped) {
			continue
		}
		indent := m.LineIndent[ln]

		family := map[int]bool{ln: true}
		for next := ln + 1; next < len(lines); next++ {
			if m.BlankLines[next] || m.Comments[next] {
				continue
			}
			nIndent := m.LineIndent[next]
			if nIndent > indent {
				continue // inside the body of a family member
			}
			if nIndent < indent {
				break // dedented past the family
			}
			nStripped := strings.TrimSpace(lines[next])
			if isMember(nStripped) {
				family[next] = true
				continue
			}
			break
		}
		families = append(families, family)
	}
	return families
}
