package pyfrontend

import "strings"

// logicalLine is one statement's worth of source: physical continuation
// lines (backslash or unclosed-bracket) already joined into Text, comments
// stripped, indexed by the line number of its first physical line.
type logicalLine struct {
	Line   int
	Indent int
	Text   string
}

// stripComment removes a trailing "# ..." comment, respecting simple quoted
// strings so a '#' inside a string literal is not mistaken for one.
func stripComment(s string) string {
	var quote rune
	for i, r := range s {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '#':
			return s[:i]
		}
	}
	return s
}

func leadingIndent(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 8
		} else {
			break
		}
	}
	return n
}

func bracketDelta(s string) int {
	delta := 0
	var quote rune
	for _, r := range s {
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
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return delta
}

// splitLogicalLines groups text's physical lines into logical lines,
// joining explicit backslash continuations and lines inside an unclosed
// bracket, skipping blank and comment-only lines.
func splitLogicalLines(text string) []logicalLine {
	raw := strings.Split(text, "\n")
	var out []logicalLine

	i := 0
	for i < len(raw) {
		line := stripComment(raw[i])
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}

		startLine := i + 1
		indent := leadingIndent(line)
		var parts []string
		parts = append(parts, strings.TrimSpace(line))

		depth := bracketDelta(line)
		cont := strings.HasSuffix(strings.TrimRight(raw[i], " \t"), "\\")
		i++
		for (depth > 0 || cont) && i < len(raw) {
			next := stripComment(raw[i])
			cont = strings.HasSuffix(strings.TrimRight(raw[i], " \t"), "\\")
			trimmed := strings.TrimSuffix(strings.TrimSpace(next), "\\")
			parts = append(parts, strings.TrimSpace(trimmed))
			depth += bracketDelta(next)
			i++
		}

		out = append(out, logicalLine{
			Line:   startLine,
			Indent: indent,
			Text:   strings.Join(parts, " "),
		})
	}
	return out
}
