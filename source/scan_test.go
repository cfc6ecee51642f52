package source_test

import (
	"testing"

	"github.com/godoctor/decompose/source"
)

func TestBlankAndCommentLines(t *testing.T) {
	text := "def f():\n    # a comment\n\n    return 1\n"
	m := source.Scan(text, false)
	if !m.Comments[2] {
		t.Errorf("expected line 2 to be classified as a comment")
	}
	if !m.BlankLines[3] {
		t.Errorf("expected line 3 to be classified as blank")
	}
	if m.Comments[4] || m.BlankLines[4] {
		t.Errorf("expected line 4 to be neither blank nor comment")
	}
}

func TestBlockCommentRegion(t *testing.T) {
	text := "def f():\n    \"\"\"\n    a docstring\n    \"\"\"\n    return 1\n"
	m := source.Scan(text, false)
	for ln := 2; ln <= 4; ln++ {
		if !m.Comments[ln] {
			t.Errorf("expected line %d inside the triple-quote region to be a comment", ln)
		}
	}
	if m.Comments[5] {
		t.Errorf("expected line 5 to fall outside the block comment")
	}
}

func TestIndentationUnit(t *testing.T) {
	text := "def f():\n  a = 1\n  if a:\n    a = 2\n  return a\n"
	m := source.Scan(text, false)
	if m.LineIndent[2] != 1 {
		t.Errorf("expected line 2 at indent 1, got %d", m.LineIndent[2])
	}
	if m.LineIndent[4] != 2 {
		t.Errorf("expected line 4 at indent 2, got %d", m.LineIndent[4])
	}
}

func TestMultilineBracketContinuation(t *testing.T) {
	text := "def f():\n    x = (1 +\n         2)\n    return x\n"
	m := source.Scan(text, false)
	group := m.Multiline[2]
	if len(group) != 2 || !group[2] || !group[3] {
		t.Fatalf("expected lines 2 and 3 grouped as one multiline statement, got %v", group)
	}
	if _, ok := m.Multiline[4]; ok {
		t.Errorf("line 4 should not be part of any multiline group")
	}
}

func TestMultilineBackslashJoin(t *testing.T) {
	text := "def f():\n    x = 1 + \\\n        2\n    return x\n"
	m := source.Scan(text, false)
	group := m.Multiline[2]
	if len(group) != 2 || !group[2] || !group[3] {
		t.Fatalf("expected lines 2 and 3 grouped via backslash join, got %v", group)
	}
}

func TestBracketInsideStringIgnored(t *testing.T) {
	text := "def f():\n    x = \"(\"\n    return x\n"
	m := source.Scan(text, false)
	if _, ok := m.Multiline[2]; ok {
		t.Errorf("expected a bracket inside a string literal not to open a multiline group, got %v", m.Multiline[2])
	}
}

func TestConditionalSiblingGrouping(t *testing.T) {
	text := "def f(a):\n    if a < 0:\n        a = 0\n    elif a == 0:\n        a = 1\n    else:\n        a = 2\n    return a\n"
	m := source.Scan(text, true)
	group := m.Multiline[2]
	if group == nil {
		t.Fatal("expected if/elif/else siblings merged into the multiline map when include_conditional is set")
	}
	for _, ln := range []int{2, 4, 6} {
		if !group[ln] {
			t.Errorf("expected line %d in the conditional sibling group, got %v", ln, group)
		}
	}
}

func TestConditionalSiblingsNotMergedByDefault(t *testing.T) {
	text := "def f(a):\n    if a < 0:\n        a = 0\n    else:\n        a = 1\n    return a\n"
	m := source.Scan(text, false)
	if _, ok := m.Multiline[2]; ok {
		t.Errorf("expected no conditional merge into Multiline when include_conditional is false, got %v", m.Multiline[2])
	}
}

func TestExceptionSiblingGrouping(t *testing.T) {
	text := "def f():\n    try:\n        return 1\n    except ValueError:\n        return 2\n    finally:\n        pass\n"
	m := source.Scan(text, true)
	group := m.Multiline[2]
	if group == nil {
		t.Fatal("expected try/except/finally siblings merged when include_conditional is set")
	}
	for _, ln := range []int{2, 4, 6} {
		if !group[ln] {
			t.Errorf("expected line %d in the exception sibling group, got %v", ln, group)
		}
	}
}

func TestScanNeverFailsOnMalformedInput(t *testing.T) {
	text := "def f():\n    x = (((\n    return x\n"
	m := source.Scan(text, false)
	if m == nil {
		t.Fatal("expected best-effort metadata even for unbalanced brackets")
	}
}
