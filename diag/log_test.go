package diag_test

import (
	"strings"
	"testing"

	"github.com/godoctor/decompose/diag"
)

func TestLogHasErrors(t *testing.T) {
	log := diag.NewLog()
	log.Infof("f", 1, "informational")
	if log.HasErrors() {
		t.Fatal("expected no errors from an info-only log")
	}
	log.Errorf("f", 3, "nested function rejected")
	if !log.HasErrors() {
		t.Fatal("expected HasErrors to report true once an Error entry is added")
	}
}

func TestEntryStringIncludesFunctionAndLine(t *testing.T) {
	log := diag.NewLog()
	log.Warnf("g", 7, "bracket underflow")
	got := log.Entries[0].String()
	if !strings.Contains(got, "g") || !strings.Contains(got, "7") {
		t.Errorf("expected the rendered entry to mention function and line, got %q", got)
	}
}
