package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/godoctor/decompose/apperr"
	"github.com/godoctor/decompose/config"
)

func TestDefaultMatchesReferenceConfiguration(t *testing.T) {
	d := config.Default()
	want := config.Thresholds{
		MinDiffComplexityBetweenSlices:      3,
		MinDiffRefAndLiveVar:                4,
		MinLinenosDiffReferenceLivevarInstr: 4,
		MinLinesInSuggestion:                3,
		MinVariablesParameterInSuggestion:   1,
		MaxVariablesParameterInSuggestion:   6,
		MaxVariablesReturnInSuggestion:      3,
		MinLinesFuncNotInSuggestion:         5,
	}
	if d != want {
		t.Fatalf("expected default thresholds %+v, got %+v", want, d)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	got, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if got != config.Default() {
		t.Fatalf("expected default thresholds for an empty path, got %+v", got)
	}
}

func TestLoadOverridesOnlyProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.json")
	if err := os.WriteFile(path, []byte(`{"min_lines_in_suggestion": 10}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MinLinesInSuggestion != 10 {
		t.Errorf("expected overridden MinLinesInSuggestion 10, got %d", got.MinLinesInSuggestion)
	}
	if got.MaxVariablesReturnInSuggestion != config.Default().MaxVariablesReturnInSuggestion {
		t.Errorf("expected untouched fields to keep their default value")
	}
}

func TestLoadMissingFileReturnsConfigNotAvailable(t *testing.T) {
	_, err := config.Load("/nonexistent/path/thresholds.json")
	if !errors.Is(err, apperr.ConfigNotAvailable("")) {
		t.Fatalf("expected ConfigNotAvailable, got %v", err)
	}
}
