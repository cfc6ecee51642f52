// Package config describes the policy thresholds that bound which
// suggestions the engine is allowed to produce, and how to load them from
// a JSON file. Structured as one field per tunable, documented the way the
// teacher documents refactoring.Parameter/Config, rather than as a single
// opaque options map. The core never validates these values:
// they are trusted input from the front-end.
package config

import (
	"encoding/json"
	"os"

	"github.com/godoctor/decompose/apperr"
)

// Thresholds bounds the shape and complexity of suggestions the engine is
// willing to surface. The field set and names follow spec §6 exactly.
type Thresholds struct {
	// MinDiffComplexityBetweenSlices is the minimum amount by which a
	// line's baseline-slice complexity must exceed its reduced-slice
	// complexity for H1 (RemoveVar) to collect that line.
	MinDiffComplexityBetweenSlices int `json:"min_diff_complexity_between_slices"`
	// MinDiffRefAndLiveVar is the minimum |in|-|referenced| gap for H3
	// (DiffRefLiveVarBlock) to mark a block's lines.
	MinDiffRefAndLiveVar int `json:"min_diff_ref_and_live_var"`
	// MinLinenosDiffReferenceLivevarInstr is H4's post-filter: a
	// resulting range must contain more than this many actual
	// instruction lines (excluding unimportant ones).
	MinLinenosDiffReferenceLivevarInstr int `json:"min_linenos_diff_reference_livevar_instr"`
	// MinLinesInSuggestion is the minimum number of non-unimportant
	// lines a candidate range must span to be worth suggesting.
	MinLinesInSuggestion int `json:"min_lines_in_suggestion"`
	// MinVariablesParameterInSuggestion is the minimum number of
	// inferred parameters a suggestion must have.
	MinVariablesParameterInSuggestion int `json:"min_variables_parameter_in_suggestion"`
	// MaxVariablesParameterInSuggestion is the maximum number of
	// inferred parameters a suggestion may have.
	MaxVariablesParameterInSuggestion int `json:"max_variables_parameter_in_suggestion"`
	// MaxVariablesReturnInSuggestion is the maximum number of inferred
	// return values a suggestion may have.
	MaxVariablesReturnInSuggestion int `json:"max_variables_return_in_suggestion"`
	// MinLinesFuncNotInSuggestion is the minimum number of
	// non-unimportant lines that must remain *outside* a candidate
	// range, so the suggestion is not "extract nearly the whole body".
	MinLinesFuncNotInSuggestion int `json:"min_lines_func_not_in_suggestion"`
}

// Default returns the reference configuration from spec §8:
// min_lines_in_suggestion = 3, min_diff_complexity_between_slices = 3,
// min_diff_ref_and_live_var = 4, min_linenos_diff_reference_livevar_instr = 4,
// others = 1/6/3/5 (min/max parameter, max return, min lines not in
// suggestion, in the order they are declared above).
func Default() Thresholds {
	return Thresholds{
		MinDiffComplexityBetweenSlices:      3,
		MinDiffRefAndLiveVar:                4,
		MinLinenosDiffReferenceLivevarInstr: 4,
		MinLinesInSuggestion:                3,
		MinVariablesParameterInSuggestion:   1,
		MaxVariablesParameterInSuggestion:   6,
		MaxVariablesReturnInSuggestion:      3,
		MinLinesFuncNotInSuggestion:         5,
	}
}

// Load reads Thresholds from a JSON file at path, starting from Default()
// and overwriting whichever fields the file sets. An empty path returns
// Default() unchanged.
func Load(path string) (Thresholds, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, apperr.ConfigNotAvailable(path)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return Thresholds{}, apperr.ConfigNotAvailable(path)
	}
	return t, nil
}
