// Package decompose orchestrates the full pipeline over one source file:
// scan its text for line metadata (source), build each function's CFG
// (cfgbuild), run dataflow and slicing on demand, and emit extraction
// Suggestions (suggest). This is the single entry point a frontend or CLI
// calls once it has turned source text into ast.FuncDef trees.
package decompose

import (
	"github.com/godoctor/decompose/ast"
	"github.com/godoctor/decompose/cfgbuild"
	"github.com/godoctor/decompose/config"
	"github.com/godoctor/decompose/diag"
	"github.com/godoctor/decompose/slicer"
	"github.com/godoctor/decompose/source"
	"github.com/godoctor/decompose/suggest"
)

// FunctionReport is the analysis result for one function: its suggestions
// plus the average-line-number-weighted slice complexity summary metric
//.
type FunctionReport struct {
	Name                      string
	Suggestions               []*suggest.Suggestion
	AverageWeightedComplexity float64
}

// Report is the result of analyzing every function in one source file.
type Report struct {
	Functions []*FunctionReport
	Log       *diag.Log
}

// Options configures one Analyze call.
type Options struct {
	Thresholds config.Thresholds
	// Slow widens the RemoveVar heuristic's variable-group search to
	// include 3- and 4-variable consecutive groups.
	Slow bool
	// IncludeConditional folds if/elif/else and try/except/finally
	// sibling groups into the scanner's multiline map (source.Scan).
	IncludeConditional bool
}

// Analyze scans text once, builds a CFG for every function in funcs via one
// shared BlockList, and runs the suggestion engine over each.
// Build failures (e.g. a rejected nested function) are logged and that
// function is skipped rather than aborting the whole run.
func Analyze(text string, funcs []*ast.FuncDef, opts Options) *Report {
	meta := source.Scan(text, opts.IncludeConditional)
	bl := cfgbuild.NewBlockList()
	report := &Report{Log: diag.NewLog()}

	for _, fn := range funcs {
		fb, err := bl.Build(fn, meta)
		if err != nil {
			report.Log.Errorf(fn.Name, fn.Line(), "%s", err)
			continue
		}

		sl := slicer.New(fb)
		report.Functions = append(report.Functions, &FunctionReport{
			Name:                      fb.Name,
			Suggestions:               suggest.Suggest(fb, opts.Thresholds, opts.Slow),
			AverageWeightedComplexity: suggest.AverageWeightedComplexity(sl, fb),
		})
	}

	return report
}
