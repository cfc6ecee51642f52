// The decompose command suggests Extract-Function refactorings for a
// single source file, grounded on the teacher's cmd/godoctor CLI shape:
// flag-parsed options, a render function that switches on -format, and
// stderr logging separate from the result payload on stdout.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/godoctor/decompose/config"
	"github.com/godoctor/decompose/decompose"
	"github.com/godoctor/decompose/pyfrontend"
	"github.com/godoctor/decompose/suggest"
	"github.com/yuin/goldmark"
)

var (
	formatFlag = flag.String("format", "plain", "output in 'plain', 'json', or 'html'")
	configFlag = flag.String("config", "", "path to a JSON thresholds file; defaults built in if omitted")
	slowFlag   = flag.Bool("slow", false, "widen the RemoveVar heuristic's variable-group search")
	condFlag   = flag.Bool("fold-conditionals", false, "fold if/elif/else and try/except/finally siblings into one multiline group")
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [<flag> ...] <file>

Suggests Extract-Function refactorings for every function in <file>.

`, os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
	}

	th, err := config.Load(*configFlag)
	if err != nil {
		printError(err)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		printError(err)
	}
	text := string(data)

	funcs := pyfrontend.ParseFunctions(text)
	report := decompose.Analyze(text, funcs, decompose.Options{
		Thresholds:         th,
		Slow:               *slowFlag,
		IncludeConditional: *condFlag,
	})

	for _, e := range report.Log.Entries {
		fmt.Fprintln(os.Stderr, e.String())
	}

	if err := render(os.Stdout, report, *formatFlag); err != nil {
		printError(err)
	}
	if report.Log.HasErrors() {
		os.Exit(1)
	}
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "decompose: %s\n", err)
	os.Exit(2)
}

func render(w io.Writer, report *decompose.Report, format string) error {
	switch format {
	case "plain":
		return renderPlain(w, report)
	case "json":
		return renderJSON(w, report)
	case "html":
		return renderHTML(w, report)
	default:
		return fmt.Errorf("invalid -format %q", format)
	}
}

func renderPlain(w io.Writer, report *decompose.Report) error {
	for _, fn := range report.Functions {
		fmt.Fprintf(w, "%s (weighted complexity %.2f)\n", fn.Name, fn.AverageWeightedComplexity)
		if len(fn.Suggestions) == 0 {
			fmt.Fprintln(w, "  no suggestions")
			continue
		}
		for _, s := range fn.Suggestions {
			fmt.Fprintf(w, "  %d-%d params=%v returns=%v reasons=%v\n",
				s.Start, s.End, s.Parameters, s.Returns, reasonNames(s.Reasons))
		}
	}
	return nil
}

type jsonSuggestion struct {
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Parameters []string `json:"parameters"`
	Returns    []string `json:"returns"`
	Reasons    []string `json:"reasons"`
}

type jsonFunction struct {
	Name                      string           `json:"name"`
	AverageWeightedComplexity float64          `json:"average_weighted_complexity"`
	Suggestions               []jsonSuggestion `json:"suggestions"`
}

func renderJSON(w io.Writer, report *decompose.Report) error {
	var out []jsonFunction
	for _, fn := range report.Functions {
		jf := jsonFunction{Name: fn.Name, AverageWeightedComplexity: fn.AverageWeightedComplexity}
		for _, s := range fn.Suggestions {
			jf.Suggestions = append(jf.Suggestions, jsonSuggestion{
				Start:      s.Start,
				End:        s.End,
				Parameters: s.Parameters,
				Returns:    s.Returns,
				Reasons:    reasonNames(s.Reasons),
			})
		}
		out = append(out, jf)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// renderHTML renders the report as a Markdown document and feeds it through
// goldmark, so each function's suggestions end up as a readable HTML list.
func renderHTML(w io.Writer, report *decompose.Report) error {
	var md bytes.Buffer
	for _, fn := range report.Functions {
		fmt.Fprintf(&md, "## %s\n\n", fn.Name)
		fmt.Fprintf(&md, "Average weighted complexity: %.2f\n\n", fn.AverageWeightedComplexity)
		if len(fn.Suggestions) == 0 {
			md.WriteString("No suggestions.\n\n")
			continue
		}
		for _, s := range fn.Suggestions {
			fmt.Fprintf(&md, "- lines %d-%d, params `%v`, returns `%v`, reasons %v\n",
				s.Start, s.End, s.Parameters, s.Returns, reasonNames(s.Reasons))
		}
		md.WriteString("\n")
	}
	return goldmark.Convert(md.Bytes(), w)
}

func reasonNames(rs suggest.ReasonSet) []string {
	var out []string
	for _, r := range rs.Sorted() {
		out = append(out, r.String())
	}
	return out
}
