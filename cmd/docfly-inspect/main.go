// Command docfly-inspect lists the AcroForm fields of a PDF, typically one
// produced by a fillable export.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/acroform"
	"github.com/Shashank-Shivakumar/Docfly/internal/render"
)

// InspectResult is the complete result of inspecting one file
type InspectResult struct {
	FilePath       string           `json:"file_path"`
	Success        bool             `json:"success"`
	PageCount      int              `json:"page_count,omitempty"`
	FieldCount     int              `json:"field_count"`
	Fields         []acroform.Field `json:"fields"`
	Error          string           `json:"error,omitempty"`
	InspectionTime string           `json:"inspection_time,omitempty"`
}

type options struct {
	format  string
	verbose bool
	help    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	flags := pflag.NewFlagSet("docfly-inspect", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log parser diagnostics to stderr")
	flags.BoolVarP(&opts.help, "help", "h", false, "Show help message")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 2
	}
	if opts.help {
		printHelp(stdout, flags)
		return 0
	}
	if flags.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: PDF file path required\n\n")
		printUsage(stderr)
		return 1
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unsupported output format: %s\n", opts.format)
		return 1
	}

	log := logger.Discard()
	if opts.verbose {
		log = logger.New(logger.WithOutput(stderr), logger.WithPrefix("docfly-inspect: "), logger.WithLevel(logger.LevelDebug))
	}

	failed := false
	results := make([]*InspectResult, 0, flags.NArg())
	for _, path := range flags.Args() {
		result, err := inspect(acroform.New(log), path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if !result.Success {
			failed = true
		}
		results = append(results, result)
	}

	var err error
	if opts.format == "json" {
		err = outputJSON(stdout, results)
	} else {
		for i, result := range results {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			outputText(stdout, result)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing results: %v\n", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// inspect reads path and lists its fields. Parse failures are reported in the
// result; only a missing file is an error.
func inspect(in *acroform.Inspector, path string) (*InspectResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result := &InspectResult{FilePath: absPath}
	start := time.Now()

	fields, err := in.InspectBytes(data)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	if pages, err := render.Probe(data); err == nil {
		result.PageCount = pages
	}

	result.Success = true
	result.Fields = fields
	result.FieldCount = len(fields)
	result.InspectionTime = time.Since(start).Round(time.Microsecond).String()
	return result, nil
}

func outputJSON(w io.Writer, results []*InspectResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if len(results) == 1 {
		return encoder.Encode(results[0])
	}
	return encoder.Encode(results)
}

func outputText(w io.Writer, result *InspectResult) {
	if !result.Success {
		fmt.Fprintf(w, "❌ %s: inspection failed: %s\n", result.FilePath, result.Error)
		return
	}
	if result.FieldCount == 0 {
		fmt.Fprintf(w, "⚠️  %s has no form fields\n", result.FilePath)
		return
	}

	fmt.Fprintf(w, "📋 %s: %d field(s)", result.FilePath, result.FieldCount)
	if result.PageCount > 0 {
		fmt.Fprintf(w, " on %d page(s)", result.PageCount)
	}
	fmt.Fprintln(w)

	for i, f := range result.Fields {
		fmt.Fprintf(w, "\n%d. %s (%s)\n", i+1, f.Name, f.Type)
		if f.Value != "" {
			fmt.Fprintf(w, "   Value: %q\n", f.Value)
		}
		if attrs := attributes(f); len(attrs) > 0 {
			fmt.Fprintf(w, "   Flags: %s\n", strings.Join(attrs, ", "))
		}
		if len(f.Options) > 0 {
			fmt.Fprintf(w, "   Options: %s\n", strings.Join(f.Options, ", "))
		}
		fmt.Fprintf(w, "   Rect: [%.1f %.1f %.1f %.1f]\n", f.Rect[0], f.Rect[1], f.Rect[2], f.Rect[3])
	}
}

func attributes(f acroform.Field) []string {
	var attrs []string
	if f.Required {
		attrs = append(attrs, "required")
	}
	if f.ReadOnly {
		attrs = append(attrs, "read-only")
	}
	if f.Multiline {
		attrs = append(attrs, "multiline")
	}
	if f.Comb {
		attrs = append(attrs, "comb")
	}
	if f.MaxLen > 0 {
		attrs = append(attrs, fmt.Sprintf("max length %d", f.MaxLen))
	}
	return attrs
}

func printHelp(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "docfly-inspect - List the form fields of a PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reads the AcroForm of each file and prints every terminal field with")
	fmt.Fprintln(w, "its type, value, flags and widget rectangle.")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  docfly-inspect exports/lease_fillable.pdf")
	fmt.Fprintln(w, "  docfly-inspect --format json exports/*.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  docfly-inspect [OPTIONS] <pdf_file>...")
}
