// Command resolve is a minimal CLI driver wiring one of the example
// providers to a resolvelib.Resolver, printing the pinned mapping and
// dependency graph it produces.
//
// The Go equivalent of original_source/examples/pypi_wheel_provider.py's
// main()/display_resolution(), with flag handling and usage formatting
// borrowed from the teacher's command-dispatch idiom in main.go/cmd.go,
// trimmed down to the one mode this tool has.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/notatallshaw/resolvelib/providers/jsonfixture"
	"github.com/notatallshaw/resolvelib/providers/pypisimple"
	"github.com/notatallshaw/resolvelib/resolvelib"
)

func main() {
	providerFlag := flag.String("provider", "pypi", "which provider to resolve against: \"pypi\" or \"json\"")
	indexFlag := flag.String("index", "", "package index to resolve against: a PyPI simple-index base URL (-provider=pypi) or a jsonfixture index file path (-provider=json)")
	verbose := flag.Bool("v", false, "print every round, pin and rejected candidate as it happens (backjumps are not printed)")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: resolve [-provider pypi|json] [-index ...] [-v] <requirement>...")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	reqStrings := flag.Args()
	if len(reqStrings) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*providerFlag, *indexFlag, reqStrings, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(providerName, index string, reqStrings []string, verbose bool) error {
	var reporter resolvelib.Reporter[string, pypisimple.Requirement, pypisimple.Candidate]
	if verbose {
		reporter = &traceReporter{}
	}

	switch providerName {
	case "pypi":
		return runPyPI(index, reqStrings, reporter)
	case "json":
		return runJSON(index, reqStrings, verbose)
	default:
		return fmt.Errorf("resolve: unknown provider %q (want \"pypi\" or \"json\")", providerName)
	}
}

func runPyPI(indexURL string, reqStrings []string, reporter resolvelib.Reporter[string, pypisimple.Requirement, pypisimple.Candidate]) error {
	provider := pypisimple.New(context.Background(), indexURL, nil)

	reqs := make([]pypisimple.Requirement, 0, len(reqStrings))
	for _, raw := range reqStrings {
		req, err := pypisimple.ParseRequirement(raw)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	resolver := resolvelib.New[string, pypisimple.Requirement, pypisimple.Candidate](provider, reporter, resolvelib.Options[string, pypisimple.Requirement, pypisimple.Candidate]{})

	fmt.Println("Resolving", strings.Join(reqStrings, ", "))
	result, err := resolver.Resolve(reqs)
	if err != nil {
		return err
	}
	displayResolution(result)
	return nil
}

func runJSON(indexPath string, reqStrings []string, verbose bool) error {
	if indexPath == "" {
		return fmt.Errorf("resolve: -provider=json requires -index <path to index file>")
	}
	provider, err := jsonfixture.LoadIndex(indexPath)
	if err != nil {
		return err
	}

	reqs := make([]jsonfixture.Requirement, 0, len(reqStrings))
	for _, raw := range reqStrings {
		req, err := jsonfixture.ParseRequirement(raw)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	var reporter resolvelib.Reporter[string, jsonfixture.Requirement, jsonfixture.Candidate]
	if verbose {
		reporter = &jsonTraceReporter{}
	}
	resolver := resolvelib.New[string, jsonfixture.Requirement, jsonfixture.Candidate](provider, reporter, resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})

	fmt.Println("Resolving", strings.Join(reqStrings, ", "))
	result, err := resolver.Resolve(reqs)
	if err != nil {
		return err
	}
	displayResolution(result)
	return nil
}

func displayResolution[I comparable, R any, C interface {
	comparable
	fmt.Stringer
}](result resolvelib.Result[I, R, C]) {
	fmt.Println("\n--- Pinned Candidates ---")
	for name, candidate := range result.Mapping {
		fmt.Printf("%v: %s\n", name, candidate)
	}

	fmt.Println("\n--- Dependency Graph ---")
	for _, name := range result.Graph.Nodes() {
		kids := result.Graph.IterChildren(name)
		strs := make([]string, len(kids))
		for i, k := range kids {
			strs[i] = fmt.Sprintf("%v", k)
		}
		fmt.Printf("%v -> %s\n", name, strings.Join(strs, ", "))
	}
}

// traceReporter prints every lifecycle event to stdout when -v is passed
// against the pypi provider.
type traceReporter struct {
	resolvelib.BaseReporter[string, pypisimple.Requirement, pypisimple.Candidate]
}

func (traceReporter) StartingRound(index int) {
	fmt.Printf("round %d\n", index)
}

func (traceReporter) Pinning(candidate pypisimple.Candidate) {
	fmt.Printf("  pinning %s\n", candidate)
}

func (traceReporter) RejectingCandidate(identifier string, candidate pypisimple.Candidate) {
	fmt.Printf("  rejecting %s for %s\n", candidate, identifier)
}

// jsonTraceReporter is the same trace behavior against the jsonfixture
// provider's own (Requirement, Candidate) pair.
type jsonTraceReporter struct {
	resolvelib.BaseReporter[string, jsonfixture.Requirement, jsonfixture.Candidate]
}

func (jsonTraceReporter) StartingRound(index int) {
	fmt.Printf("round %d\n", index)
}

func (jsonTraceReporter) Pinning(candidate jsonfixture.Candidate) {
	fmt.Printf("  pinning %s\n", candidate)
}

func (jsonTraceReporter) RejectingCandidate(identifier string, candidate jsonfixture.Candidate) {
	fmt.Printf("  rejecting %s for %s\n", candidate, identifier)
}
