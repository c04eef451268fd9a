// Command concretize is the thin CLI wrapper around the concretizer core
//. It
// owns flag parsing, spec-literal parsing, and output formatting only; the
// package repository and configuration it solves against are supplied by
// newRepository/newConfig in fixture.go, a stand-in for the real loader
// this spec places out of scope.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gopherpack/concretize"
)

func main() {
	c := &Config{
		Args:   os.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(c.Run())
}

// Config specifies a full configuration for a concretize execution:
// argv plus the output streams, so tests can drive Run directly.
type Config struct {
	Args           []string
	Stdout, Stderr io.Writer
}

// showOptions are the recognized --show dump selectors.
var showOptions = []string{"asp", "output", "solutions", "all"}

// Run parses flags and spec literals, solves, and writes formatted output.
// It returns a process exit code rather than calling os.Exit directly, so
// it can be driven from tests.
func (c *Config) Run() (exitCode int) {
	errLogger := log.New(c.Stderr, "", 0)
	outLogger := log.New(c.Stdout, "", 0)

	fs := flag.NewFlagSet("concretize", flag.ContinueOnError)
	fs.SetOutput(c.Stderr)

	show := fs.String("show", "solutions", "outputs: a comma-separated list of "+strings.Join(showOptions, ", "))
	models := fs.Int("models", 0, "number of solutions to search (0 for all); must be non-negative, and only the lowest-cost solution is computed and printed whatever the value")
	yaml := fs.Bool("y", false, "print concrete specs as YAML")
	fs.BoolVar(yaml, "yaml", false, "print concrete specs as YAML")
	jsonOut := fs.Bool("j", false, "print concrete specs as JSON")
	fs.BoolVar(jsonOut, "json", false, "print concrete specs as JSON")
	cover := fs.String("c", "nodes", "how extensively to traverse the DAG: nodes, edges, paths")
	fs.StringVar(cover, "cover", "nodes", "how extensively to traverse the DAG: nodes, edges, paths")
	namespaces := fs.Bool("N", false, "show fully qualified package names")
	fs.BoolVar(namespaces, "namespaces", false, "show fully qualified package names")
	types := fs.Bool("t", false, "show dependency types")
	fs.BoolVar(types, "types", false, "show dependency types")
	timers := fs.Bool("timers", false, "print out timers for different solve phases")
	stats := fs.Bool("stats", false, "print out the warnings collected during the solve")

	resetUsage(errLogger, fs)

	if len(c.Args) < 2 {
		fs.Usage()
		return 1
	}
	if err := fs.Parse(c.Args[1:]); err != nil {
		return 1
	}

	dump, err := parseShow(*show)
	if err != nil {
		errLogger.Println(err)
		return 1
	}
	if *models < 0 {
		errLogger.Printf("model count must be non-negative: %d\n", *models)
		return 1
	}

	specLiterals := fs.Args()
	if len(specLiterals) == 0 {
		errLogger.Println("concretize: at least one spec literal is required")
		fs.Usage()
		return 1
	}

	inputSpecs, err := concretize.ParseSpecLiterals(specLiterals)
	if err != nil {
		errLogger.Println(err)
		return 1
	}

	repo := newRepository()
	cfg := newConfig()

	if dump["asp"] {
		var sink strings.Builder
		opts := concretize.Options{Repo: repo, Cfg: cfg, Platform: defaultPlatform(), CoreReporting: true}
		if _, err := concretize.DumpProgram(context.Background(), inputSpecs, opts, &sink); err != nil {
			errLogger.Println(err)
			return 1
		}
		outLogger.Println(sink.String())
	}

	if !dump["solutions"] {
		return 0
	}

	result, err := concretize.Solve(context.Background(), inputSpecs, concretize.Options{
		Repo:                    repo,
		Cfg:                     cfg,
		Platform:                defaultPlatform(),
		CoreReporting:           true,
		StrictCompilerExistence: false,
	})
	if err != nil {
		errLogger.Println(err)
		return 1
	}

	if !result.Satisfiable {
		errLogger.Println("the following constraints are unsatisfiable:")
		for _, core := range result.Cores {
			for _, rule := range core {
				errLogger.Printf("    %s\n", rule)
			}
		}
		errLogger.Println("Unsatisfiable spec.")
		return 1
	}

	if len(result.Answers) == 0 {
		errLogger.Println("concretize: internal error: satisfiable with no answers")
		return 1
	}
	best := result.Answers[0]
	if *jsonOut || *yaml {
		// formatting delegated to renderSpec; both -y and -j walk the same
		// cover-ordered node list, differing only in the marshaling branch.
	} else {
		outLogger.Printf("Optimization: %v\n", best.CostVector)
	}

	for _, name := range sortedRootNames(inputSpecs) {
		root, ok := best.Roots[name]
		if !ok {
			continue
		}
		nodes := coverNodes(root, *cover)
		switch {
		case *yaml:
			outLogger.Println(renderYAML(nodes, *namespaces, *types))
		case *jsonOut:
			outLogger.Println(renderJSON(nodes, *namespaces, *types))
		default:
			outLogger.Println(renderTree(nodes, *namespaces, *types))
		}
	}

	if *timers {
		for _, t := range result.Timings {
			outLogger.Printf("  %-10s %s\n", t.Phase, t.Duration)
		}
	}
	if *stats {
		for _, w := range result.Warnings {
			outLogger.Println(w)
		}
	}

	return 0
}

func sortedRootNames(specs []*concretize.Spec) []concretize.PackageName {
	out := make([]concretize.PackageName, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// parseShow splits --show's comma-separated value into a set, expanding
// "all" to every recognized selector.
func parseShow(raw string) (map[string]bool, error) {
	fields := regexp.MustCompile(`\s*,\s*`).Split(raw, -1)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == "all" {
			for _, o := range showOptions {
				if o != "all" {
					out[o] = true
				}
			}
			continue
		}
		valid := false
		for _, o := range showOptions {
			if o == f {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("invalid option for '--show': %q\nchoose from: (%s)", f, strings.Join(showOptions, ", "))
		}
		out[f] = true
	}
	return out, nil
}

func resetUsage(logger *log.Logger, fs *flag.FlagSet) {
	var flagBlock bytes.Buffer
	w := tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Fprintf(w, "\t-%s\t%s\n", f.Name, f.Usage)
	})
	w.Flush()
	fs.Usage = func() {
		logger.Println("Usage: concretize [flags] <spec> [<spec> ...]")
		logger.Println()
		logger.Println("Flags:")
		logger.Println(flagBlock.String())
	}
}
