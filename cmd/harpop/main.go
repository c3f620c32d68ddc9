// Command harpop is a thin operation-pipeline front end: it accepts -a
// 'op;op;...' to attach an operation pipeline, following the convention
// other tools in this family (convert/filter/merge) use for the same
// flag. It ingests one or more files in parallel, binds the given
// operation string against each resulting product, runs the bound
// pipeline, and reports the result.
//
// Region/granule loading is parallelized here, over
// internal/ingest.DispatchParallel's worker pool; the operation
// pipeline itself stays single-threaded per product.
//
// Format-specific writers are out of scope here; this binary prints a
// summary of the resulting product rather than serializing it to any
// particular on-disk format.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harpgo/harp/internal/harperr"
	"github.com/harpgo/harp/internal/harplog"
	"github.com/harpgo/harp/internal/ingest"
	"github.com/harpgo/harp/internal/model"
	"github.com/harpgo/harp/internal/oplang"
	"github.com/harpgo/harp/internal/oplang/bind"
)

var (
	opFlag      string
	optionFlags []string
	workers     int
	skipErrors  bool
)

var rootCmd = &cobra.Command{
	Use:   "harpop FILE...",
	Short: "Apply an operation pipeline to one or more ingested products.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&opFlag, "apply", "a", "", `operation pipeline, e.g. "keep(lat,lon); lat < 45"`)
	rootCmd.Flags().StringArrayVarP(&optionFlags, "option", "o", nil, `ingestion option in "name=value" form; may be repeated`)
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel ingestion workers (0 = NumCPU)")
	rootCmd.Flags().BoolVar(&skipErrors, "skip-errors", true, "continue past files that fail to ingest")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := harplog.NewStderr("info")
	options, err := parseOptionFlags(optionFlags)
	if err != nil {
		return err
	}

	opts := ingest.DefaultLoadOptions()
	opts.Workers = workers
	opts.SkipErrors = skipErrors
	opts.ErrorLog = cmd.ErrOrStderr()

	products, errs := ingest.DispatchParallel(context.Background(), ingest.DefaultRegistry, args, options, opts)
	for _, e := range errs {
		logger.Log("msg", "ingest failed", "err", e)
	}

	var ast *oplang.OperationList
	if opFlag != "" {
		ast, err = oplang.NewParser(opFlag).Parse()
		if err != nil {
			return harperr.New(harperr.OperationSyntax, "parse -a %q: %v", opFlag, err)
		}
	}

	failed := false
	for i, product := range products {
		if product == nil {
			failed = true
			continue
		}
		if ast != nil {
			pl, err := bind.Bind(opFlag, ast, product, nil)
			if err != nil {
				failed = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: bind failed: %v\n", args[i], err)
				continue
			}
			product, err = pl.Run(product)
			if err != nil {
				failed = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: run failed: %v\n", args[i], err)
				continue
			}
		}
		printProduct(cmd, args[i], product)
	}

	if failed || len(errs) > 0 {
		return harperr.New(harperr.Operation, "one or more files failed")
	}
	return nil
}

func printProduct(cmd *cobra.Command, path string, product *model.Product) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", path)
	names := make([]string, 0, len(product.Variables()))
	for _, v := range product.Variables() {
		names = append(names, v.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		v, _ := product.Variable(name)
		unit := v.Unit()
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %-10s dims=%v unit=%s\n",
			v.Name(), v.ElementType(), v.DimensionLengths(), unit)
	}
	if history := product.History(); len(history) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  history:\n")
		for _, line := range history {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", line)
		}
	}
}

func parseOptionFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	options := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, harperr.New(harperr.InvalidArgument, "malformed --option %q, want name=value", f)
		}
		options[name] = value
	}
	return options, nil
}
