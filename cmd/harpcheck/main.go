// Command harpcheck is a verify tool: for each file given on the
// command line, it runs ingestion dispatch against
// ingest.DefaultRegistry with the option set given by --option (the
// same set for every file) and reports each ingested variable's type,
// shape and unit. It does not enumerate option combinations itself:
// each file is dispatched once, through the first registered module
// that detects it, and warnings raised during ingestion are not
// reported. Exit status is 0 iff every file ingested successfully.
//
// The per-format ingestion backends themselves are out of scope here;
// this binary is a thin, backend-agnostic front end. Concrete backends
// register into ingest.DefaultRegistry from their own init(), the way
// database/sql drivers register by blank import; this binary imports
// none by default and will report "no module recognizes" until one is
// linked in.
//
// Built on spf13/cobra with a straight-line main that reports parsed
// structure to stdout; its one flag (--option) needs repeatable
// key=value parsing, which pflag already provides.
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
)

var optionFlags []string

var rootCmd = &cobra.Command{
	Use:   "harpcheck FILE...",
	Short: "Exercise ingestion dispatch for one or more files and report the result.",
	Long: `harpcheck ingests each FILE once, through the first registered module that
recognizes it and with the option set given by --option, printing each
ingested variable's type, shape, and unit. Exit status is 0 iff every file
ingested successfully.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.Flags().StringArrayVarP(&optionFlags, "option", "o", nil,
		`ingestion option in "name=value" form; may be repeated`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := harplog.NewStderr("info")
	options, err := parseOptionFlags(optionFlags)
	if err != nil {
		return err
	}

	ok := true
	for _, path := range args {
		product, err := ingest.DefaultRegistry.Dispatch(context.Background(), path, options)
		if err != nil {
			ok = false
			logger.Log("msg", "ingest failed", "file", path, "err", err)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: FAILED: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", path)
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
	}
	if !ok {
		return harperr.New(harperr.Ingestion, "one or more files failed to ingest")
	}
	return nil
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
