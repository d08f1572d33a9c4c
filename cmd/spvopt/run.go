package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spvopt/internal/config"
	"spvopt/internal/diag"
	"spvopt/internal/diagfmt"
	"spvopt/internal/driver"
	"spvopt/internal/opt"
)

var errOptimizeFailed = errors.New("optimization failed")

var runCmd = &cobra.Command{
	Use:   "run [flags] <file.spv>...",
	Short: "Run the optimizer pipeline on SPIR-V binaries",
	Long: `Run the configured passes on every input. Without -o or --out-dir the
results are checked but not written`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOptimize,
}

func init() {
	registerRunFlags(runCmd)
}

func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output file for a single input (- for stdout)")
	cmd.Flags().String("out-dir", "", "directory receiving every output under its input name")
	cmd.Flags().String("passes", "", "comma-separated pass list, overrides [pipeline].passes")
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().Bool("lenient", false, "report remap inconsistencies as warnings")
	cmd.Flags().Bool("cache", false, "reuse results from the disk cache")
	cmd.Flags().Bool("ui", false, "show interactive progress when stdout is a terminal")
	cmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json)")
}

// runOptions are the run flags resolved against the configuration.
type runOptions struct {
	*settings
	output string
	outDir string
	jobs   int
	ui     bool
	format string
	cache  *driver.DiskCache
}

func loadRunOptions(cmd *cobra.Command) (*runOptions, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	o := &runOptions{settings: s}
	flags := cmd.Flags()
	if o.output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if o.outDir, err = flags.GetString("out-dir"); err != nil {
		return nil, err
	}
	if o.jobs, err = flags.GetInt("jobs"); err != nil {
		return nil, err
	}
	if o.ui, err = flags.GetBool("ui"); err != nil {
		return nil, err
	}
	if o.format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	switch o.format {
	case "pretty", "short", "json":
	default:
		return nil, fmt.Errorf("unsupported format %q (must be pretty, short or json)", o.format)
	}
	if o.output != "" && o.outDir != "" {
		return nil, errors.New("-o and --out-dir are mutually exclusive")
	}

	if flags.Changed("passes") {
		passes, _ := flags.GetString("passes")
		s.cfg.Pipeline.Passes = config.SplitPasses(passes)
	}
	if flags.Changed("lenient") {
		s.cfg.Remap.Lenient, _ = flags.GetBool("lenient")
	}
	if useCache, _ := flags.GetBool("cache"); useCache {
		s.cfg.Cache.Enabled = true
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.cfg.Cache.Enabled {
		dir, err := s.cfg.CacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		if o.cache, err = driver.OpenDiskCache(dir); err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}
	return o, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	o, err := loadRunOptions(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, o.settings)
	if err != nil {
		return err
	}
	defer cleanup()

	if o.output == "-" {
		if len(args) != 1 {
			return fmt.Errorf("-o - needs exactly one input, got %d", len(args))
		}
		if isTerminal(os.Stdout) {
			return errors.New("refusing to write a binary module to a terminal; redirect stdout or use -o <file>")
		}
	}
	status, err := optimizeOnce(cmd.Context(), cmd, o, args)
	if err != nil {
		return err
	}
	if status == opt.Failure {
		return errOptimizeFailed
	}
	return nil
}

// optimizeOnce runs the batch, prints diagnostics and writes stdout output.
func optimizeOnce(ctx context.Context, cmd *cobra.Command, o *runOptions, files []string) (opt.Status, error) {
	req := driver.Request{
		Files:   files,
		Config:  o.cfg,
		Jobs:    o.jobs,
		OutDir:  o.outDir,
		Cache:   o.cache,
		Timings: o.timings,
	}
	if o.output != "-" {
		req.Output = o.output
	}

	var (
		results []driver.FileResult
		err     error
	)
	if o.ui && !o.quiet && isTerminal(os.Stdout) && o.output != "-" {
		results, err = runWithUI(ctx, "optimizing", &req)
	} else {
		results, err = driver.OptimizeFiles(ctx, req)
	}
	if err != nil {
		return opt.Failure, err
	}

	stderr := cmd.ErrOrStderr()
	for _, r := range results {
		if err := printDiagnostics(stderr, r.Bag, r.Path, o); err != nil {
			return opt.Failure, err
		}
	}
	if err := writeFailedTraces(ctx, stderr, results); err != nil {
		return opt.Failure, fmt.Errorf("write trace: %w", err)
	}
	if o.output == "-" && len(results) == 1 && results[0].Status != opt.Failure {
		if _, err := cmd.OutOrStdout().Write(results[0].Output); err != nil {
			return opt.Failure, fmt.Errorf("write stdout: %w", err)
		}
	}
	if !o.quiet {
		printSummary(stderr, results)
	}
	return driver.CombinedStatus(results), nil
}

func printDiagnostics(w io.Writer, bag *diag.Bag, path string, o *runOptions) error {
	if bag == nil {
		return nil
	}
	if o.quiet {
		bag.Filter(diag.SevWarning)
	}
	bag.Sort()
	switch o.format {
	case "json":
		return diagfmt.JSON(w, bag, path, diagfmt.JSONOpts{IncludeNotes: true})
	case "short":
		diagfmt.Short(w, bag, path)
	default:
		if bag.Len() == 0 && bag.Dropped() == 0 {
			return nil
		}
		diagfmt.Pretty(w, bag, path, diagfmt.PrettyOpts{Color: o.color, ShowNotes: o.timings})
	}
	return nil
}

func printSummary(w io.Writer, results []driver.FileResult) {
	counts := make(map[opt.Status]int)
	cached := 0
	for _, r := range results {
		counts[r.Status]++
		if r.Cached {
			cached++
		}
	}
	parts := []string{
		fmt.Sprintf("%d changed", counts[opt.Changed]),
		fmt.Sprintf("%d unchanged", counts[opt.NoChange]),
	}
	if n := counts[opt.Failure]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if cached > 0 {
		parts = append(parts, fmt.Sprintf("%d from cache", cached))
	}
	fmt.Fprintf(w, "spvopt: %s\n", strings.Join(parts, ", "))
}
