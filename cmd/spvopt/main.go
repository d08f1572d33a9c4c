package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"spvopt/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "spvopt",
	Short: "SPIR-V module optimizer",
	Long: `spvopt promotes single-function Private variables to Function scope
and renumbers ids canonically so equivalent modules compare equal`,
	SilenceUsage: true,
}

// main registers subcommands and persistent flags, then executes the root
// command. A failed command exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file (0=unlimited)")
	rootCmd.PersistentFlags().String("config", "", "path to spvopt.toml (default: nearest one above the working directory)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to a file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "", "trace storage (stream|ring|both); ring prints the trace of failed modules")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
