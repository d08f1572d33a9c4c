package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spvopt/internal/config"
)

// settings are the resolved global flags plus the effective configuration.
type settings struct {
	cfg     config.Config
	color   bool
	quiet   bool
	timings bool
}

// loadSettings resolves spvopt.toml, the environment and the global flags.
// Flags win over the environment, which wins over the file.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Resolve(cfgPath, ".")
	if err != nil {
		return nil, err
	}
	if flags.Changed("max-diagnostics") {
		if cfg.Diagnostics.Max, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}

	useColor, err := applyColor(cmd)
	if err != nil {
		return nil, err
	}

	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return &settings{cfg: cfg, color: useColor, quiet: quiet, timings: timings}, nil
}

// applyColor sets the process-wide colour mode from --color.
func applyColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := resolveColor(colorFlag, isTerminal(os.Stderr))
	if err != nil {
		return false, err
	}
	color.NoColor = !useColor
	return useColor, nil
}

func resolveColor(flag string, tty bool) (bool, error) {
	switch flag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return tty, nil
	}
	return false, fmt.Errorf("invalid --color %q (expected auto|on|off)", flag)
}
