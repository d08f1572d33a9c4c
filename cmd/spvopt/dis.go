package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spvopt/internal/spirv"
)

var disCmd = &cobra.Command{
	Use:   "dis [flags] <file.spv>",
	Short: "Disassemble a SPIR-V binary",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisassemble,
}

func init() {
	disCmd.Flags().StringP("output", "o", "", "write the listing to a file instead of stdout")
}

func runDisassemble(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	m, err := spirv.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outPath == "" {
		return spirv.Disassemble(m, cmd.OutOrStdout())
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := spirv.Disassemble(m, w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
