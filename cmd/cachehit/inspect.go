package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachehit/loader"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <binary>",
	Short: "List the annotation entry points of an ELF binary.",
	Long: "`inspect a.out` lists the annotation functions an instrumentation " +
		"engine would hook in the binary and fails if a region entry point " +
		"is missing.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspect(w io.Writer, path string) error {
	img, err := loader.Load(path)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Image %s (%v, entry 0x%x)\n", img.Path, img.Machine, img.EntryPoint)
	for _, e := range img.Entries {
		_, _ = fmt.Fprintf(w, "Found %s (%s) at 0x%x\n", e.Symbol, e.Kind, e.Addr)
	}

	if !img.Annotated() {
		return fmt.Errorf("%s has no region annotations", path)
	}
	if len(img.Find(loader.EntryTaskBegin)) > 0 {
		_, _ = fmt.Fprintln(w, "Task annotations are present but will not be profiled")
	}

	return nil
}
