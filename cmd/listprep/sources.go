package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/star2win/listprep/internal/schema"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered source layouts.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, src := range schema.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", src.Key, src.Label)
			fmt.Fprintf(cmd.OutOrStdout(), "           columns: %s\n", strings.Join(src.OutputColumns(), ", "))
		}
		return nil
	},
}
