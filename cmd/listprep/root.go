package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "listprep",
	Short:         "listprep cleans and reconciles contact-list exports.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd, serveCmd, sourcesCmd, convertCmd)
}
