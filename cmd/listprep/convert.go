package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/star2win/listprep/internal/csvio"
	"github.com/star2win/listprep/internal/pdftext"
	"github.com/star2win/listprep/internal/schema"
)

var (
	convertIn      string
	convertOut     string
	convertExclude []string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert extracted shop-report text into a shop-layout CSV.",
	Long: `Convert takes the text extracted from a printed customer report and
reduces it to one row per email address, in the shop source layout. The
result can then be fed to "run" as an incoming file with
--incoming-source shop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		if convertIn != "" {
			f, err := os.Open(convertIn)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		parser := pdftext.NewParser(convertExclude...)
		rows, err := parser.Parse(in)
		if err != nil {
			return err
		}

		out := os.Stdout
		if convertOut != "" {
			f, err := os.Create(convertOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return csvio.WriteTable(out, schema.Shop.Columns, pdftext.Records(rows))
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertIn, "in", "", "extracted report text (default: stdin)")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output CSV path (default: stdout)")
	convertCmd.Flags().StringArrayVar(&convertExclude, "exclude", nil, "report boilerplate phrase to drop, repeatable (replaces the defaults)")
}
