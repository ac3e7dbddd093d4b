package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/star2win/listprep/internal/config"
	"github.com/star2win/listprep/internal/core"
	"github.com/star2win/listprep/internal/csvio"
	"github.com/star2win/listprep/internal/logging"
	"github.com/star2win/listprep/internal/schema"
)

var (
	runMaster         string
	runSource         string
	runIncoming       []string
	runIncomingSource string
	runBounced        string
	runUnsubscribed   string
	runExcluded       string
	runExcludedTag    string
	runOut            string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one hygiene pass over a master list and write the merged CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

		if _, ok := schema.Get(runSource); !ok {
			return fmt.Errorf("unknown source %q (known: %s)", runSource, strings.Join(schema.Keys(), ", "))
		}

		req := core.RunRequest{
			Source:         runSource,
			IncomingSource: runIncomingSource,
			ExcludedTag:    runExcludedTag,
		}

		master, err := os.Open(runMaster)
		if err != nil {
			return err
		}
		defer master.Close()
		req.Master = core.RunInput{Name: filepath.Base(runMaster), Reader: master}

		for _, path := range runIncoming {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			req.Incoming = append(req.Incoming, core.RunInput{
				Name:   filepath.Base(path),
				Reader: f,
			})
		}

		var closer io.Closer
		if req.Bounced, closer, err = openOptional(runBounced); err != nil {
			return err
		} else if closer != nil {
			defer closer.Close()
		}
		if req.Unsubscribed, closer, err = openOptional(runUnsubscribed); err != nil {
			return err
		} else if closer != nil {
			defer closer.Close()
		}
		if req.Excluded, closer, err = openOptional(runExcluded); err != nil {
			return err
		} else if closer != nil {
			defer closer.Close()
		}

		service := core.NewService(cfg.Run, nil)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Timeout)
		defer cancel()

		result, err := service.RunHygiene(ctx, req, func(p core.RunProgress) {
			slog.Debug("run progress", "phase", p.Phase, "records", p.Records)
		})
		if err != nil {
			return err
		}

		out := os.Stdout
		if runOut != "" {
			f, err := os.Create(runOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := csvio.WriteTable(out, result.Columns, result.Rows); err != nil {
			return err
		}

		slog.Info("run complete",
			"master_rows", result.Stats.MasterRows,
			"incoming_rows", result.Stats.IncomingRows,
			"output_records", result.Stats.OutputRecords,
			"annotated", result.Stats.Annotated,
			"duration", result.Duration,
		)
		return nil
	},
}

// openOptional opens a suppression-list path, or returns nils when the flag
// was not given. The caller owns closing the returned file.
func openOptional(path string) (*core.RunInput, io.Closer, error) {
	if path == "" {
		return nil, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return &core.RunInput{Name: filepath.Base(path), Reader: f}, f, nil
}

func init() {
	runCmd.Flags().StringVar(&runMaster, "master", "", "authoritative contact CSV (required)")
	runCmd.Flags().StringVar(&runSource, "source", "crm", "source key describing the master layout")
	runCmd.Flags().StringArrayVar(&runIncoming, "incoming", nil, "incoming contact CSV, repeatable")
	runCmd.Flags().StringVar(&runIncomingSource, "incoming-source", "", "source key for the incoming files (defaults to --source)")
	runCmd.Flags().StringVar(&runBounced, "bounced", "", "bounced-address export")
	runCmd.Flags().StringVar(&runUnsubscribed, "unsubscribed", "", "unsubscribed-address export")
	runCmd.Flags().StringVar(&runExcluded, "excluded", "", "extra suppression export")
	runCmd.Flags().StringVar(&runExcludedTag, "excluded-tag", "", "note tag for --excluded matches")
	runCmd.Flags().StringVar(&runOut, "out", "", "output CSV path (default: stdout)")
	runCmd.MarkFlagRequired("master")
}
