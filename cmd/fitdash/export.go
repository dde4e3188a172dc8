package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/2beens/fitdash/internal/export"
	"github.com/2beens/fitdash/internal/filter"
	"github.com/2beens/fitdash/pkg"

	"github.com/spf13/cobra"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	f := &filterOptions{}
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the enriched records as parquet or csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			dirExists, err := pkg.PathExists(filepath.Dir(outPath), true)
			if err != nil {
				return fmt.Errorf("check output dir: %w", err)
			}
			if !dirExists {
				return fmt.Errorf("output dir does not exist: %s", filepath.Dir(outPath))
			}

			ctx := cmd.Context()
			_, ds, cleanup, err := root.loadDataset(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// an export defaults to the whole history
			defaults := filter.DefaultState(ds.Records)
			defaults.From, defaults.To = time.Time{}, time.Time{}
			state, err := filterState(cmd, f, defaults)
			if err != nil {
				return err
			}

			recs := filter.Apply(ds.Records, state)
			if err := export.WriteFile(ctx, outPath, exportFormat, recs); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(recs), outPath)
			return err
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file path")
	cmd.Flags().StringVar(&format, "format", string(export.FormatParquet), "output format [parquet | csv]")
	addFilterFlags(cmd, f)
	return cmd
}
