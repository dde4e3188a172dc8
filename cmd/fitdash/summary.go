package main

import (
	"encoding/json"
	"fmt"

	"github.com/2beens/fitdash/internal/dashboard"
	"github.com/2beens/fitdash/internal/dataset"
	"github.com/2beens/fitdash/internal/filter"

	"github.com/spf13/cobra"
)

func newSummaryCmd(root *rootOptions) *cobra.Command {
	f := &filterOptions{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard views for a selection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, ds, cleanup, err := root.loadDataset(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := filterState(cmd, f, filter.DefaultState(ds.Records))
			if err != nil {
				return err
			}

			store := dataset.NewStore(nil, cfg.DataCsvPath)
			store.Set(ds)
			service := dashboard.NewService(store, nil, dashboard.Goals{
				Steps:       cfg.StepGoal,
				HeartPoints: cfg.HeartPointsGoal,
			})
			view, err := service.Dashboard(ctx, ds, state)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal dashboard: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	addFilterFlags(cmd, f)
	return cmd
}
