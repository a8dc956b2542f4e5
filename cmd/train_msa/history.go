package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurlang/msahmm/device"
	"github.com/neurlang/msahmm/history"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored runs or show the per-epoch loss of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("history")
			dsn, _ := cmd.Flags().GetString("history-dsn")
			store, err := history.NewStore(kind, dsn)
			if err != nil {
				return err
			}
			defer history.CloseIfSupported(store)

			ctx := context.Background()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				ids, err := store.List(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}
			h, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "run %s started %s, %d steps\n", h.RunID, h.Started.Format("2006-01-02 15:04:05"), h.Steps())
			for e := range h.Epochs {
				fmt.Fprintf(out, "epoch %d\t%d steps\tloss %.4f\n", e+1, len(h.Epochs[e].Losses), h.EpochMean(e))
			}
			return nil
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the compute devices a run would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devs, err := device.System.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range devs {
				fmt.Fprintln(out, d.String())
			}
			if n := device.Count(devs, device.GPU); n > 1 {
				fmt.Fprintf(out, "strategy: data-parallel over %d replicas\n", n)
			} else {
				fmt.Fprintln(out, "strategy: single-device")
			}
			return nil
		},
	}
}
