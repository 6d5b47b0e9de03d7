// cmd/counselctl/sla.go
package main

import (
	"github.com/spf13/cobra"

	"counsel-workers/internal/scheduler"
	"counsel-workers/internal/store"
)

var slaHours int

var slaCmd = &cobra.Command{
	Use:   "sla",
	Short: "First-contact SLA tools",
}

var slaSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "List NEW cases that missed the first-contact SLA",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		hours := slaHours
		if hours <= 0 {
			hours = s.cfg.Pipeline.SLAHours
		}
		sweeper := scheduler.NewSweeper(store.NewCaseStore(s.pg.DB, log), s.redis, hours, log)
		res, err := sweeper.Sweep(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	slaSweepCmd.Flags().IntVar(&slaHours, "hours", 0, "SLA in hours (default: pipeline.sla_hours)")
	slaCmd.AddCommand(slaSweepCmd)
	rootCmd.AddCommand(slaCmd)
}
