package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bidirectional synchronizer commands",
	}
	cmd.AddCommand(syncForwardCmd())
	cmd.AddCommand(syncCheckpointsCmd())
	cmd.AddCommand(syncQuarantineCmd())
	return cmd
}

func syncForwardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forward",
		Short: "Trigger a forward synchronization pass",
		Run: func(cmd *cobra.Command, args []string) {
			summary, err := apiClient.Sync.RunForward(context.Background())
			if err != nil {
				fatal("sync forward", err)
			}
			output(summary, "")
		},
	}
}

func syncCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoints",
		Short: "List synchronizer checkpoints",
		Run: func(cmd *cobra.Command, args []string) {
			checkpoints, err := apiClient.Sync.Checkpoints(context.Background())
			if err != nil {
				fatal("sync checkpoints", err)
			}
			if flagFmt == "table" {
				headers := []string{"DIRECTION", "TABLE", "CURSOR", "LAST_RUN"}
				var rows [][]string
				for _, cp := range checkpoints {
					rows = append(rows, []string{cp.Direction, cp.Table, cp.Cursor, cp.LastRunAt.Format("2006-01-02 15:04:05")})
				}
				formatTable(headers, rows)
				return
			}
			output(checkpoints, "")
		},
	}
}

func syncQuarantineCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "List rows the synchronizer could not reconcile automatically",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := apiClient.Sync.Quarantined(context.Background(), limit, offset)
			if err != nil {
				fatal("sync quarantine", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "DIRECTION", "TABLE", "ENTITY_ID", "REASON"}
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						fmt.Sprintf("%d", e.ID), e.Direction, e.Table, e.EntityID, e.Reason,
					})
				}
				formatTable(headers, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}
