package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newEvolutionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evolution",
		Short: "Evolution Tracker commands",
	}
	cmd.AddCommand(evolutionSnapshotCmd())
	cmd.AddCommand(evolutionEvaluateCmd())
	return cmd
}

func evolutionSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Show the tenant's current evolution phase and signals",
		Run: func(cmd *cobra.Command, args []string) {
			snapshot, err := apiClient.Evolution.Snapshot(context.Background())
			if err != nil {
				fatal("evolution snapshot", err)
			}
			output(snapshot, snapshot.Phase)
		},
	}
}

func evolutionEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Check whether the tenant should advance to the next evolution phase",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := apiClient.Evolution.Evaluate(context.Background())
			if err != nil {
				fatal("evolution evaluate", err)
			}
			output(result, "")
		},
	}
}
