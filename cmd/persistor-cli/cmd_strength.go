package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStrengthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strength",
		Short: "Concept strength scoring commands",
	}
	cmd.AddCommand(strengthBoostCmd())
	cmd.AddCommand(strengthRecalcCmd())
	return cmd
}

func strengthBoostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boost <id>",
		Short: "Boost a concept's strength",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			concept, err := apiClient.Strength.Boost(context.Background(), args[0])
			if err != nil {
				fatal("boost", err)
			}
			output(concept, concept.ID)
		},
	}
}

func strengthRecalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc",
		Short: "Recalculate all strength scores",
		Run: func(cmd *cobra.Command, args []string) {
			updated, err := apiClient.Strength.Recalculate(context.Background())
			if err != nil {
				fatal("recalc", err)
			}
			if flagFmt == "quiet" {
				fmt.Println(updated)
				return
			}
			output(map[string]int{"updated": updated}, fmt.Sprintf("%d", updated))
		},
	}
}
