package main

import (
	"context"
	"fmt"

	"github.com/persistorai/persistor/client"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var mode string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the concept graph",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			query := args[0]

			switch mode {
			case "text":
				opts := &client.SearchOptions{Limit: limit}
				concepts, err := apiClient.Search.FullText(ctx, query, opts)
				if err != nil {
					fatal("search", err)
				}
				if flagFmt == "table" {
					printConceptTable(concepts)
					return
				}
				output(concepts, "")

			case "vector":
				scored, err := apiClient.Search.Semantic(ctx, query, limit)
				if err != nil {
					fatal("search", err)
				}
				if flagFmt == "table" {
					headers := []string{"ID", "LABEL", "TYPE", "SCORE"}
					var rows [][]string
					for _, c := range scored {
						rows = append(rows, []string{c.ID, c.Label, c.Type, fmt.Sprintf("%.4f", c.Score)})
					}
					formatTable(headers, rows)
					return
				}
				output(scored, "")

			default: // hybrid
				opts := &client.SearchOptions{Limit: limit}
				concepts, err := apiClient.Search.Hybrid(ctx, query, opts)
				if err != nil {
					fatal("search", err)
				}
				if flagFmt == "table" {
					printConceptTable(concepts)
					return
				}
				output(concepts, "")
			}
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "Search mode: text|vector|hybrid")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	return cmd
}

func printConceptTable(concepts []client.Concept) {
	headers := []string{"ID", "LABEL", "TYPE", "STRENGTH"}
	var rows [][]string
	for _, c := range concepts {
		rows = append(rows, []string{c.ID, c.Label, c.Type, fmt.Sprintf("%.2f", c.Strength)})
	}
	formatTable(headers, rows)
}
