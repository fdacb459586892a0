package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/persistorai/persistor/client"
	"github.com/spf13/cobra"
)

func newConceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concept",
		Short: "Manage concepts",
	}
	cmd.AddCommand(conceptCreateCmd())
	cmd.AddCommand(conceptGetCmd())
	cmd.AddCommand(conceptUpdateCmd())
	cmd.AddCommand(conceptMergeCmd())
	cmd.AddCommand(conceptDeleteCmd())
	cmd.AddCommand(conceptListCmd())
	cmd.AddCommand(conceptHistoryCmd())
	return cmd
}

func conceptCreateCmd() *cobra.Command {
	var conceptType, propsJSON string
	cmd := &cobra.Command{
		Use:   "create <label>",
		Short: "Create a concept",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateConceptRequest{
				Label: args[0],
				Type:  conceptType,
			}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &req.Properties); err != nil {
					fatal("parse props", err)
				}
			}
			concept, err := apiClient.Concepts.Create(context.Background(), req)
			if err != nil {
				fatal("create concept", err)
			}
			output(concept, concept.ID)
		},
	}
	cmd.Flags().StringVar(&conceptType, "type", "", "Concept type")
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as JSON")
	return cmd
}

func conceptGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a concept by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			concept, err := apiClient.Concepts.Get(context.Background(), args[0])
			if err != nil {
				fatal("get concept", err)
			}
			output(concept, concept.ID)
		},
	}
}

func conceptUpdateCmd() *cobra.Command {
	var label, conceptType, propsJSON string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a concept",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateConceptRequest{}
			if label != "" {
				req.Label = &label
			}
			if conceptType != "" {
				req.Type = &conceptType
			}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &req.Properties); err != nil {
					fatal("parse props", err)
				}
			}
			concept, err := apiClient.Concepts.Update(context.Background(), args[0], req)
			if err != nil {
				fatal("update concept", err)
			}
			output(concept, concept.ID)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Concept label")
	cmd.Flags().StringVar(&conceptType, "type", "", "Concept type")
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as JSON")
	return cmd
}

func conceptMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <winner-id> <loser-id>",
		Short: "Merge a duplicate concept into a surviving one",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			result, err := apiClient.Concepts.Merge(context.Background(), args[0], args[1])
			if err != nil {
				fatal("merge concept", err)
			}
			output(result, "")
		},
	}
}

func conceptDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a concept",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Concepts.Delete(context.Background(), args[0]); err != nil {
				fatal("delete concept", err)
			}
			fmt.Println("deleted")
		},
	}
}

func conceptListCmd() *cobra.Command {
	var conceptType string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List concepts",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.ConceptListOptions{
				Type:   conceptType,
				Limit:  limit,
				Offset: offset,
			}
			concepts, _, err := apiClient.Concepts.List(context.Background(), opts)
			if err != nil {
				fatal("list concepts", err)
			}
			if flagFmt == "table" {
				printConceptTable(concepts)
				return
			}
			if flagFmt == "quiet" {
				for _, c := range concepts {
					fmt.Println(c.ID)
				}
				return
			}
			output(concepts, "")
		},
	}
	cmd.Flags().StringVar(&conceptType, "type", "", "Filter by type")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func conceptHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show property change history for a concept",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			changes, _, err := apiClient.Concepts.History(context.Background(), args[0], "", 50, 0)
			if err != nil {
				fatal("get history", err)
			}
			output(changes, "")
		},
	}
}
