package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/persistorai/persistor/client"
	"github.com/spf13/cobra"
)

func newRelationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: "Manage relations",
	}
	cmd.AddCommand(relationCreateCmd())
	cmd.AddCommand(relationListCmd())
	cmd.AddCommand(relationUpdateCmd())
	cmd.AddCommand(relationDeleteCmd())
	return cmd
}

func relationCreateCmd() *cobra.Command {
	var relType, propsJSON string
	cmd := &cobra.Command{
		Use:   "create <source> <target>",
		Short: "Create a relation",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateRelationRequest{
				Source: args[0],
				Target: args[1],
				Type:   relType,
			}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &req.Properties); err != nil {
					fatal("parse props", err)
				}
			}
			relation, err := apiClient.Relations.Create(context.Background(), req)
			if err != nil {
				fatal("create relation", err)
			}
			output(relation, fmt.Sprintf("%s->%s", relation.Source, relation.Target))
		},
	}
	cmd.Flags().StringVar(&relType, "type", "", "Relation type")
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as JSON")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func relationListCmd() *cobra.Command {
	var source, target, relType string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List relations",
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.RelationListOptions{
				Source: source,
				Target: target,
				Type:   relType,
				Limit:  limit,
			}
			relations, _, err := apiClient.Relations.List(context.Background(), opts)
			if err != nil {
				fatal("list relations", err)
			}
			if flagFmt == "table" {
				headers := []string{"SOURCE", "TARGET", "TYPE", "WEIGHT"}
				var rows [][]string
				for _, r := range relations {
					rows = append(rows, []string{r.Source, r.Target, r.Type, fmt.Sprintf("%.2f", r.Weight)})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, r := range relations {
					fmt.Printf("%s->%s:%s\n", r.Source, r.Target, r.Type)
				}
				return
			}
			output(relations, "")
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Filter by source")
	cmd.Flags().StringVar(&target, "target", "", "Filter by target")
	cmd.Flags().StringVar(&relType, "type", "", "Filter by type")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	return cmd
}

func relationUpdateCmd() *cobra.Command {
	var propsJSON string
	cmd := &cobra.Command{
		Use:   "update <source> <target> <type>",
		Short: "Update a relation",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateRelationRequest{}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &req.Properties); err != nil {
					fatal("parse props", err)
				}
			}
			relation, err := apiClient.Relations.Update(context.Background(), args[0], args[1], args[2], req)
			if err != nil {
				fatal("update relation", err)
			}
			output(relation, fmt.Sprintf("%s->%s", relation.Source, relation.Target))
		},
	}
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as JSON")
	return cmd
}

func relationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source> <target> <type>",
		Short: "Delete a relation",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Relations.Delete(context.Background(), args[0], args[1], args[2]); err != nil {
				fatal("delete relation", err)
			}
			fmt.Println("deleted")
		},
	}
}
