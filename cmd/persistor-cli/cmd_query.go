package main

import (
	"context"
	"encoding/json"

	"github.com/persistorai/persistor/client"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query Router commands",
	}
	cmd.AddCommand(queryExecCmd())
	cmd.AddCommand(queryExplainCmd())
	return cmd
}

func buildQueryRequest(queryText string, limit int, filtersJSON, forceKind string) *client.QueryRequest {
	req := &client.QueryRequest{Query: queryText, Limit: limit, ForceKind: forceKind}
	if filtersJSON != "" {
		if err := json.Unmarshal([]byte(filtersJSON), &req.Filters); err != nil {
			fatal("parse filters", err)
		}
	}
	return req
}

func queryExecCmd() *cobra.Command {
	var limit int
	var filtersJSON, forceKind string
	cmd := &cobra.Command{
		Use:   "exec <query>",
		Short: "Route and execute a query",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := buildQueryRequest(args[0], limit, filtersJSON, forceKind)
			result, err := apiClient.Query.Execute(context.Background(), req)
			if err != nil {
				fatal("query exec", err)
			}
			output(result, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().StringVar(&filtersJSON, "filters", "", "Filters as JSON")
	cmd.Flags().StringVar(&forceKind, "force-kind", "", "Force routing to sql|semantic|hybrid")
	return cmd
}

func queryExplainCmd() *cobra.Command {
	var limit int
	var filtersJSON, forceKind string
	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Show how a query would be routed, without running it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := buildQueryRequest(args[0], limit, filtersJSON, forceKind)
			result, err := apiClient.Query.Explain(context.Background(), req)
			if err != nil {
				fatal("query explain", err)
			}
			output(result, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().StringVar(&filtersJSON, "filters", "", "Filters as JSON")
	cmd.Flags().StringVar(&forceKind, "force-kind", "", "Force routing to sql|semantic|hybrid")
	return cmd
}
