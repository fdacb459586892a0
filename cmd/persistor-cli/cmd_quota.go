package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show tenant quota and rate limit usage",
		Run: func(cmd *cobra.Command, args []string) {
			usage, err := apiClient.Quota.Usage(context.Background())
			if err != nil {
				fatal("quota", err)
			}
			if flagFmt == "table" {
				formatTable(
					[]string{"METRIC", "USED", "LIMIT"},
					[][]string{
						{"Queries/min", fmt.Sprintf("%.1f", usage.QPMUsed), fmt.Sprintf("%d", usage.QPMLimit)},
						{"API calls/sec", fmt.Sprintf("%.1f", usage.APIQPSUsed), fmt.Sprintf("%d", usage.APIQPSLimit)},
						{"Monthly queries", fmt.Sprintf("%d", usage.MonthlyUsed), fmt.Sprintf("%d", usage.MonthlyLimit)},
					},
				)
				return
			}
			output(usage, "")
		},
	}
}
