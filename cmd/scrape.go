package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/faults"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape URL",
	Short: "Fetch the job description behind a job posting URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := setup()

		jobDescription, err := e.client.ScrapeJob(context.Background(), args[0])
		if err != nil {
			e.logger.Fatal("scraping job posting", zap.Error(err), zap.Stringer("kind", faults.KindOf(err)))
		}

		fmt.Fprintln(cmd.OutOrStdout(), jobDescription)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
