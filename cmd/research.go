package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/backend"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research the company behind a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		e := setup()

		opts := jobOptions{
			Text: cmd.Flag("job").Value.String(),
			File: cmd.Flag("job-file").Value.String(),
			URL:  cmd.Flag("url").Value.String(),
		}

		if err := runResearch(context.Background(), cmd.OutOrStdout(), e.client, opts); err != nil {
			e.logger.Fatal("researching company", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
	addJobFlags(researchCmd)
}

func runResearch(ctx context.Context, w io.Writer, client *backend.Client, opts jobOptions) error {
	jobDescription, err := opts.resolve(ctx, client)
	if err != nil {
		return err
	}
	if jobDescription == "" {
		return errors.New("a job description is required: pass --job, --job-file or --url")
	}

	research, err := client.ResearchCompany(ctx, jobDescription)
	if err != nil {
		return err
	}

	printResearch(w, research)
	return nil
}
