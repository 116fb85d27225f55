package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/backend"
	"github.com/spigell/jobflow/internal/resume"
	"github.com/spigell/jobflow/internal/session"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Long: `Score a resume against a job description.

The resume comes from --file (.pdf or .docx, extracted by the service) or
--resume-text-file. When both are given the extracted file text wins.
The job description comes from --job, --job-file or --url.`,
	Run: func(cmd *cobra.Command, _ []string) {
		e := setup()
		ctx := context.Background()

		opts := analyzeOptions{
			File:           cmd.Flag("file").Value.String(),
			ResumeTextFile: cmd.Flag("resume-text-file").Value.String(),
			Job: jobOptions{
				Text: cmd.Flag("job").Value.String(),
				File: cmd.Flag("job-file").Value.String(),
				URL:  cmd.Flag("url").Value.String(),
			},
		}

		direct, _ := cmd.Flags().GetBool("direct")
		if direct {
			if err := runAnalyzeFile(ctx, cmd.OutOrStdout(), e.client, opts); err != nil {
				e.logger.Fatal("analyzing resume file", zap.Error(err))
			}
			return
		}

		s, err := e.newSession(ctx)
		if err != nil {
			e.logger.Fatal("starting session", zap.Error(err))
		}
		defer s.Close()

		if err := runAnalyze(ctx, cmd.OutOrStdout(), s, opts); err != nil {
			e.logger.Fatal("analyzing resume", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("file", "f", "", "resume file (.pdf or .docx)")
	analyzeCmd.Flags().StringP("resume-text-file", "r", "", "file with plain resume text")
	analyzeCmd.Flags().Bool("direct", false, "upload --file together with the job description in a single request")
	addJobFlags(analyzeCmd)
}

type analyzeOptions struct {
	File           string
	ResumeTextFile string
	Job            jobOptions
}

// jobOptions are the ways a job description can be given on the command line.
type jobOptions struct {
	Text string
	File string
	URL  string
}

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "job description text")
	cmd.Flags().String("job-file", "", "file with the job description")
	cmd.Flags().StringP("url", "u", "", "job posting url to scrape")
}

// resolve returns the job description, scraping the url when no text was given.
func (o jobOptions) resolve(ctx context.Context, client *backend.Client) (string, error) {
	if text := strings.TrimSpace(o.Text); text != "" {
		return text, nil
	}
	if o.File != "" {
		return readText(o.File)
	}
	if o.URL != "" {
		return client.ScrapeJob(ctx, o.URL)
	}
	return "", nil
}

// runAnalyze drives a session through extract, fetch and generate.
func runAnalyze(ctx context.Context, w io.Writer, s *session.Session, opts analyzeOptions) error {
	if opts.ResumeTextFile != "" {
		text, err := readText(opts.ResumeTextFile)
		if err != nil {
			return err
		}
		if err := s.SetResumeText(text); err != nil {
			return err
		}
	}

	if opts.File != "" {
		if err := s.SelectFile(resume.NewFile(fs, opts.File)); err != nil {
			return err
		}
		if _, err := await(ctx, s, session.OpExtract); err != nil {
			return err
		}
	}

	switch {
	case strings.TrimSpace(opts.Job.Text) != "":
		if err := s.SetJobDescription(opts.Job.Text); err != nil {
			return err
		}
	case opts.Job.File != "":
		text, err := readText(opts.Job.File)
		if err != nil {
			return err
		}
		if err := s.SetJobDescription(text); err != nil {
			return err
		}
	case opts.Job.URL != "":
		if err := s.FetchJob(opts.Job.URL); err != nil {
			return err
		}
		if _, err := await(ctx, s, session.OpScrape); err != nil {
			return err
		}
	}

	if err := s.Generate(); err != nil {
		if errors.Is(err, session.ErrNothingToDo) {
			return errors.New("no resume text: pass --file or --resume-text-file")
		}
		return err
	}

	snap, err := await(ctx, s, session.OpAnalyze)
	if err != nil {
		return err
	}
	if snap.Match == nil {
		return fmt.Errorf("analysis finished without a result")
	}

	printMatch(w, snap.Match)
	return nil
}

// runAnalyzeFile sends the resume file and the job description in one request.
func runAnalyzeFile(ctx context.Context, w io.Writer, client *backend.Client, opts analyzeOptions) error {
	if opts.File == "" {
		return errors.New("--direct needs --file")
	}

	jobDescription, err := opts.Job.resolve(ctx, client)
	if err != nil {
		return err
	}

	match, err := client.AnalyzeFile(ctx, resume.NewFile(fs, opts.File), jobDescription)
	if err != nil {
		return err
	}

	printMatch(w, match)
	return nil
}
