package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/resume"
	"github.com/spigell/jobflow/internal/session"
)

const (
	PromptSelectFile     = "Select resume file"
	PromptRemoveFile     = "Remove resume file"
	PromptPasteResume    = "Paste resume text"
	PromptJobDescription = "Set job description"
	PromptFetchJob       = "Fetch job posting"
	PromptGenerate       = "Generate match analysis"
	PromptStatus         = "Show status"
	PromptReset          = "Start over"
	PromptQuit           = "Quit"
)

var errExit = errors.New("exit requested")

var toolsPrompt = promptui.Select{
	Label: "Resume tools",
	Items: []string{
		PromptSelectFile, PromptRemoveFile, PromptPasteResume, PromptJobDescription,
		PromptFetchJob, PromptGenerate, PromptStatus, PromptReset, PromptQuit,
	},
	Size: 9,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Interactive resume tools: pick a resume, fetch a job posting and score the match",
	Run: func(cmd *cobra.Command, _ []string) {
		e := setup()
		ctx := context.Background()

		s, err := e.newSession(ctx)
		if err != nil {
			e.logger.Fatal("starting session", zap.Error(err))
		}
		defer s.Close()

		stop := watchPhases(s, e.logger)
		defer stop()

		for {
			_, action, err := toolsPrompt.Run()
			if err != nil {
				e.logger.Info("exiting", zap.Error(err))
				return
			}

			if err := handleToolsAction(ctx, cmd.OutOrStdout(), s, action, promptLine); err != nil {
				if errors.Is(err, errExit) {
					return
				}
				e.logger.Warn(action, zap.Error(err))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

// asker reads one line of input for label.
type asker func(label string) (string, error)

func promptLine(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

func handleToolsAction(ctx context.Context, w io.Writer, s *session.Session, action string, ask asker) error {
	var (
		op      session.Operation
		started error
	)

	switch action {
	case PromptSelectFile:
		path, err := ask("Path to .pdf or .docx")
		if err != nil {
			return err
		}
		op, started = session.OpExtract, s.SelectFile(resume.NewFile(fs, strings.TrimSpace(path)))
	case PromptRemoveFile:
		if err := s.RemoveFile(); err != nil && !errors.Is(err, session.ErrNothingToDo) {
			return err
		}
		printSnapshot(w, s.Snapshot())
		return nil
	case PromptPasteResume:
		text, err := ask("Resume text")
		if err != nil {
			return err
		}
		return s.SetResumeText(text)
	case PromptJobDescription:
		text, err := ask("Job description")
		if err != nil {
			return err
		}
		return s.SetJobDescription(text)
	case PromptFetchJob:
		url, err := ask("Job posting url")
		if err != nil {
			return err
		}
		op, started = session.OpScrape, s.FetchJob(url)
	case PromptGenerate:
		op, started = session.OpAnalyze, s.Generate()
	case PromptStatus:
		printSnapshot(w, s.Snapshot())
		return nil
	case PromptReset:
		return s.Reset()
	case PromptQuit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	switch {
	case errors.Is(started, session.ErrNothingToDo):
		fmt.Fprintln(w, "Nothing to do.")
		return nil
	case started != nil:
		return started
	}

	snap, err := await(ctx, s, op)
	var failed *session.TaggedError
	if errors.As(err, &failed) {
		fmt.Fprintf(w, "Status: %s\n", statusLine(snap))
		return nil
	}
	if err != nil {
		return err
	}

	printSnapshot(w, snap)
	return nil
}

// watchPhases logs every phase change of s until the returned func is called.
func watchPhases(s *session.Session, log *zap.Logger) func() {
	updates, cancel := s.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)

		last := session.Idle
		for snap := range updates {
			if snap.Phase == last {
				continue
			}
			last = snap.Phase
			log.Debug("phase changed",
				zap.Stringer(logger.FieldPhase, snap.Phase),
				zap.Uint64(logger.FieldGeneration, snap.Generation),
			)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
