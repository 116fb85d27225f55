package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/resume"
)

// SelectFile selects a resume file and starts extracting its text. An
// unsupported file type is recorded as the last error and returned; nothing
// is sent.
func (s *Session) SelectFile(file resume.File) error {
	return s.trigger(func() error {
		if _, err := file.MIMEType(); err != nil {
			s.st.LastError = newTaggedError(OpExtract, err)
			s.st.Status.set(OpExtract, StatusFailed)
			s.log().Warn("file rejected",
				zap.String("file", file.Name()),
				zap.Stringer(logger.FieldErrorKind, s.st.LastError.Kind),
			)
			return err
		}

		s.st.Input.File = file
		s.st.Extraction = nil

		launch(s, OpExtract, Extracting,
			func(ctx context.Context) (string, error) {
				return s.svc.Extractor.ExtractText(ctx, file)
			},
			func(text string) {
				s.st.Extraction = &ExtractionResult{File: file, Text: text}
			},
		)
		return nil
	})
}

// RemoveFile clears the selected file and its extracted text, making the
// pasted text effective again.
func (s *Session) RemoveFile() error {
	return s.trigger(func() error {
		if !s.st.Input.HasFile() {
			return ErrNothingToDo
		}

		s.st.Input.File = resume.File{}
		s.st.Extraction = nil
		s.st.Status.set(OpExtract, StatusNone)
		s.log().Debug("file removed")
		return nil
	})
}

// FetchJob scrapes url and replaces the job description with the result.
// An empty url does nothing.
func (s *Session) FetchJob(url string) error {
	return s.trigger(func() error {
		url = strings.TrimSpace(url)
		if url == "" {
			return ErrNothingToDo
		}

		s.st.Input.JobLink = url
		s.st.Scrape = nil

		launch(s, OpScrape, Fetching,
			func(ctx context.Context) (string, error) {
				return s.svc.Scraper.ScrapeJob(ctx, url)
			},
			func(jobDescription string) {
				s.st.Scrape = &ScrapeResult{URL: url, JobDescription: jobDescription}
				s.st.Input.JobDescription = jobDescription
			},
		)
		return nil
	})
}

// Generate analyzes the effective resume text against the job description.
// It does nothing when there is no resume text. A failure keeps the previous
// match.
func (s *Session) Generate() error {
	return s.trigger(func() error {
		resumeText := effectiveResumeText(s.st.Input, s.st.Extraction)
		if strings.TrimSpace(resumeText) == "" {
			return ErrNothingToDo
		}
		jobDescription := s.st.Input.JobDescription

		launch(s, OpAnalyze, Analyzing,
			func(ctx context.Context) (*resume.Match, error) {
				match, err := s.svc.Analyzer.Analyze(ctx, resumeText, jobDescription)
				if err == nil && match == nil {
					return nil, faults.New(faults.Protocol, OpAnalyze.String(), "analyzer returned no result")
				}
				return match, err
			},
			func(match *resume.Match) {
				s.st.Match = match
			},
		)
		return nil
	})
}

// SetResumeText replaces the pasted resume text. It is allowed in any phase.
func (s *Session) SetResumeText(text string) error {
	return s.edit(func(in *Input) { in.ResumeText = text })
}

// SetJobDescription replaces the job description. It is allowed in any phase.
func (s *Session) SetJobDescription(text string) error {
	return s.edit(func(in *Input) { in.JobDescription = text })
}

// SetJobLink replaces the job link without fetching it.
func (s *Session) SetJobLink(url string) error {
	return s.edit(func(in *Input) { in.JobLink = url })
}

func (s *Session) edit(fn func(in *Input)) error {
	return s.do(func() error {
		if s.st.Closed {
			return ErrClosed
		}
		fn(&s.st.Input)
		return nil
	})
}

// trigger runs fn on the loop if the session is idle.
func (s *Session) trigger(fn func() error) error {
	return s.do(func() error {
		switch {
		case s.st.Closed:
			return ErrClosed
		case s.st.Phase != Idle:
			s.log().Debug("trigger ignored while busy")
			return ErrBusy
		}
		return fn()
	})
}

// launch moves the session into phase and runs call off the loop. The
// completion is applied on the loop only if the generation is unchanged.
func launch[T any](s *Session, op Operation, phase Phase, call func(ctx context.Context) (T, error), apply func(T)) {
	ctx, cancel := context.WithCancel(s.ctx)
	generation := s.st.Generation

	s.opCancel = cancel
	s.st.Phase = phase
	s.st.LastError = nil
	s.st.Status.set(op, StatusRunning)
	s.log().Debug("operation started", zap.Stringer(logger.FieldOp, op))

	go func() {
		defer cancel()

		result, err := call(ctx)

		s.post(func() {
			if generation != s.st.Generation {
				s.logger.Debug("discarded stale completion",
					zap.Stringer(logger.FieldOp, op),
					zap.Uint64(logger.FieldGeneration, generation),
					zap.Uint64("current_generation", s.st.Generation),
				)
				return
			}

			s.opCancel = nil
			s.st.Phase = Idle

			if err != nil {
				s.st.LastError = newTaggedError(op, err)
				s.st.Status.set(op, StatusFailed)
				s.log().Warn("operation failed",
					zap.Stringer(logger.FieldOp, op),
					zap.Stringer(logger.FieldErrorKind, s.st.LastError.Kind),
					zap.Error(err),
				)
				return
			}

			apply(result)
			s.st.Status.set(op, StatusSucceeded)
			s.log().Debug("operation succeeded", zap.Stringer(logger.FieldOp, op))
		})
	}()
}
