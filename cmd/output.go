package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/spigell/jobflow/internal/resume"
	"github.com/spigell/jobflow/internal/session"
)

// fs is where resume files and text files are read from.
var fs = afero.NewOsFs()

// await blocks until s is idle and returns the error op left behind, if any.
func await(ctx context.Context, s *session.Session, op session.Operation) (session.Snapshot, error) {
	if err := s.WaitIdle(ctx); err != nil {
		return session.Snapshot{}, err
	}

	snap := s.Snapshot()
	if snap.LastError != nil && snap.LastError.Op == op {
		return snap, snap.LastError
	}

	return snap, nil
}

func readText(path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", path, err)
	}
	return string(data), nil
}

func printMatch(w io.Writer, match *resume.Match) {
	fmt.Fprintf(w, "Match score: %d/%d\n", match.Score, resume.MaxScore)
	if match.Adjusted {
		fmt.Fprintf(w, "  (reported as %v)\n", match.RawScore)
	}

	if match.Justification != "" {
		fmt.Fprintf(w, "\n%s\n", match.Justification)
	}

	if len(match.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for i, suggestion := range match.Suggestions {
			fmt.Fprintf(w, "%d. %s\n", i+1, suggestion)
		}
	}
}

func printResearch(w io.Writer, research *resume.CompanyResearch) {
	sections := research.Sections()
	if len(sections) == 0 {
		fmt.Fprintln(w, "No research available.")
		return
	}

	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n%s\n", section[0], strings.TrimSpace(section[1]))
	}
}

var phaseText = map[session.Phase]string{
	session.Idle:       "Ready",
	session.Extracting: "Extracting resume text...",
	session.Fetching:   "Fetching job posting...",
	session.Analyzing:  "Analyzing match...",
}

// statusLine is the one-line status shown by the interactive view.
func statusLine(snap session.Snapshot) string {
	if snap.Phase != session.Idle {
		return phaseText[snap.Phase]
	}
	if snap.LastError != nil {
		return fmt.Sprintf("%s failed (%s error): %v", snap.LastError.Op, snap.LastError.Kind, snap.LastError.Err)
	}
	return phaseText[session.Idle]
}

func printSnapshot(w io.Writer, snap session.Snapshot) {
	fmt.Fprintf(w, "Status: %s\n", statusLine(snap))

	file := "none"
	if snap.Input.HasFile() {
		file = fmt.Sprintf("%s (%s)", snap.Input.File.Name(), snap.Status.Extract)
	}
	fmt.Fprintf(w, "Resume file: %s\n", file)
	fmt.Fprintf(w, "Resume text: %d characters\n", len([]rune(snap.EffectiveResumeText())))
	if snap.Input.JobLink != "" {
		fmt.Fprintf(w, "Job link: %s (%s)\n", snap.Input.JobLink, snap.Status.Scrape)
	}
	fmt.Fprintf(w, "Job description: %d characters\n", len([]rune(snap.Input.JobDescription)))

	if snap.Match != nil {
		fmt.Fprintln(w)
		printMatch(w, snap.Match)
	}
}
