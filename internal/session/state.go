package session

import (
	"errors"
	"fmt"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/resume"
)

// Phase is the operation the session is currently waiting on.
type Phase int

const (
	Idle Phase = iota
	Extracting
	Fetching
	Analyzing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Fetching:
		return "fetching"
	case Analyzing:
		return "analyzing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Operation is a class of remote call the session runs.
type Operation int

const (
	OpExtract Operation = iota
	OpScrape
	OpAnalyze
)

func (o Operation) String() string {
	switch o {
	case OpExtract:
		return "extract"
	case OpScrape:
		return "scrape"
	case OpAnalyze:
		return "analyze"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// OpStatus is the outcome of the latest run of an operation.
type OpStatus int

const (
	StatusNone OpStatus = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s OpStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrBusy is returned by a trigger while another operation is in flight.
	ErrBusy = errors.New("session is busy")
	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("session is closed")
	// ErrNothingToDo is returned by a trigger that has no input to act on.
	ErrNothingToDo = errors.New("nothing to do")
)

// TaggedError is a failure of one operation, classified by kind.
type TaggedError struct {
	Op   Operation
	Kind faults.Kind
	Err  error
}

func newTaggedError(op Operation, err error) *TaggedError {
	return &TaggedError{Op: op, Kind: faults.KindOf(err), Err: err}
}

func (e *TaggedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TaggedError) Unwrap() error {
	return e.Err
}

// Input is what the user typed or picked. A zero File means no file is
// selected.
type Input struct {
	ResumeText     string
	File           resume.File
	JobDescription string
	JobLink        string
}

// HasFile reports whether a resume file is selected.
func (in Input) HasFile() bool {
	return !in.File.IsZero()
}

// ExtractionResult is the text extracted from the selected file.
type ExtractionResult struct {
	File resume.File
	Text string
}

// ScrapeResult is the job description fetched from JobLink.
type ScrapeResult struct {
	URL            string
	JobDescription string
}

// Statuses holds the latest OpStatus of each operation.
type Statuses struct {
	Extract OpStatus
	Scrape  OpStatus
	Analyze OpStatus
}

// Of returns the status of op.
func (s Statuses) Of(op Operation) OpStatus {
	switch op {
	case OpExtract:
		return s.Extract
	case OpScrape:
		return s.Scrape
	case OpAnalyze:
		return s.Analyze
	default:
		return StatusNone
	}
}

func (s *Statuses) set(op Operation, status OpStatus) {
	switch op {
	case OpExtract:
		s.Extract = status
	case OpScrape:
		s.Scrape = status
	case OpAnalyze:
		s.Analyze = status
	}
}

// Snapshot is a point-in-time copy of the session state. Callers own it.
type Snapshot struct {
	Phase Phase
	// Generation changes on Reset and Close. Completions started under an
	// older generation are discarded.
	Generation uint64
	Closed     bool

	Input      Input
	Extraction *ExtractionResult
	Scrape     *ScrapeResult
	Match      *resume.Match
	LastError  *TaggedError
	Status     Statuses
}

// EffectiveResumeText is the text Generate would analyze: the extracted file
// text once extraction succeeded, the pasted text otherwise.
func (s Snapshot) EffectiveResumeText() string {
	return effectiveResumeText(s.Input, s.Extraction)
}

func effectiveResumeText(in Input, extraction *ExtractionResult) string {
	if in.HasFile() && extraction != nil {
		return extraction.Text
	}
	return in.ResumeText
}

func (s Snapshot) clone() Snapshot {
	c := s
	if s.Extraction != nil {
		e := *s.Extraction
		c.Extraction = &e
	}
	if s.Scrape != nil {
		sc := *s.Scrape
		c.Scrape = &sc
	}
	if s.LastError != nil {
		le := *s.LastError
		c.LastError = &le
	}
	c.Match = s.Match.Clone()
	return c
}
