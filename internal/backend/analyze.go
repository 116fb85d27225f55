package backend

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/formdata"
	"github.com/spigell/jobflow/internal/resume"
)

const (
	opAnalyze     = "analyze"
	opAnalyzeFile = "analyze file"
)

type analyzeRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
}

// analysisFields are the non-score fields of an analysis response.
type analysisFields struct {
	Justification string   `json:"justification"`
	Suggestions   []string `json:"suggestions"`
}

// Analyze scores resumeText against jobDescription. The job description may
// be empty; the service decides what that means.
func (c *Client) Analyze(ctx context.Context, resumeText, jobDescription string) (*resume.Match, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, faults.New(faults.Input, opAnalyze, "resume text is required")
	}

	response, err := c.postJSON(ctx, opAnalyze, analyzePath, analyzeRequest{
		Resume:         resumeText,
		JobDescription: jobDescription,
	})
	if err != nil {
		return nil, err
	}

	return c.parseMatch(opAnalyze, response)
}

// AnalyzeFile uploads the resume file itself together with the job
// description and lets the service extract and score it in one call.
func (c *Client) AnalyzeFile(ctx context.Context, file resume.File, jobDescription string) (*resume.Match, error) {
	part, err := filePart(file)
	if err != nil {
		return nil, err
	}

	response, err := c.postFormData(ctx, opAnalyzeFile, analyzeFilePath,
		part,
		formdata.FieldPart{Name: "job_description", Value: jobDescription},
	)
	if err != nil {
		return nil, err
	}

	return c.parseMatch(opAnalyzeFile, response)
}

func (c *Client) parseMatch(op string, response object) (*resume.Match, error) {
	raw, ok := response["match_score"]
	if !ok || raw == nil {
		return nil, faults.New(faults.Protocol, op, `response has no "match_score" field`)
	}

	score, err := resume.ParseScore(raw)
	if err != nil {
		return nil, faults.Wrap(faults.Protocol, op, "match_score", err)
	}

	var fields analysisFields
	if err := response.decode(op, &fields); err != nil {
		return nil, err
	}

	match := resume.NewMatch(score, fields.Justification, fields.Suggestions)
	if match.Adjusted {
		if c.StrictScore {
			return nil, faults.Newf(faults.Validation, op, "match_score %v is not an integer in [%d, %d]", score, resume.MinScore, resume.MaxScore)
		}

		c.logger.Warn("match score adjusted",
			zap.String("op", op),
			zap.Float64("raw_score", score),
			zap.Int("score", match.Score),
		)
	}

	return match, nil
}
