package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/ai"
	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/resume"
	"github.com/spigell/jobflow/internal/utils"
)

const opAnalyze = "gemini analyze"

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Analyzer scores resumes with a Gemini model instead of the analysis service.
type Analyzer struct {
	generator   contentGenerator
	logger      *zap.Logger
	maxLogLen   int
	strictScore bool
}

var _ ai.Analyzer = (*Analyzer)(nil)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewAnalyzer(generator contentGenerator, logger *zap.Logger, strictScore bool, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator:   generator,
		logger:      logger,
		maxLogLen:   maxLogLength,
		strictScore: strictScore,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobDescription string) (*resume.Match, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, faults.New(faults.Input, opAnalyze, "resume text is required")
	}

	prompt := buildPrompt(resumeText, jobDescription)

	a.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	match, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if match.Adjusted {
		if a.strictScore {
			return nil, faults.Newf(faults.Validation, opAnalyze, "match_score %v is not an integer in [%d, %d]", match.RawScore, resume.MinScore, resume.MaxScore)
		}
		a.logger.Warn("match score adjusted",
			zap.String("op", opAnalyze),
			zap.Float64("raw_score", match.RawScore),
			zap.Int("score", match.Score),
		)
	}

	return match, nil
}

func buildPrompt(resumeText, jobDescription string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME}}\n\nJob description:\n{{JOB_DESCRIPTION}}\n\nJSON Response:"
	}

	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		jobDescription = "(none provided)"
	}

	return strings.NewReplacer(
		"{{RESUME}}", strings.TrimSpace(resumeText),
		"{{JOB_DESCRIPTION}}", jobDescription,
	).Replace(template)
}

type responseFields struct {
	Justification string   `json:"justification"`
	Suggestions   []string `json:"suggestions"`
}

func parseResponse(raw string) (*resume.Match, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(extractJSON(raw))))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, faults.Wrap(faults.Protocol, opAnalyze, "parse gemini response", err)
	}
	if data == nil {
		return nil, faults.New(faults.Protocol, opAnalyze, "gemini response is not a JSON object")
	}

	rawScore, ok := data["match_score"]
	if !ok || rawScore == nil {
		return nil, faults.New(faults.Protocol, opAnalyze, `gemini response has no "match_score" field`)
	}

	score, err := resume.ParseScore(rawScore)
	if err != nil {
		return nil, faults.Wrap(faults.Protocol, opAnalyze, "match_score", err)
	}

	var fields responseFields
	if err := resume.DecodeFields(data, &fields); err != nil {
		return nil, faults.Wrap(faults.Protocol, opAnalyze, "decode response fields", err)
	}

	return resume.NewMatch(score, strings.TrimSpace(fields.Justification), fields.Suggestions), nil
}

// extractJSON strips markdown fences and any chatter around the outermost
// JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start != -1 && end > start {
		raw = raw[start : end+1]
	}

	return strings.TrimSpace(raw)
}
