package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/backend"
	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/session"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	previous := fs
	fs = mem
	t.Cleanup(func() { fs = previous })
	return mem
}

// fakeServices answers like the resume services do.
func fakeServices(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/extract_resume_text_file", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"resume_text": "extracted resume"}`))
	})
	mux.HandleFunc("/scrape_job_posting", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"job_description": "scraped job"}`))
	})
	mux.HandleFunc("/analyze_resume", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"match_score":   91,
			"justification": req["resume"] + " vs " + req["job_description"],
			"suggestions":   []string{"first", "second"},
		})
	})
	mux.HandleFunc("/analyze_resume_file", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"match_score":   55,
			"justification": "direct: " + r.FormValue("job_description"),
		})
	})
	mux.HandleFunc("/research_company", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"company_overview": "Acme", "key_products": "Rockets"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testEnv(t *testing.T) *env {
	t.Helper()

	server := fakeServices(t)
	config, err := decodeConfig(testViper())
	require.NoError(t, err)
	config.Backend.URL = server.URL

	return &env{logger: zap.NewNop(), config: config, client: newBackend(config, zap.NewNop())}
}

func testViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	config, err := decodeConfig(testViper())
	require.NoError(t, err)

	assert.Equal(t, backend.DefaultBaseURL, config.Backend.URL)
	assert.Equal(t, backend.DefaultTimeout, config.Backend.Timeout)
	assert.Equal(t, "backend", config.Analysis.Provider)
	assert.False(t, config.Analysis.StrictScore)
	assert.Equal(t, defaultMaxLogLength, config.Log.MaxLength)
	require.NotNil(t, config.AI.Gemini)
}

func TestDecodeConfigFromYAML(t *testing.T) {
	v := testViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
backend:
  url: http://services:9000
  timeout: 5s
analysis:
  provider: gemini
  strict-score: true
ai:
  gemini:
    api-key: secret
    model: gemini-test
`)))

	config, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "http://services:9000", config.Backend.URL)
	assert.Equal(t, 5*time.Second, config.Backend.Timeout)
	assert.True(t, config.Analysis.StrictScore)
	assert.Equal(t, "gemini-test", config.AI.Gemini.Model)
	assert.Equal(t, "***", redacted(config).AI.Gemini.APIKey)
	assert.Equal(t, "secret", config.AI.Gemini.APIKey)

	client := newBackend(config, zap.NewNop())
	assert.Equal(t, "http://services:9000", client.BaseURL)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)
	assert.True(t, client.StrictScore)
}

func TestNewAnalyzer(t *testing.T) {
	e := testEnv(t)

	analyzer, err := newAnalyzer(context.Background(), e.config, e.client, e.logger)
	require.NoError(t, err)
	assert.Same(t, e.client, analyzer)

	e.config.Analysis.Provider = "openai"
	_, err = newAnalyzer(context.Background(), e.config, e.client, e.logger)
	assert.ErrorContains(t, err, "unsupported analysis provider")

	e.config.Analysis.Provider = "gemini"
	_, err = newAnalyzer(context.Background(), e.config, e.client, e.logger)
	assert.ErrorIs(t, err, faults.Input)
}

func TestRunAnalyzePrefersFileText(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/cv.pdf", []byte("pdf"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/pasted.txt", []byte("pasted resume"), 0o644))

	e := testEnv(t)
	s, err := e.newSession(context.Background())
	require.NoError(t, err)
	defer s.Close()

	var out bytes.Buffer
	err = runAnalyze(context.Background(), &out, s, analyzeOptions{
		File:           "/cv.pdf",
		ResumeTextFile: "/pasted.txt",
		Job:            jobOptions{URL: "https://jobs.example.com/1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Match score: 91/100\n\nextracted resume vs scraped job\n\nSuggestions:\n1. first\n2. second\n", out.String())
}

func TestRunAnalyzeWithoutResume(t *testing.T) {
	e := testEnv(t)
	s, err := e.newSession(context.Background())
	require.NoError(t, err)
	defer s.Close()

	err = runAnalyze(context.Background(), &bytes.Buffer{}, s, analyzeOptions{Job: jobOptions{Text: "job"}})
	assert.ErrorContains(t, err, "no resume text")
}

func TestRunAnalyzeRejectsUnsupportedFile(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/cv.txt", []byte("txt"), 0o644))

	e := testEnv(t)
	s, err := e.newSession(context.Background())
	require.NoError(t, err)
	defer s.Close()

	err = runAnalyze(context.Background(), &bytes.Buffer{}, s, analyzeOptions{File: "/cv.txt"})
	assert.ErrorIs(t, err, faults.Input)
}

func TestRunAnalyzeFile(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/cv.docx", []byte("docx"), 0o644))

	e := testEnv(t)

	var out bytes.Buffer
	err := runAnalyzeFile(context.Background(), &out, e.client, analyzeOptions{
		File: "/cv.docx",
		Job:  jobOptions{Text: "Go role"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Match score: 55/100\n\ndirect: Go role\n", out.String())

	err = runAnalyzeFile(context.Background(), &out, e.client, analyzeOptions{})
	assert.Error(t, err)
}

func TestRunResearch(t *testing.T) {
	e := testEnv(t)

	var out bytes.Buffer
	require.NoError(t, runResearch(context.Background(), &out, e.client, jobOptions{URL: "https://jobs.example.com/1"}))
	assert.Equal(t, "Company overview\nAcme\n\nKey products\nRockets\n", out.String())

	assert.Error(t, runResearch(context.Background(), &out, e.client, jobOptions{}))
}

func scriptedAsker(answers ...string) asker {
	return func(string) (string, error) {
		if len(answers) == 0 {
			return "", errors.New("no more answers")
		}
		answer := answers[0]
		answers = answers[1:]
		return answer, nil
	}
}

func TestHandleToolsActions(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/cv.docx", []byte("docx"), 0o644))

	e := testEnv(t)
	s, err := e.newSession(context.Background())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	ask := scriptedAsker("pasted", "/cv.docx", "https://jobs.example.com/1", "/cv.exe")
	var out bytes.Buffer

	require.NoError(t, handleToolsAction(ctx, &out, s, PromptGenerate, ask))
	assert.Contains(t, out.String(), "Nothing to do.")

	require.NoError(t, handleToolsAction(ctx, &out, s, PromptPasteResume, ask))
	require.NoError(t, handleToolsAction(ctx, &out, s, PromptSelectFile, ask))
	require.NoError(t, handleToolsAction(ctx, &out, s, PromptFetchJob, ask))

	out.Reset()
	require.NoError(t, handleToolsAction(ctx, &out, s, PromptGenerate, ask))
	assert.Contains(t, out.String(), "extracted resume vs scraped job")
	assert.Contains(t, out.String(), "Resume file: cv.docx (succeeded)")

	err = handleToolsAction(ctx, &out, s, PromptSelectFile, ask)
	assert.ErrorIs(t, err, faults.Input)

	out.Reset()
	require.NoError(t, handleToolsAction(ctx, &out, s, PromptRemoveFile, ask))
	assert.Contains(t, out.String(), "Resume file: none")
	assert.Equal(t, "pasted", s.Snapshot().EffectiveResumeText())

	require.NoError(t, handleToolsAction(ctx, &out, s, PromptReset, ask))
	assert.Equal(t, session.Input{}, s.Snapshot().Input)

	assert.ErrorIs(t, handleToolsAction(ctx, &out, s, PromptQuit, ask), errExit)
	assert.Error(t, handleToolsAction(ctx, &out, s, "dance", ask))
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "Ready", statusLine(session.Snapshot{}))
	assert.Equal(t, "Fetching job posting...", statusLine(session.Snapshot{Phase: session.Fetching}))

	failed := session.Snapshot{LastError: &session.TaggedError{
		Op:   session.OpScrape,
		Kind: faults.Network,
		Err:  errors.New("connection refused"),
	}}
	assert.Equal(t, "scrape failed (network error): connection refused", statusLine(failed))
}
