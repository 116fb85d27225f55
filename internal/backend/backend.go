// Package backend is the HTTP client for the resume services: text
// extraction, job posting scraping, match analysis and company research.
package backend

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 60 * time.Second

	userAgent = "spigell/jobflow"

	extractPath     = "/extract_resume_text_file"
	analyzeFilePath = "/analyze_resume_file"
	analyzePath     = "/analyze_resume"
	scrapePath      = "/scrape_job_posting"
	researchPath    = "/research_company"

	defaultMaxLogLength = 200

	// DefaultMaxResponseBytes caps a response body before and after gzip.
	DefaultMaxResponseBytes int64 = 10 << 20
)

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
	// StrictScore turns an out-of-range or fractional match score into a
	// validation error instead of clamping it.
	StrictScore      bool
	MaxLogLength     int
	MaxResponseBytes int64
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger:  logger,
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent:        userAgent,
		MaxLogLength:     defaultMaxLogLength,
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

func (c *Client) endpoint(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + path
}
