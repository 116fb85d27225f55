package backend

import (
	"context"
	"strings"

	"github.com/spigell/jobflow/internal/faults"
)

const opScrape = "scrape"

type scrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeJob asks the scrape service for the job description behind url.
func (c *Client) ScrapeJob(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", faults.New(faults.Input, opScrape, "job posting url is required")
	}

	response, err := c.postJSON(ctx, opScrape, scrapePath, scrapeRequest{URL: url})
	if err != nil {
		return "", err
	}

	return response.requiredString(opScrape, "job_description")
}
