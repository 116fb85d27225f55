package backend

import (
	"context"
	"strings"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/resume"
)

const opResearch = "research"

type researchRequest struct {
	JobDescription string `json:"job_description"`
}

// ResearchCompany asks the research service to profile the company behind a
// job description. Missing sections are left empty.
func (c *Client) ResearchCompany(ctx context.Context, jobDescription string) (*resume.CompanyResearch, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, faults.New(faults.Input, opResearch, "job description is required")
	}

	response, err := c.postJSON(ctx, opResearch, researchPath, researchRequest{JobDescription: jobDescription})
	if err != nil {
		return nil, err
	}

	var research resume.CompanyResearch
	if err := response.decode(opResearch, &research); err != nil {
		return nil, err
	}

	return &research, nil
}
