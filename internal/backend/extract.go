package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/formdata"
	"github.com/spigell/jobflow/internal/resume"
)

const (
	opExtract    = "extract"
	filePartName = "file"
)

// ExtractText uploads the resume file and returns the plain text the
// extraction service found in it. Unsupported file types are rejected
// without a request.
func (c *Client) ExtractText(ctx context.Context, file resume.File) (string, error) {
	part, err := filePart(file)
	if err != nil {
		return "", err
	}

	response, err := c.postFormData(ctx, opExtract, extractPath, part)
	if err != nil {
		return "", err
	}

	text, err := response.requiredString(opExtract, "resume_text")
	if err != nil {
		return "", err
	}

	c.logger.Debug("extracted resume text",
		zap.String("file", file.Name()),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

// filePart validates the file type and reads the file into an upload part.
func filePart(file resume.File) (formdata.FilePart, error) {
	if file.IsZero() {
		return formdata.FilePart{}, faults.New(faults.Input, opExtract, "no file selected")
	}

	mime, err := file.MIMEType()
	if err != nil {
		return formdata.FilePart{}, err
	}

	data, err := file.ReadAll()
	if err != nil {
		return formdata.FilePart{}, err
	}

	return formdata.FilePart{
		Name:        filePartName,
		Filename:    file.Name(),
		ContentType: mime,
		Data:        data,
	}, nil
}
