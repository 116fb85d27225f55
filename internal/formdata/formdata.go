// Package formdata builds multipart/form-data request bodies.
package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
)

const boundaryPrefix = "Boundary-"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Part is a single named entry of a form body: a FilePart or a FieldPart.
type Part interface {
	partName() string
	header() textproto.MIMEHeader
	payload() []byte
}

// FilePart is an uploaded file.
type FilePart struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

func (p FilePart) partName() string { return p.Name }

func (p FilePart) header() textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.Name), quoteEscaper.Replace(p.Filename)))
	h.Set("Content-Type", p.ContentType)
	return h
}

func (p FilePart) payload() []byte { return p.Data }

// FieldPart is a plain text form field.
type FieldPart struct {
	Name  string
	Value string
}

func (p FieldPart) partName() string { return p.Name }

func (p FieldPart) header() textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.Name)))
	return h
}

func (p FieldPart) payload() []byte { return []byte(p.Value) }

// Body is an encoded multipart body together with its boundary.
type Body struct {
	Boundary string
	Bytes    []byte
}

// ContentType is the value for the request Content-Type header.
func (b *Body) ContentType() string {
	return "multipart/form-data; boundary=" + b.Boundary
}

// Reader returns a fresh reader over the encoded bytes.
func (b *Body) Reader() io.Reader {
	return bytes.NewReader(b.Bytes)
}

// NewBoundary returns a random boundary token.
func NewBoundary() string {
	return boundaryPrefix + uuid.NewString()
}

// Encode encodes parts in order under a fresh random boundary.
func Encode(parts ...Part) (*Body, error) {
	return EncodeWithBoundary(NewBoundary(), parts...)
}

// EncodeWithBoundary encodes parts in order under the given boundary.
// Every part is framed as "--boundary\r\n", its headers, a blank line,
// the payload and "\r\n"; the body ends with "--boundary--\r\n".
func EncodeWithBoundary(boundary string, parts ...Part) (*Body, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("invalid boundary %q: %w", boundary, err)
	}

	// multipart.Writer prefixes the closing delimiter with CRLF even when no
	// part was written.
	if len(parts) == 0 {
		b.WriteString("--" + boundary + "--\r\n")
		return &Body{Boundary: boundary, Bytes: b.Bytes()}, nil
	}

	for i, part := range parts {
		if part == nil {
			return nil, fmt.Errorf("part %d is nil", i)
		}
		if strings.TrimSpace(part.partName()) == "" {
			return nil, fmt.Errorf("part %d: %w", i, errEmptyName)
		}

		pw, err := w.CreatePart(part.header())
		if err != nil {
			return nil, fmt.Errorf("create part %q: %w", part.partName(), err)
		}
		if _, err := pw.Write(part.payload()); err != nil {
			return nil, fmt.Errorf("write part %q: %w", part.partName(), err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return &Body{Boundary: boundary, Bytes: b.Bytes()}, nil
}

var errEmptyName = errors.New("part name is required")
