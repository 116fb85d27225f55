// Package resume holds the values exchanged between the resume tools and
// the remote services: the uploaded file, the match result and the company
// research record.
package resume

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/spigell/jobflow/internal/faults"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var supportedTypes = map[string]string{
	".pdf":  MIMEPDF,
	".docx": MIMEDOCX,
}

// File is a handle to a resume document on a filesystem. It carries no bytes
// until Access or ReadAll is called.
type File struct {
	fs   afero.Fs
	path string
}

// NewFile returns a handle for path on fs. A nil fs means the OS filesystem.
// The extension is not checked here; see MIMEType.
func NewFile(fs afero.Fs, path string) File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return File{fs: fs, path: path}
}

func (f File) Path() string { return f.path }

// Name is the base name sent as the upload filename.
func (f File) Name() string {
	return filepath.Base(f.path)
}

// IsZero reports whether f is the zero handle.
func (f File) IsZero() bool {
	return f.path == ""
}

// MIMEType infers the content type from the extension. Anything other than
// .pdf or .docx is an input error.
func (f File) MIMEType() (string, error) {
	ext := strings.ToLower(filepath.Ext(f.path))
	mime, ok := supportedTypes[ext]
	if !ok {
		return "", faults.Newf(faults.Input, "select file", "unsupported file type %q for %q: only .pdf and .docx are accepted", ext, f.Name())
	}
	return mime, nil
}

// Access opens the file, hands it to fn and releases it on every exit path.
func (f File) Access(fn func(r io.Reader) error) (err error) {
	if f.fs == nil {
		return faults.New(faults.IO, "open file", "file handle is not initialized")
	}

	handle, err := f.fs.Open(f.path)
	if err != nil {
		return faults.Wrap(faults.IO, "open file", f.path, err)
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil && err == nil {
			err = faults.Wrap(faults.IO, "close file", f.path, cerr)
		}
	}()

	return fn(handle)
}

// ReadAll reads the whole file. Failures are IO errors.
func (f File) ReadAll() ([]byte, error) {
	var data []byte
	err := f.Access(func(r io.Reader) error {
		var rerr error
		data, rerr = io.ReadAll(r)
		if rerr != nil {
			return faults.Wrap(faults.IO, "read file", f.path, rerr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f File) String() string {
	return fmt.Sprintf("resume file %s", f.path)
}
