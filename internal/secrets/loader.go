// Package secrets resolves API keys from configuration or key files.
package secrets

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/spigell/jobflow/internal/faults"
)

const opLoad = "load secret"

// Source describes where a secret comes from.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File holds the secret on disk. It wins over Value.
	File string
}

// Loader reads secret files from Fs. A zero Loader uses the OS filesystem.
type Loader struct {
	Fs afero.Fs
}

// Load resolves src with the OS filesystem.
func Load(src Source) (string, error) {
	return Loader{}.Load(src)
}

// Load returns the trimmed secret. Missing or empty secrets are input
// errors; an unreadable file is an IO error.
func (l Loader) Load(src Source) (string, error) {
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return "", faults.Wrap(faults.IO, opLoad, fmt.Sprintf("read %s from %q", name, file), err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", faults.Newf(faults.Input, opLoad, "%s file %q is empty", name, file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", faults.Newf(faults.Input, opLoad, "%s is not configured", name)
	}

	return secret, nil
}
