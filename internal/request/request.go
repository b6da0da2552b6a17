// Package request parses and validates archive requests before the engine
// touches anything. Parsing covers schema-level validation of the YAML
// document; Check covers the semantic and filesystem preconditions.
package request

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	v1 "github.com/multiarc/multiarc/apis/v1"
	"github.com/multiarc/multiarc/internal/format"
	"github.com/multiarc/multiarc/internal/selector"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// Parse unmarshals a YAML (or JSON) request document and validates it
// against the v1.ArchiveRequest schema.
func Parse(data []byte) (v1.ArchiveRequest, error) {
	var req v1.ArchiveRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return v1.ArchiveRequest{}, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	if err := defaultValidator.Struct(req); err != nil {
		return v1.ArchiveRequest{}, fmt.Errorf("failed to validate request: %w", err)
	}

	return req, nil
}

// Check verifies the semantic and filesystem preconditions of a request,
// in order: source existence and shape, destination parent, explicit
// format+compression compatibility, glob pattern syntax. It performs
// read-only filesystem checks and never modifies anything.
func Check(fsys afero.Fs, req v1.ArchiveRequest) error {
	info, err := fsys.Stat(req.Source)
	if err != nil {
		return fmt.Errorf("source %s does not exist: %w", req.Source, err)
	}

	switch req.State {
	case v1.StateUnarchived:
		if info.IsDir() {
			return fmt.Errorf("source %s must be an archive file, not a directory", req.Source)
		}
	case v1.StateArchived:
		if existing, statErr := fsys.Stat(req.Dest); statErr == nil && existing.IsDir() {
			return fmt.Errorf("dest %s is a directory, expected an archive file path", req.Dest)
		}
	}

	if err := checkDestParent(fsys, req.Dest); err != nil {
		return err
	}

	if req.Format != "" && req.Compression != "" && !format.Compatible(req.Format, req.Compression) {
		return fmt.Errorf("compression %q is not compatible with format %q", req.Compression, req.Format)
	}

	if err := selector.ValidatePatterns(req.Include, "include"); err != nil {
		return err
	}
	if err := selector.ValidatePatterns(req.Exclude, "exclude"); err != nil {
		return err
	}

	return nil
}

// checkDestParent walks up from dest's parent to the nearest existing
// ancestor and requires it to be a directory, so the parent chain is
// creatable without clobbering a file.
func checkDestParent(fsys afero.Fs, dest string) error {
	dir := filepath.Dir(dest)
	for {
		info, err := fsys.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("dest parent %s exists and is not a directory", dir)
			}
			return nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fmt.Errorf("dest parent %s is not reachable: %w", dir, err)
		}
		dir = parent
	}
}
