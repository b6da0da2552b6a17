// Package engine executes archive and unarchive requests. Each invocation is
// a pure function from request plus filesystem state to result plus new
// filesystem state: the engine carries no process-wide mutable state, so
// concurrent invocations are safe as long as their source and dest paths do
// not overlap.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/multiarc/multiarc/apis/v1"
	"github.com/multiarc/multiarc/internal/format"
	"github.com/multiarc/multiarc/internal/request"
)

// Uploader ships a finished archive off the local filesystem.
type Uploader interface {
	Upload(ctx context.Context, fsys afero.Fs, archivePath string) error
}

// UploaderFactory builds an uploader from a request's upload spec.
type UploaderFactory func(ctx context.Context, spec *v1.UploadSpec) (Uploader, error)

// Engine runs requests against a filesystem. Tests substitute an in-memory
// filesystem; production callers pass afero.NewOsFs().
type Engine struct {
	fs        afero.Fs
	logger    *zap.Logger
	uploaders UploaderFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithUploaderFactory enables post-archive uploads for requests carrying an
// upload spec.
func WithUploaderFactory(f UploaderFactory) Option {
	return func(e *Engine) {
		e.uploaders = f
	}
}

func New(fsys afero.Fs, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{fs: fsys, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one request end to end: validate, resolve the format, select
// members, build or extract, then delete the source if requested. The result
// is returned even on failure, with the failure taxonomy filled in.
func (e *Engine) Run(ctx context.Context, req v1.ArchiveRequest) (v1.OperationResult, error) {
	result := v1.OperationResult{Path: req.Dest}

	if err := request.Check(e.fs, req); err != nil {
		return fail(result, opErr(KindValidation, err))
	}

	resolved, err := e.resolveFormat(req)
	if err != nil {
		if errors.Is(err, format.ErrUnknown) {
			return fail(result, opErr(KindUnknownFormat, err))
		}
		return fail(result, opErr(KindValidation, err))
	}

	result.Format = resolved.Name
	result.Compression = string(resolved.Method)

	logger := e.logger.With(
		zap.String("source", req.Source),
		zap.String("dest", req.Dest),
		zap.String("format", resolved.Name),
		zap.String("method", string(resolved.Method)),
	)

	switch req.State {
	case v1.StateArchived:
		changed, diff, err := e.archive(ctx, logger, req, resolved)
		if err != nil {
			return fail(result, err)
		}
		result.Changed = changed
		result.Diff = diff
	case v1.StateUnarchived:
		changed, diff, err := e.unarchive(ctx, logger, req, resolved)
		if err != nil {
			return fail(result, err)
		}
		result.Changed = changed
		result.Diff = diff
	default:
		return fail(result, opErr(KindValidation, fmt.Errorf("unsupported state %q", req.State)))
	}

	// Upload runs after the archive is durably in place and before source
	// deletion, so an upload failure never loses data.
	if req.State == v1.StateArchived && req.Upload != nil {
		if err := e.upload(ctx, logger, req); err != nil {
			return fail(result, err)
		}
	}

	// Deletion runs strictly after the destination is confirmed written, so
	// a failure between the two leaves both source and dest intact.
	if req.DeleteSource {
		logger.Debug("deleting source after successful operation")
		if err := e.fs.RemoveAll(req.Source); err != nil {
			return fail(result, opErr(KindSourceDeletion, fmt.Errorf("failed to delete source %s: %w", req.Source, err)))
		}
	}

	logger.Info("request completed", zap.Bool("changed", result.Changed))
	return result, nil
}

func (e *Engine) upload(ctx context.Context, logger *zap.Logger, req v1.ArchiveRequest) error {
	if e.uploaders == nil {
		return opErr(KindValidation, fmt.Errorf("request asks for an upload but no uploader is configured"))
	}

	uploader, err := e.uploaders(ctx, req.Upload)
	if err != nil {
		return opErr(KindUpload, err)
	}

	logger.Debug("uploading archive")
	if err := uploader.Upload(ctx, e.fs, req.Dest); err != nil {
		return opErr(KindUpload, err)
	}
	return nil
}

// resolveFormat picks exactly one resolution path: the explicit format field,
// or suffix detection on the archive filename (dest when archiving, source
// when unarchiving).
func (e *Engine) resolveFormat(req v1.ArchiveRequest) (format.Resolved, error) {
	name := req.Format
	if name == "" {
		archivePath := req.Dest
		if req.State == v1.StateUnarchived {
			archivePath = req.Source
		}
		detected, err := format.Detect(archivePath)
		if err != nil {
			return format.Resolved{}, err
		}
		name = detected.Name
	}
	return format.Resolve(name, req.Compression)
}

// fail records the taxonomy on the result and returns both. The operation may
// still have changed the filesystem (partial extraction, pending deletion);
// Changed reflects that honestly.
func fail(result v1.OperationResult, err error) (v1.OperationResult, error) {
	var opError *OperationError
	if errors.As(err, &opError) {
		result.Failure = &v1.Failure{Kind: string(opError.Kind), Message: opError.Err.Error()}
	} else {
		result.Failure = &v1.Failure{Kind: string(KindArchiveWrite), Message: err.Error()}
	}
	return result, err
}
