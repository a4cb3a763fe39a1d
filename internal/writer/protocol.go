package writer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime/debug"
	"strings"

	"mediakeep/internal/catalog"
	"mediakeep/internal/exif"
	"mediakeep/internal/exiftool"
	"mediakeep/internal/logging"
	"mediakeep/internal/services"
)

// process computes the outcome for one record. Panics raised while building
// or invoking become an error outcome.
func (o *Orchestrator) process(ctx context.Context, logger *slog.Logger, rec *catalog.Record) (res Result) {
	res = Result{Path: rec.Path}
	defer func() {
		if r := recover(); r != nil {
			res.Status = catalog.StatusError
			res.Err = fmt.Errorf("panic: %v", r)
			res.Detail = truncate(res.Err.Error(), o.diagnosticLimit)
			logger.Error("record processing panicked",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldEventType, "write_panic"),
				logging.String(logging.FieldErrorHint, "report this file; the run continues with the next record"),
			)
		}
	}()

	info, err := o.stat(rec.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return skip(res, ReasonFileMissing)
	case err != nil:
		return o.fail(res, services.Wrap(services.ErrFileMissing, "writer", "stat", rec.Path, err), "")
	case info.IsDir():
		return o.fail(res, fmt.Errorf("%s is a directory", rec.Path), "")
	}

	meta, err := exif.Parse(rec.MetadataJSON)
	if err != nil {
		logger.Debug("metadata not decodable; nothing to write",
			logging.Error(err),
			logging.String(logging.FieldEventType, "metadata_invalid"),
		)
		return skip(res, ReasonInvalidMetadata)
	}

	plan := exif.Build(meta, exif.KindForPath(rec.Path))
	for _, warning := range plan.Warnings {
		logging.WarnWithContext(logger, "metadata field ignored", "directive_build_warning",
			logging.String("warning", warning),
			logging.String(logging.FieldImpact, "field omitted from the write; other fields proceed"),
			logging.String(logging.FieldErrorHint, "correct the field in the catalog metadata and re-import"),
		)
	}
	if plan.Empty() {
		return skip(res, ReasonNoDirectives)
	}
	res.Total = len(plan.Directives)

	batch, err := o.tool.Invoke(ctx, rec.Path, plan.Directives)
	if err == nil && exiftool.BatchSucceeded(batch) {
		res.Status = catalog.StatusSuccess
		res.Applied = res.Total
		return res
	}
	logger.Debug("batch write not confirmed; retrying directives individually",
		logging.Int("exit_code", batch.ExitCode),
		logging.String("diagnostic", diagnostic(batch, err)),
		logging.String(logging.FieldEventType, "write_fallback"),
	)

	res.Fallback = true
	var lastDiagnostic string
	for _, directive := range plan.Directives {
		single, err := o.tool.InvokeSingle(ctx, rec.Path, directive)
		if err == nil && exiftool.SingleSucceeded(single) {
			res.Applied++
			continue
		}
		lastDiagnostic = diagnostic(single, err)
		logger.Debug("directive rejected",
			logging.String("field", string(directive.Field)),
			logging.String("directive", directive.Arg),
			logging.Int("exit_code", single.ExitCode),
			logging.String("diagnostic", lastDiagnostic),
			logging.String(logging.FieldEventType, "directive_failed"),
		)
	}

	if res.Applied > 0 {
		res.Status = catalog.StatusPartial
		res.Detail = fmt.Sprintf("applied %d/%d directives", res.Applied, res.Total)
		return res
	}
	return o.fail(res, services.Wrap(services.ErrDirectiveInvocation, "writer", "fallback", "no directive applied", nil), lastDiagnostic)
}

func skip(res Result, reason string) Result {
	res.Status = catalog.StatusSkipped
	res.Detail = reason
	return res
}

// fail marks res as an error. The persisted detail is the tool diagnostic when
// one exists, otherwise the error text.
func (o *Orchestrator) fail(res Result, err error, toolOutput string) Result {
	res.Status = catalog.StatusError
	res.Err = err
	detail := strings.TrimSpace(toolOutput)
	if detail == "" && err != nil {
		detail = err.Error()
	}
	res.Detail = truncate(detail, o.diagnosticLimit)
	return res
}

// diagnostic renders the operator-facing text of one tool call.
func diagnostic(res exiftool.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if msg := res.Diagnostic(); msg != "" {
		return msg
	}
	return fmt.Sprintf("exit code %d", res.ExitCode)
}
