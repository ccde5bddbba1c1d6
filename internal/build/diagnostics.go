package build

import (
	"context"
	"fmt"

	"github.com/htmlssg/htmlssg/internal/errors"
	"github.com/htmlssg/htmlssg/internal/logging"
)

// diagnosticLogger forwards to a Logger and also records every warning and
// error as a build diagnostic for one page.
type diagnosticLogger struct {
	logging.Logger
	collector *errors.Collector
	page      string
	file      string
}

func newDiagnosticLogger(logger logging.Logger, collector *errors.Collector, page, file string) *diagnosticLogger {
	return &diagnosticLogger{
		Logger:    logger,
		collector: collector,
		page:      page,
		file:      file,
	}
}

func (l *diagnosticLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.Logger.Warn(ctx, err, msg, fields...)
	l.record(errors.SeverityWarning, err, msg, fields)
}

func (l *diagnosticLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.Logger.Error(ctx, err, msg, fields...)
	l.record(errors.SeverityError, err, msg, fields)
}

func (l *diagnosticLogger) With(fields ...interface{}) logging.Logger {
	return &diagnosticLogger{
		Logger:    l.Logger.With(fields...),
		collector: l.collector,
		page:      l.page,
		file:      l.file,
	}
}

func (l *diagnosticLogger) WithComponent(component string) logging.Logger {
	return &diagnosticLogger{
		Logger:    l.Logger.WithComponent(component),
		collector: l.collector,
		page:      l.page,
		file:      l.file,
	}
}

func (l *diagnosticLogger) record(severity errors.Severity, err error, msg string, fields []interface{}) {
	var code string
	message := msg
	for i := 0; i+1 < len(fields); i += 2 {
		message += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	if err != nil {
		var detail string
		code, detail = errors.Detail(err)
		message += ": " + detail
	}
	l.collector.Add(errors.Diagnostic{
		Page:     l.page,
		File:     l.file,
		Code:     code,
		Message:  message,
		Severity: severity,
	})
}
