package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	annotationTemplateConstant = "::%s::%s\n"
	annotationWarningConstant  = "warning"
	annotationNoticeConstant   = "notice"
)

var annotationEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// AnnotationWriter emits GitHub Actions workflow commands such as "::warning::message".
type AnnotationWriter struct {
	mutex  sync.Mutex
	writer io.Writer
}

// NewAnnotationWriter constructs a writer; a nil destination discards annotations.
func NewAnnotationWriter(writer io.Writer) *AnnotationWriter {
	if writer == nil {
		writer = io.Discard
	}
	return &AnnotationWriter{writer: writer}
}

// Warning writes a warning annotation.
func (annotationWriter *AnnotationWriter) Warning(message string) error {
	return annotationWriter.write(annotationWarningConstant, message)
}

// Notice writes a notice annotation.
func (annotationWriter *AnnotationWriter) Notice(message string) error {
	return annotationWriter.write(annotationNoticeConstant, message)
}

func (annotationWriter *AnnotationWriter) write(kind string, message string) error {
	annotationWriter.mutex.Lock()
	defer annotationWriter.mutex.Unlock()

	if _, writeError := fmt.Fprintf(annotationWriter.writer, annotationTemplateConstant, kind, annotationEscaper.Replace(message)); writeError != nil {
		return writeError
	}
	if flusher, flushable := annotationWriter.writer.(interface{ Flush() error }); flushable {
		return flusher.Flush()
	}
	return nil
}

// WarningReporter records a warning in the structured log and, when configured, as a workflow annotation.
type WarningReporter struct {
	logger      *zap.Logger
	annotations *AnnotationWriter
}

// NewWarningReporter constructs a reporter. Either dependency may be nil.
func NewWarningReporter(logger *zap.Logger, annotations *AnnotationWriter) *WarningReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarningReporter{logger: logger, annotations: annotations}
}

// Warn logs message at warn level and mirrors it as an annotation.
func (reporter *WarningReporter) Warn(message string, fields ...zap.Field) {
	reporter.logger.Warn(message, fields...)
	if reporter.annotations == nil {
		return
	}
	if annotationError := reporter.annotations.Warning(message); annotationError != nil {
		reporter.logger.Debug("failed to write workflow annotation", zap.Error(annotationError))
	}
}
