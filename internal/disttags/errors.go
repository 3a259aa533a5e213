package disttags

import (
	"errors"
	"fmt"
	"strings"
)

const (
	partialOperationTemplateConstant = "one or more outdated dist tags were not %s: %s"
	failedTagsSeparatorConstant      = ", "
	operationPrunedConstant          = "pruned"
	missingTokenMessageConstant      = "missing npm auth token"
)

// ErrNpmTokenMissing indicates the npm token source resolved to nothing.
var ErrNpmTokenMissing = errors.New(missingTokenMessageConstant)

// PartialOperationError reports tags a fan-out operation could not process. Tags processed successfully are not
// rolled back.
type PartialOperationError struct {
	Operation  string
	FailedTags []string
	Cause      error
}

func (partialError *PartialOperationError) Error() string {
	message := fmt.Sprintf(partialOperationTemplateConstant, partialError.Operation, strings.Join(partialError.FailedTags, failedTagsSeparatorConstant))
	if partialError.Cause == nil {
		return message
	}
	return message + ": " + partialError.Cause.Error()
}

// Unwrap exposes the combined deletion failures.
func (partialError *PartialOperationError) Unwrap() error {
	return partialError.Cause
}
