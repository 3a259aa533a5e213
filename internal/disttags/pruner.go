package disttags

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrencyConstant = 4
	deletedTagMessage          = "Deleted dist-tag"
	failedTagMessage           = "Failed to delete dist-tag"
	tagFieldConstant           = "tag"
	packageFieldConstant       = "package"
	tagFailureTemplate         = "%s: %w"
)

// DistTagDeleter removes one dist-tag.
type DistTagDeleter interface {
	DeleteDistTag(executionContext context.Context, packageName string, tag string) error
}

// Pruner deletes dist-tags concurrently and attempts every tag even when some deletions fail.
type Pruner struct {
	logger      *zap.Logger
	deleter     DistTagDeleter
	concurrency int
}

// NewPruner constructs a Pruner. A non-positive concurrency uses the default limit.
func NewPruner(logger *zap.Logger, deleter DistTagDeleter, concurrency int) *Pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrencyConstant
	}
	return &Pruner{logger: logger, deleter: deleter, concurrency: concurrency}
}

// Prune deletes tags from packageName and returns the deleted tags in input order. When any deletion fails the
// error is a *PartialOperationError naming exactly the failed tags.
func (pruner *Pruner) Prune(executionContext context.Context, packageName string, tags []string) ([]string, error) {
	failures := make([]error, len(tags))

	var group errgroup.Group
	group.SetLimit(pruner.concurrency)
	for index, tag := range tags {
		index, tag := index, tag
		group.Go(func() error {
			if deleteError := pruner.deleter.DeleteDistTag(executionContext, packageName, tag); deleteError != nil {
				pruner.logger.Warn(failedTagMessage, zap.String(packageFieldConstant, packageName), zap.String(tagFieldConstant, tag), zap.Error(deleteError))
				failures[index] = fmt.Errorf(tagFailureTemplate, tag, deleteError)
				return nil
			}
			pruner.logger.Info(deletedTagMessage, zap.String(packageFieldConstant, packageName), zap.String(tagFieldConstant, tag))
			return nil
		})
	}
	_ = group.Wait()

	deleted := make([]string, 0, len(tags))
	failedTags := []string{}
	var combined error
	for index, tag := range tags {
		if failures[index] == nil {
			deleted = append(deleted, tag)
			continue
		}
		failedTags = append(failedTags, tag)
		combined = multierr.Append(combined, failures[index])
	}

	if len(failedTags) > 0 {
		return deleted, &PartialOperationError{Operation: operationPrunedConstant, FailedTags: failedTags, Cause: combined}
	}
	return deleted, nil
}
