// Package disttags prunes npm dist-tags that no longer correspond to a release branch.
//
// ComputePlan decides which published tags are candidates, Pruner deletes them concurrently and Service ties both
// to the collected pipeline metadata, the remote branch list and the registry.
package disttags
