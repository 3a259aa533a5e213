// Package metadata holds the pipeline decision record and the pure rules that
// derive it.
//
// PipelineMetadata is assembled from typed configuration layers: a mandatory
// global configuration, an optional local override, the package manifest and
// the release-channel declaration. Each field group is resolved by its own
// function with an explicit precedence rule, so explicitly-false, zero and
// empty-string overrides survive (see Optional). The evaluator functions turn
// the resolved record, the latest commit subject and the run context into the
// skip, release and auto-merge decisions.
//
// Nothing in this package performs I/O.
package metadata
