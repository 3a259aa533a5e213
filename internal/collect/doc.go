// Package collect builds the metadata record of a pipeline run.
//
// Collector walks the sources in a fixed order so every failure is attributable to the source that caused it:
// checkout, global configuration, local override, pull request validation, environment export, latest commit,
// skip decisions, optional fast skip, permissions, package manifest, release channels, capabilities, warnings,
// artifact upload and the debug-mode notice.
package collect
