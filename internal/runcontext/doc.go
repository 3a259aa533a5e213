// Package runcontext describes the current pipeline run from the GitHub Actions environment: the GITHUB_* variables,
// the event payload file, and, for local runs, an optional dotenv file filling in whatever the process environment
// lacks.
package runcontext
