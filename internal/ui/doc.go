// Package ui renders pipegate events for people reading CI logs: command
// lifecycle lines for console logging and GitHub Actions workflow annotations
// for warnings that should surface on the run summary.
package ui
