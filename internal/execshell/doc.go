// Package execshell runs the external tools pipegate delegates to (git and npm)
// with structured logging and typed failures.
//
// OSCommandRunner performs the actual process execution; ShellExecutor wraps a
// CommandRunner, logs every invocation, notifies an optional
// CommandEventObserver and converts non-zero exit codes into CommandFailedError.
package execshell
