// Package stages implements the pipeline stage entry points. Each stage collects the pipeline metadata once,
// skips when the commit or the package capabilities say so, and otherwise delegates to npm scripts.
package stages
