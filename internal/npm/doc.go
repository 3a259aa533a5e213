// Package npm drives the npm CLI for the pipeline: dist-tag listing and removal, clean installs, package scripts and
// the registry auth line in .npmrc.
package npm
