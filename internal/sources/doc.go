// Package sources loads the configuration layers consumed by the metadata
// resolver.
//
// The global configuration is fetched over HTTP(S) (or read from a file://
// URI) and is mandatory. The local override and the release-channel
// declaration are optional files; the package manifest is mandatory once the
// collector asks for it. Loaders report a missing file through their found
// result and every other failure as a *metadata.ConfigurationError.
package sources
