// Package cli constructs the pipegate command-line interface: the Cobra root command, the layered configuration
// loader and the zap logger shared by the metadata, cleanup-npm and stage commands.
package cli
