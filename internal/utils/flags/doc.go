// Package flags provides yes/no toggle flags and choice usage strings for pipegate commands.
package flags
