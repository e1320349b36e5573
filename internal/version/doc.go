// Package version exposes build metadata injected at link time and a
// helper that attaches a `version` subcommand to cobra roots.
package version
