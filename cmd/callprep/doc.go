// Package main hosts the callprep CLI entrypoint and command graph.
//
// The Cobra command tree places meeting preparation calls (synchronously, or
// detached through a running callprepd), browses the report history in the
// local database, and scaffolds configuration. Configuration resolution and
// logger setup live in commandContext so subcommands only deal with output.
package main
