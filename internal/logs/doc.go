// Package logs reads the callprep log file for the CLI "logs" command.
//
// Last returns the trailing lines with bounded memory, optionally keeping
// only lines that mention a call handle. Follow then streams appended lines
// until the context is cancelled, starting over when the file is truncated.
package logs
