// Package preflight provides readiness checks for the remote services and
// filesystem paths callprep depends on.
//
// The CLI "callprep health" command runs Run and prints one line per check.
// Report destinations given as storage URLs are not probed; the report
// writer surfaces their errors when a call finishes.
package preflight
