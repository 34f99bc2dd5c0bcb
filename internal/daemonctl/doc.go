// Package daemonctl is the CLI side of the daemon HTTP API: it places
// detached calls and queries their progress on a running callprepd.
package daemonctl
