// Package daemonrun wires configuration, logging, the report store and the
// remote clients into a daemon and runs it until the process is signalled.
package daemonrun
