// Package vapi talks to the Vapi telephony API.
//
// The client lists outbound phone lines, starts calls with an inline
// assistant definition, polls call status, and resolves transcripts. A
// transcript is taken from the first source that yields content: the
// transcript field of the call payload, the role-tagged messages joined as
// "role: content" lines, or the artifact transcript URL. Only transport
// failures are errors; a missing transcript is reported as absent.
package vapi
