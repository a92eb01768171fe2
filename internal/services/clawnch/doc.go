// Package clawnch implements the client for the Clawnch token launch
// service. Launch is the single retried operation in the system: the
// upstream parses a previously created Moltbook post, so a retry cannot
// duplicate work, and the endpoint is known to have transient outages.
package clawnch
