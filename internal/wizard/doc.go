// Package wizard drives the four-stage launch flow: create an agent,
// verify it, launch a token, show the result.
//
// The machine owns stage transitions and their invariants; it performs
// no HTTP itself. Credentials survive restarts through an injected
// Store, so a returning user resumes at the verify stage instead of
// registering a second agent.
package wizard
