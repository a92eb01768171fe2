// Package journal persists launch attempts in a local SQLite database.
//
// The journal is advisory. Orchestration never fails because a journal
// write failed; the store exists so an operator can find the post_id of
// a launch that posted but did not complete, and resume it.
package journal
