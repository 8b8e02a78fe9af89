// Package session runs one publish attempt end to end.
//
// A run moves through a fixed sequence of states:
//
//	Idle -> Locked -> Selecting -> Publishing -> Committing -> Released
//
// Any step may jump straight to Released with a failure outcome. The lock is
// released exactly once on every path, and the ledger is written only after
// the publisher has confirmed the post and before the lock is released, so
// the committed window stays inside the exclusive region.
//
// A run never returns an error. Its Result carries an Outcome, a message
// and the underlying error, so callers decide how each outcome maps to exit
// codes or retries.
package session
