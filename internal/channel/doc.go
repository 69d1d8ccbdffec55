// Package channel implements the decision channel between the pre-commit
// hook and the long-running review process.
//
// The channel is a single slot held in one directory as two well-known JSON
// artifacts: a request written by the hook and a decision written by the
// responder. There is no request ID. Ownership is established by claiming:
// the responder atomically renames the request artifact away before doing any
// work, so exactly one responder can ever act on a given request.
//
// Lifecycle of one cycle:
//
//	requester: remove stale decision -> write request -> wait
//	responder: claim request (rename) -> review -> present -> write decision
//	requester: read decision -> remove decision -> map to Outcome
//
// On timeout the requester removes whatever is left of its request and
// returns [OutcomeTimedOut]. Both sides write artifacts via temp file and
// rename so a reader never observes a half-written file.
package channel
