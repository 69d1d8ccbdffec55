// Package responder is the long-lived side of the decision channel. It
// claims review requests for its workspace, runs the review engine,
// consults a presenter when the verdict needs a human and always writes a
// decision for a request it has claimed.
package responder
