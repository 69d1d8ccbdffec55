// Package cli wires together the Cobra command tree for the reviewgate
// binary.
//
// The two halves of the gate are "serve", the long-running responder, and
// "hook run", which the pre-commit hook executes and which exits 0 to allow
// the commit or 1 to block it. The remaining commands (review, config,
// cache, doctor, version) support them.
package cli
