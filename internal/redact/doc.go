// Package redact strips secrets from a staged diff before it is sent to a
// review provider.
//
// Secret detection is a list of named regex rules (private keys, cloud and
// SaaS tokens, JWTs, credential assignments). Files matching the
// privacy.redactPaths globs are withheld entirely: their section keeps the
// diff header so the reviewer still sees that the file changed.
package redact
