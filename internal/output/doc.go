// Package output renders review verdicts for a terminal, for scripts and
// for pull request comments.
//
// Three formats are supported:
//   - text: human-readable terminal output (default), optionally coloured
//   - json: the verdict in the same shape the model returns
//   - markdown: collapsible sections per severity
//
// Use [GetWriter] to obtain a [Writer] for a format string, or
// [WriteVerdict] to pick the destination as well.
package output
