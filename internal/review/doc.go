// Package review turns a staged diff into a Verdict.
//
// It defines the Verdict and Issue types, assembles prompts from the diff and
// the repository's guideline documents, calls a provider once, and parses the
// JSON object the model returns. Responses may arrive wrapped in a Markdown
// code fence; status and summary are required.
//
// Anything that prevents a verdict (missing credentials, transport errors,
// timeouts, unparseable responses) is reported as a *Failure with a Kind the
// caller can show to a human.
//
// Rules packs (rules.go) add focus areas and required checks to the prompt
// and may override issue severities by issue type.
package review
