// Reviewgate gates git commits on an LLM review of the staged changes.
//
// A long-running responder watches a decision channel directory. The
// pre-commit hook writes the staged diff there, the responder reviews it,
// asks the developer when the review finds problems, and writes back whether
// the commit may proceed.
//
// Usage:
//
//	reviewgate serve                  # run the responder for this repository
//	reviewgate hook install           # add the pre-commit hook
//	reviewgate hook run               # what the hook executes (exit 0 allow, 1 block)
//	reviewgate hook run --inline      # review without a responder
//	reviewgate review --format json   # one-shot review of the staged changes
//	reviewgate doctor                 # check provider credentials
package main
