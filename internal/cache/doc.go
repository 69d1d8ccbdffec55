// Package cache provides a file-based cache for LLM review responses.
//
// Cache entries are keyed by a SHA-256 hash of the provider name, model, and
// redacted prompt. Each entry stores the model's JSON verdict along with a
// creation timestamp and a TTL (in seconds), so a commit that is cancelled
// and retried with the same staged diff skips the second model call.
//
// The default cache directory is $XDG_CACHE_HOME/reviewgate (or the
// OS-appropriate equivalent). All payloads stored in the cache have already
// been through secret redaction.
package cache
