package redact

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/reviewgate/internal/gitctx"
)

const placeholder = "[REDACTED]"

type rule struct {
	name string
	re   *regexp.Regexp
}

// rules run in order; the broad assignment shapes come after the
// vendor-specific prefixes so hits are attributed to the narrowest rule.
var rules = []rule{
	{"private-key", regexp.MustCompile(`-----BEGIN\s+(?:[A-Z]+\s+)?PRIVATE KEY-----`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"openai-key", regexp.MustCompile(`sk-(?:proj-|ant-)?[A-Za-z0-9_-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"bearer", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"api-key", regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`)},
	{"assignment", regexp.MustCompile(`(?i)(?:secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`)},
	{"hex-secret", regexp.MustCompile(`(?i)(?:key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Result is a redacted diff and a summary of what was taken out.
type Result struct {
	Diff string
	// Hits counts replacements per rule name.
	Hits map[string]int
	// Withheld lists files whose hunks were dropped by path policy.
	Withheld []string
}

// Total is the number of secrets replaced.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Hits {
		n += c
	}
	return n
}

// Rules returns the names of the secret rules with at least one hit, sorted.
func (r Result) Rules() []string {
	names := make([]string, 0, len(r.Hits))
	for name := range r.Hits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	return scrub(text, nil)
}

func scrub(text string, hits map[string]int) string {
	for _, r := range rules {
		text = r.re.ReplaceAllStringFunc(text, func(string) string {
			if hits != nil {
				hits[r.name]++
			}
			return placeholder
		})
	}
	return text
}

// Diff redacts a unified diff. Sections for files matching withhold keep
// their headers but lose every hunk; everything else is scanned for
// secrets.
func Diff(diff string, withhold []string) Result {
	res := Result{Hits: make(map[string]int)}
	var b strings.Builder
	for _, sec := range splitSections(diff) {
		if path := sectionPath(sec); path != "" && gitctx.MatchesAny(path, withhold) {
			res.Withheld = append(res.Withheld, path)
			b.WriteString(sectionHeader(sec))
			b.WriteString(placeholder + " (file content withheld by path policy)\n")
			continue
		}
		b.WriteString(scrub(sec, res.Hits))
	}
	res.Diff = b.String()
	return res
}

// splitSections cuts diff before each "diff --git" line. Text before the
// first header forms its own section.
func splitSections(diff string) []string {
	var sections []string
	start := 0
	for i := 0; i < len(diff); {
		end := len(diff)
		if nl := strings.IndexByte(diff[i:], '\n'); nl >= 0 {
			end = i + nl + 1
		}
		if i > start && strings.HasPrefix(diff[i:], "diff --git ") {
			sections = append(sections, diff[start:i])
			start = i
		}
		i = end
	}
	if start < len(diff) {
		sections = append(sections, diff[start:])
	}
	return sections
}

func sectionPath(sec string) string {
	header, _, _ := strings.Cut(sec, "\n")
	if !strings.HasPrefix(header, "diff --git ") {
		return ""
	}
	if i := strings.LastIndex(header, " b/"); i >= 0 {
		return header[i+3:]
	}
	return ""
}

// sectionHeader returns the lines before the first hunk or binary marker.
func sectionHeader(sec string) string {
	for _, marker := range []string{"\n@@", "\nBinary files"} {
		if i := strings.Index(sec, marker); i >= 0 {
			return sec[:i+1]
		}
	}
	return sec
}
