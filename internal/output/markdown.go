package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/reviewgate/internal/review"
)

// MarkdownWriter outputs a verdict suitable for pasting into a PR comment.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, v *review.Verdict) error {
	if v == nil {
		return fmt.Errorf("no verdict to write")
	}
	ew := &errWriter{w: w}
	counts := v.Counts()

	ew.printf("## AI Review: %s %s\n\n", mdStatusIcon(v.Status), v.Status)
	if v.Summary != "" {
		ew.printf("%s\n\n", v.Summary)
	}

	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	ew.printf("| Error    | %d    |\n", counts.Error)
	ew.printf("| Warning  | %d    |\n", counts.Warning)
	ew.printf("| Info     | %d    |\n", counts.Info)
	ew.printf("| **Total** | **%d** |\n\n", len(v.Issues))

	if len(v.Issues) == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	grouped := groupBySeverity(v.Issues)
	for _, sev := range []review.Severity{review.SeverityError, review.SeverityWarning, review.SeverityInfo} {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}

		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(issues))

		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].File < issues[j].File
		})

		for _, is := range issues {
			ew.printf("**`%s`** | %s\n\n", location(is), is.Type)
			ew.printf("%s\n\n", is.Message)

			if is.Suggestion != "" {
				ew.printf("**Suggestion:**\n\n")
				if looksLikeCode(is.Suggestion) {
					ew.printf("```%s\n%s\n```\n\n", inferLang(is.File), is.Suggestion)
				} else {
					ew.printf("> %s\n\n", strings.ReplaceAll(is.Suggestion, "\n", "\n> "))
				}
			}
			ew.printf("---\n\n")
		}

		ew.printf("</details>\n\n")
	}

	return ew.err
}

func mdStatusIcon(s review.Status) string {
	switch s {
	case review.StatusError:
		return ":x:"
	case review.StatusWarning:
		return ":warning:"
	default:
		return ":white_check_mark:"
	}
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return ":red_circle:"
	case review.SeverityWarning:
		return ":orange_circle:"
	default:
		return ":large_blue_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "if ", "for ", "return ", "var ", "const ",
		"def ", "class ", "import ", "from ",
		"{", "}", "=>", "->", ":=", "==",
		"()", "[];",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

var fenceLangs = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".vue":  "vue",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".css":  "css",
	".scss": "scss",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".tf":   "hcl",
}

func inferLang(path string) string {
	return fenceLangs[strings.ToLower(filepath.Ext(path))]
}
