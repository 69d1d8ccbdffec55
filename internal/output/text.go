package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/reviewgate/internal/review"
)

var (
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// TextWriter outputs a human-readable report. Styled adds terminal colours.
type TextWriter struct {
	Styled bool
}

func (t *TextWriter) Write(w io.Writer, v *review.Verdict) error {
	if v == nil {
		return fmt.Errorf("no verdict to write")
	}
	ew := &errWriter{w: w}

	counts := v.Counts()
	ew.printf("AI Review: %s\n", t.style(statusStyle(v.Status), strings.ToUpper(string(v.Status))))
	if v.Summary != "" {
		for _, line := range wrapText(v.Summary, 70) {
			ew.printf("%s\n", line)
		}
	}
	ew.println(t.style(dimStyle, strings.Repeat("─", 60)))
	ew.printf("Issues: %d total", len(v.Issues))
	if len(v.Issues) > 0 {
		ew.printf(" (%d error, %d warning, %d info)", counts.Error, counts.Warning, counts.Info)
	}
	ew.println("")

	if len(v.Issues) == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	grouped := groupBySeverity(v.Issues)
	for _, sev := range []review.Severity{review.SeverityError, review.SeverityWarning, review.SeverityInfo} {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}

		label := fmt.Sprintf("%s %s (%d)", severityIcon(sev), strings.ToUpper(string(sev)), len(issues))
		ew.printf("\n%s\n", t.style(severityStyle(sev), label))
		ew.println(t.style(dimStyle, strings.Repeat("─", 40)))

		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].File < issues[j].File
		})

		for _, is := range issues {
			ew.printf("\n  %s  [%s]\n", location(is), is.Type)
			for _, line := range wrapText(is.Message, 70) {
				ew.printf("    %s\n", line)
			}
			if is.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(is.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	return ew.err
}

func (t *TextWriter) style(s lipgloss.Style, text string) string {
	if !t.Styled {
		return text
	}
	return s.Render(text)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// groupBySeverity buckets issues. Unknown severities are shown as info.
func groupBySeverity(issues []review.Issue) map[review.Severity][]review.Issue {
	m := make(map[review.Severity][]review.Issue)
	for _, is := range issues {
		sev := is.Severity
		if review.SeverityRank(sev) == 0 {
			sev = review.SeverityInfo
		}
		m[sev] = append(m[sev], is)
	}
	return m
}

func location(is review.Issue) string {
	file := is.File
	if file == "" {
		file = "unknown"
	}
	if is.Line != "" {
		return file + ":" + is.Line
	}
	return file
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return "[!!]"
	case review.SeverityWarning:
		return "[!]"
	case review.SeverityInfo:
		return "[-]"
	default:
		return "[?]"
	}
}

func severityStyle(s review.Severity) lipgloss.Style {
	switch s {
	case review.SeverityError:
		return errorStyle
	case review.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

func statusStyle(s review.Status) lipgloss.Style {
	switch s {
	case review.StatusError:
		return errorStyle
	case review.StatusWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
