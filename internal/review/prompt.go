package review

import (
	"fmt"
	"path/filepath"
	"strings"
)

const systemPrompt = `You are a strict, expert code reviewer gating a git commit. Review the staged diff and report problems as a single JSON object.

Check, in order of importance:
1. Errors that must be fixed: syntax errors, accidental deletions, unclosed tags or brackets, type errors, obvious runtime errors (undefined variables, wrong calls), null/undefined access, infinite loops, leaked secrets (API keys, passwords).
2. Convention problems that should be fixed: violations of the project guidelines below, poor naming, missing type definitions, missing translations, ignored project practices.
3. Quality suggestions: duplication, logic that can be simplified, readability, missing comments.

Only review the changes shown in the diff. Be concrete and do not nitpick.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "status": "error|warning|success",
  "summary": "One or two sentence summary",
  "issues": [
    {
      "severity": "error|warning|info",
      "type": "Short category, e.g. syntax, type, convention, suggestion",
      "file": "relative/file/path",
      "line": "line or range if known",
      "message": "What is wrong and why it matters",
      "suggestion": "How to fix it"
    }
  ]
}

Use status "error" when any issue must be fixed, "warning" or "success" when there are only suggestions. If the change looks fine, return status "success" with an empty issues array.`

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt constructs the user prompt from the diff and project
// guidelines.
func BuildUserPrompt(diff string, g Guidelines) string {
	var b strings.Builder

	b.WriteString("Review the following staged changes.\n")

	langs := detectLanguages(DiffFiles(diff))
	if len(langs) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}

	if text := g.Text(); text != "" {
		b.WriteString("\n--- BEGIN PROJECT GUIDELINES ---\n")
		b.WriteString(text)
		b.WriteString("\n--- END PROJECT GUIDELINES ---\n")
	}

	if rulesSection := BuildRulesPromptSection(g.Rules); rulesSection != "" {
		b.WriteString(rulesSection)
	}

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(diff)
	b.WriteString("\n--- END DIFF ---\n")

	return b.String()
}

// DiffFiles lists the post-image paths named by "diff --git" headers.
func DiffFiles(diff string) []string {
	var files []string
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "diff --git ") {
			continue
		}
		if i := strings.LastIndex(line, " b/"); i >= 0 {
			files = append(files, line[i+3:])
		}
	}
	return files
}

func detectLanguages(files []string) []string {
	langMap := map[string]string{
		".go":    "Go",
		".py":    "Python",
		".js":    "JavaScript",
		".ts":    "TypeScript",
		".tsx":   "TypeScript/React",
		".jsx":   "JavaScript/React",
		".vue":   "Vue",
		".rs":    "Rust",
		".java":  "Java",
		".rb":    "Ruby",
		".cpp":   "C++",
		".c":     "C",
		".h":     "C/C++",
		".cs":    "C#",
		".php":   "PHP",
		".swift": "Swift",
		".kt":    "Kotlin",
		".sql":   "SQL",
		".sh":    "Shell",
		".css":   "CSS",
		".less":  "Less",
		".scss":  "SCSS",
		".yaml":  "YAML",
		".yml":   "YAML",
		".json":  "JSON",
		".tf":    "Terraform",
	}

	seen := make(map[string]bool)
	var langs []string
	for _, f := range files {
		lang, ok := langMap[strings.ToLower(filepath.Ext(f))]
		if ok && !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs
}
