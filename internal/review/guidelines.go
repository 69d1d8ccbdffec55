package review

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxDocumentBytes caps each guideline document fed into the prompt.
const maxDocumentBytes = 64 * 1024

// Document is one guideline file read from the repository.
type Document struct {
	Title string
	Path  string
	Body  string
}

// Guidelines is the project context sent alongside a diff.
type Guidelines struct {
	Documents []Document
	Rules     *Rules
}

// Empty reports whether there is nothing to add to the prompt.
func (g Guidelines) Empty() bool {
	return len(g.Documents) == 0 && g.Rules == nil
}

// guidelineFiles are read from the repository root in this order.
var guidelineFiles = []struct {
	title string
	path  string
}{
	{"Core guidelines", ".vscode/CORE_GUIDELINES.md"},
	{"Project guide", ".vscode/PROJECT_GUIDE.md"},
	{"Repository instructions", ".github/copilot-instructions.md"},
}

// LoadGuidelines collects guideline documents from repoPath and the rules
// file, if any. Missing or unreadable documents are skipped. A relative
// rulesFile is resolved against repoPath. Only a broken rules file is an
// error.
func LoadGuidelines(repoPath, rulesFile string) (Guidelines, error) {
	var g Guidelines
	if repoPath != "" {
		for _, f := range guidelineFiles {
			if doc, ok := readDocument(f.title, filepath.Join(repoPath, filepath.FromSlash(f.path))); ok {
				g.Documents = append(g.Documents, doc)
			}
		}
		g.Documents = append(g.Documents, skillDocuments(repoPath)...)
	}

	if rulesFile != "" {
		if !filepath.IsAbs(rulesFile) && repoPath != "" {
			rulesFile = filepath.Join(repoPath, rulesFile)
		}
		rules, err := LoadRules(rulesFile)
		if err != nil {
			return g, err
		}
		g.Rules = rules
	}
	return g, nil
}

// skillDocuments reads .github/skills/<name>/SKILL.md for every skill
// directory, sorted by name.
func skillDocuments(repoPath string) []Document {
	matches, err := filepath.Glob(filepath.Join(repoPath, ".github", "skills", "*", "SKILL.md"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	var docs []Document
	for _, m := range matches {
		name := filepath.Base(filepath.Dir(m))
		if doc, ok := readDocument("Skill: "+name, m); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

func readDocument(title, path string) (Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, false
	}
	body := strings.TrimSpace(string(data))
	if body == "" {
		return Document{}, false
	}
	if len(body) > maxDocumentBytes {
		body = body[:maxDocumentBytes] + "\n[truncated]"
	}
	return Document{Title: title, Path: path, Body: body}, true
}

// Text renders the documents as prompt sections.
func (g Guidelines) Text() string {
	if len(g.Documents) == 0 {
		return ""
	}
	parts := make([]string, 0, len(g.Documents))
	for _, d := range g.Documents {
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", d.Title, d.Body))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
