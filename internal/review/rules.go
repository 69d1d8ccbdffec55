package review

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules is a team rules pack loaded from the rulesFile setting. The file is
// YAML; plain JSON also parses.
type Rules struct {
	Focus             []string          `yaml:"focus,omitempty"`
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty"`
	Required          []RequiredCheck   `yaml:"required,omitempty"`
}

// RequiredCheck is a policy check that should always be enforced.
type RequiredCheck struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	for i, rc := range rules.Required {
		if strings.TrimSpace(rc.Text) == "" {
			return nil, fmt.Errorf("rules file %s: required check %d has no text", path, i+1)
		}
	}
	for typ, sev := range rules.SeverityOverrides {
		if SeverityRank(Severity(sev)) == 0 {
			return nil, fmt.Errorf("rules file %s: severity %q for %q must be info, warning or error", path, sev, typ)
		}
	}
	return &rules, nil
}

// BuildRulesPromptSection returns additional prompt instructions derived from rules.
func BuildRulesPromptSection(rules *Rules) string {
	if rules == nil {
		return ""
	}

	var b strings.Builder

	if len(rules.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize issues in these areas.\n",
			strings.Join(rules.Focus, ", "))
	}

	if len(rules.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		for _, typ := range slices.Sorted(maps.Keys(rules.SeverityOverrides)) {
			fmt.Fprintf(&b, "- %s issues should be rated as %s.\n", typ, rules.SeverityOverrides[typ])
		}
	}

	if len(rules.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range rules.Required {
			if req.ID != "" {
				fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
			} else {
				fmt.Fprintf(&b, "- %s\n", req.Text)
			}
		}
	}

	return b.String()
}

// ApplySeverityOverrides rewrites issue severities by issue type. Type
// matching ignores case.
func ApplySeverityOverrides(v *Verdict, rules *Rules) {
	if v == nil || rules == nil || len(rules.SeverityOverrides) == 0 {
		return
	}
	overrides := make(map[string]Severity, len(rules.SeverityOverrides))
	for typ, sev := range rules.SeverityOverrides {
		overrides[strings.ToLower(typ)] = Severity(sev)
	}
	for i := range v.Issues {
		if sev, ok := overrides[strings.ToLower(v.Issues[i].Type)]; ok {
			v.Issues[i].Severity = sev
		}
	}
}
