package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseVerdict decodes a model response into a Verdict. The JSON object may
// be wrapped in a ``` or ```json fence. status and summary are required.
func ParseVerdict(content string) (*Verdict, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &Failure{Kind: FailureMalformed, Err: errors.New("empty response")}
	}

	var raw rawVerdict
	// A bare object is decoded as is; fences inside its strings are content.
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		fenced := stripFence(content)
		if fenced == content {
			return nil, &Failure{Kind: FailureMalformed, Err: fmt.Errorf("invalid JSON object: %w", err)}
		}
		raw = rawVerdict{}
		if err := json.Unmarshal([]byte(fenced), &raw); err != nil {
			return nil, &Failure{Kind: FailureMalformed, Err: fmt.Errorf("invalid JSON object: %w", err)}
		}
	}
	if raw.Status == "" || raw.Summary == "" {
		return nil, &Failure{Kind: FailureMalformed, Err: errors.New("response is missing status or summary")}
	}

	v := &Verdict{
		Status:  Status(strings.ToLower(raw.Status)),
		Summary: raw.Summary,
		Issues:  make([]Issue, 0, len(raw.Issues)),
	}
	if !v.Status.Valid() {
		return nil, &Failure{Kind: FailureMalformed, Err: fmt.Errorf("unknown status %q", raw.Status)}
	}
	for _, r := range raw.Issues {
		v.Issues = append(v.Issues, Issue{
			Severity:   Severity(strings.ToLower(r.Severity)),
			Type:       r.Type,
			File:       r.File,
			Line:       lineText(r.Line),
			Message:    r.Message,
			Suggestion: r.Suggestion,
		})
	}
	return v, nil
}

// rawIssue is the issue shape returned by the model. Models send line as
// either a string ("12-14") or a bare number.
type rawVerdict struct {
	Status  string     `json:"status"`
	Summary string     `json:"summary"`
	Issues  []rawIssue `json:"issues"`
}

type rawIssue struct {
	Severity   string          `json:"severity"`
	Type       string          `json:"type"`
	File       string          `json:"file"`
	Line       json.RawMessage `json:"line"`
	Message    string          `json:"message"`
	Suggestion string          `json:"suggestion"`
}

func lineText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// stripFence returns the body of the first fenced block, or content as is.
func stripFence(content string) string {
	start := strings.Index(content, "```")
	if start < 0 {
		return content
	}
	body := content[start+3:]
	// Drop the info string (json, JSON, ...) on the opening line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return content
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
