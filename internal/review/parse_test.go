package review

import (
	"errors"
	"testing"
)

func TestParseVerdict_Valid(t *testing.T) {
	input := `{
		"status": "error",
		"summary": "Leftover debug output and a type error",
		"issues": [
			{
				"severity": "error",
				"type": "type",
				"file": "src/app.ts",
				"line": "12",
				"message": "count is a string",
				"suggestion": "parse it"
			},
			{
				"severity": "info",
				"type": "suggestion",
				"file": "src/app.ts",
				"message": "remove console.log"
			}
		]
	}`

	v, err := ParseVerdict(input)
	if err != nil {
		t.Fatalf("ParseVerdict error: %v", err)
	}
	if v.Status != StatusError {
		t.Errorf("Status = %q", v.Status)
	}
	if len(v.Issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(v.Issues))
	}
	if v.Issues[0].Line != "12" || v.Issues[0].Suggestion != "parse it" {
		t.Errorf("issue[0] = %+v", v.Issues[0])
	}
	if v.Issues[1].Line != "" {
		t.Errorf("issue[1].Line = %q, want empty", v.Issues[1].Line)
	}
}

func TestParseVerdict_NumericLine(t *testing.T) {
	v, err := ParseVerdict(`{"status":"warning","summary":"s","issues":[{"severity":"warning","type":"t","file":"a.go","line":42,"message":"m"}]}`)
	if err != nil {
		t.Fatalf("ParseVerdict error: %v", err)
	}
	if v.Issues[0].Line != "42" {
		t.Errorf("Line = %q, want 42", v.Issues[0].Line)
	}
}

func TestParseVerdict_MissingIssuesIsEmpty(t *testing.T) {
	v, err := ParseVerdict(`{"status":"success","summary":"ok"}`)
	if err != nil {
		t.Fatalf("ParseVerdict error: %v", err)
	}
	if v.Issues == nil || len(v.Issues) != 0 {
		t.Errorf("Issues = %#v, want empty non-nil slice", v.Issues)
	}
	if v.NeedsDecision() {
		t.Error("success verdict should not need a decision")
	}
}

func TestParseVerdict_Fences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"json fence", "```json\n{\"status\":\"success\",\"summary\":\"ok\",\"issues\":[]}\n```"},
		{"bare fence", "```\n{\"status\":\"success\",\"summary\":\"ok\",\"issues\":[]}\n```"},
		{"prose around fence", "Here you go:\n```json\n{\"status\":\"success\",\"summary\":\"ok\",\"issues\":[]}\n```\nThanks"},
		{"uppercase status", `{"status":"SUCCESS","summary":"ok","issues":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.input)
			if err != nil {
				t.Fatalf("ParseVerdict error: %v", err)
			}
			if v.Status != StatusSuccess || v.Summary != "ok" {
				t.Errorf("verdict = %+v", v)
			}
		})
	}
}

func TestParseVerdict_FenceInsideSuggestion(t *testing.T) {
	input := "{\n" +
		"  \"status\": \"warning\",\n" +
		"  \"summary\": \"Debug output left in.\",\n" +
		"  \"issues\": [\n" +
		"    {\"severity\": \"warning\", \"type\": \"quality\", \"file\": \"main.go\", \"line\": 4,\n" +
		"     \"message\": \"stray print\", \"suggestion\": \"wrap in ```go fmt.Println(x) ``` block\"}\n" +
		"  ]\n" +
		"}"

	v, err := ParseVerdict(input)
	if err != nil {
		t.Fatalf("ParseVerdict error: %v", err)
	}
	if v.Status != StatusWarning || len(v.Issues) != 1 {
		t.Fatalf("verdict = %+v", v)
	}
	if got := v.Issues[0].Suggestion; got != "wrap in ```go fmt.Println(x) ``` block" {
		t.Errorf("Suggestion = %q", got)
	}
	if got := v.Issues[0].Line; got != "4" {
		t.Errorf("Line = %q, want 4", got)
	}
}

func TestParseVerdict_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "looks good to me"},
		{"array", `[]`},
		{"missing status", `{"summary":"s","issues":[]}`},
		{"missing summary", `{"status":"success","issues":[]}`},
		{"unknown status", `{"status":"great","summary":"s"}`},
		{"unterminated", "```json\n{\"status\":"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var f *Failure
			if !errors.As(err, &f) || f.Kind != FailureMalformed {
				t.Errorf("err = %v, want malformed Failure", err)
			}
		})
	}
}
