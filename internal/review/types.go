package review

// Status is the overall result the model assigns to a change-set.
type Status string

const (
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusSuccess Status = "success"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusError, StatusWarning, StatusSuccess:
		return true
	}
	return false
}

// Severity represents the severity level of an issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Issue is a single problem found in the diff. Type and Message are free
// text from the model and are only displayed.
type Issue struct {
	Severity   Severity `json:"severity"`
	Type       string   `json:"type"`
	File       string   `json:"file"`
	Line       string   `json:"line,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Verdict is the structured result of reviewing one diff.
type Verdict struct {
	Status  Status  `json:"status"`
	Summary string  `json:"summary"`
	Issues  []Issue `json:"issues"`
}

// NeedsDecision reports whether a human has to look at the verdict. A
// success status or an empty issue list passes without asking.
func (v *Verdict) NeedsDecision() bool {
	if v == nil {
		return true
	}
	return v.Status != StatusSuccess && len(v.Issues) > 0
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Counts tallies issues by severity. Unknown severities are not counted.
func (v *Verdict) Counts() SeverityCounts {
	var c SeverityCounts
	if v == nil {
		return c
	}
	for _, is := range v.Issues {
		switch is.Severity {
		case SeverityInfo:
			c.Info++
		case SeverityWarning:
			c.Warning++
		case SeverityError:
			c.Error++
		}
	}
	return c
}

// HighestSeverity returns the most severe issue level, or "" with no issues.
func (v *Verdict) HighestSeverity() Severity {
	var hi Severity
	if v == nil {
		return hi
	}
	for _, is := range v.Issues {
		if SeverityRank(is.Severity) > SeverityRank(hi) {
			hi = is.Severity
		}
	}
	return hi
}
