package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/reviewgate/internal/review"
)

// JSONWriter outputs the verdict as indented JSON, in the same shape the
// model is asked to produce.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, v *review.Verdict) error {
	if v == nil {
		return fmt.Errorf("no verdict to write")
	}
	out := *v
	if out.Issues == nil {
		out.Issues = []review.Issue{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
