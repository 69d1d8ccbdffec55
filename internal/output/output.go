package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/reviewgate/internal/review"
)

// Writer writes a verdict in a specific format.
type Writer interface {
	Write(w io.Writer, v *review.Verdict) error
}

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "markdown"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteVerdict writes v to outPath, or to stdout when outPath is empty.
func WriteVerdict(v *review.Verdict, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return writer.Write(w, v)
}
