package presenter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/reviewgate/internal/output"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	failedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// Terminal asks on a line-oriented terminal: it renders the notice to Out
// and reads "f"/"force" or "c"/"cancel" from In. Forcing asks for a second
// confirmation. With a positive Timeout an unanswered notice is cancelled.
//
// One goroutine reads In for the lifetime of the Terminal, so answers typed
// between notices are not lost and a timed-out read does not leak a reader.
type Terminal struct {
	In      io.Reader
	Out     io.Writer
	Timeout time.Duration
	Styled  bool

	once  sync.Once
	lines chan string
}

// NewTerminal returns a terminal presenter over in and out.
func NewTerminal(in io.Reader, out io.Writer, timeout time.Duration) *Terminal {
	return &Terminal{In: in, Out: out, Timeout: timeout}
}

func (t *Terminal) Present(ctx context.Context, n Notice) (Choice, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	if err := t.render(n); err != nil {
		return ChoiceCancel, err
	}

	for {
		t.printf("%s ", t.style(promptStyle, "[f]orce commit / [c]ancel:"))
		answer, err := t.readLine(ctx)
		if err != nil {
			t.printf("\n")
			return ChoiceCancel, err
		}
		switch answer {
		case "c", "cancel":
			return ChoiceCancel, nil
		case "f", "force":
			ok, err := t.confirm(ctx)
			if err != nil {
				t.printf("\n")
				return ChoiceCancel, err
			}
			if ok {
				return ChoiceForce, nil
			}
			return ChoiceCancel, nil
		default:
			t.printf("Please answer f or c.\n")
		}
	}
}

func (t *Terminal) confirm(ctx context.Context) (bool, error) {
	t.printf("%s ", t.style(promptStyle, "Commit anyway despite the review? [y/N]:"))
	answer, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "yes", nil
}

func (t *Terminal) render(n Notice) error {
	return Render(t.Out, n, t.Styled)
}

// Render writes a notice the way Terminal shows it, without the prompt.
func Render(out io.Writer, n Notice, styled bool) error {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintf(out, "\n%s\n", style(headerStyle, "reviewgate: commit review"))
	if n.RepositoryPath != "" {
		fmt.Fprintf(out, "%s\n", style(mutedStyle, "Repository: "+n.RepositoryPath))
	}
	if msg := strings.TrimSpace(n.CommitMessage); msg != "" {
		fmt.Fprintf(out, "%s\n", style(mutedStyle, "Message:    "+firstLine(msg)))
	}
	fmt.Fprintln(out)

	if n.IsFailure() {
		_, err := fmt.Fprintf(out, "%s\n%s\n\n", style(failedStyle, "AI review could not complete."), n.FailureMessage())
		return err
	}
	w := &output.TextWriter{Styled: styled}
	if err := w.Write(out, n.Verdict); err != nil {
		return fmt.Errorf("rendering verdict: %w", err)
	}
	_, err := fmt.Fprintln(out)
	return err
}

// readLine waits for the next trimmed, lower-cased line of input.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.once.Do(t.startReader)
	select {
	case line, ok := <-t.lines:
		if !ok {
			return "", fmt.Errorf("reading answer: %w", io.EOF)
		}
		return strings.ToLower(strings.TrimSpace(line)), nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	}
}

func (t *Terminal) startReader() {
	t.lines = make(chan string)
	go func() {
		defer close(t.lines)
		sc := bufio.NewScanner(t.In)
		for sc.Scan() {
			t.lines <- sc.Text()
		}
	}()
}

func (t *Terminal) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.Out, format, args...)
}

func (t *Terminal) style(s lipgloss.Style, text string) string {
	if !t.Styled {
		return text
	}
	return s.Render(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
