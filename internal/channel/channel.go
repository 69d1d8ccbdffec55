package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Artifact file names. They are fixed so that independently started
// processes agree on the slot without any other coordination.
const (
	RequestFile  = "ai-review-request.json"
	DecisionFile = "ai-review-decision.json"
)

// Channel is a single-slot decision channel rooted at a directory.
type Channel struct {
	dir string
	log *zap.Logger

	// Test seams for the window between reading and claiming a request.
	beforeRename  func()
	beforeRestore func()
}

// New returns a channel in dir. An empty dir selects os.TempDir().
// A nil logger disables logging.
func New(dir string, log *zap.Logger) *Channel {
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{dir: dir, log: log.Named("channel")}
}

// Dir returns the channel directory.
func (c *Channel) Dir() string { return c.dir }

// RequestPath returns the path of the request artifact.
func (c *Channel) RequestPath() string { return filepath.Join(c.dir, RequestFile) }

// DecisionPath returns the path of the decision artifact.
func (c *Channel) DecisionPath() string { return filepath.Join(c.dir, DecisionFile) }

// WriteRequest atomically publishes a request artifact.
func (c *Channel) WriteRequest(req Request) error {
	if err := writeJSONAtomic(c.RequestPath(), req); err != nil {
		return fmt.Errorf("writing review request: %w", err)
	}
	return nil
}

// ReadRequest reads the pending request without claiming it.
func (c *Channel) ReadRequest() (Request, error) {
	return readRequestFile(c.RequestPath())
}

// RemoveRequest deletes the request artifact. A missing artifact is not an
// error.
func (c *Channel) RemoveRequest() error {
	return removeIfExists(c.RequestPath())
}

// WriteDecision atomically publishes a decision artifact. The action is
// normalized before writing.
func (c *Channel) WriteDecision(d Decision) error {
	d.Action = d.Action.Normalize()
	if err := writeJSONAtomic(c.DecisionPath(), d); err != nil {
		return fmt.Errorf("writing review decision: %w", err)
	}
	return nil
}

// Resolve writes a decision for the request this process claimed.
func (c *Channel) Resolve(action Action) error {
	d := NewDecision(action)
	if err := c.WriteDecision(d); err != nil {
		return err
	}
	c.log.Info("decision written", zap.String("action", string(d.Action)))
	return nil
}

// ReadDecision reads the decision artifact. A missing artifact returns an
// error satisfying errors.Is(err, fs.ErrNotExist).
func (c *Channel) ReadDecision() (Decision, error) {
	data, err := os.ReadFile(c.DecisionPath())
	if err != nil {
		return Decision{}, err
	}
	return decodeDecision(data)
}

// RemoveDecision deletes the decision artifact. A missing artifact is not an
// error.
func (c *Channel) RemoveDecision() error {
	return removeIfExists(c.DecisionPath())
}

// takeDecision consumes the decision artifact if present. A malformed
// decision is consumed as cancel so it is never re-read.
func (c *Channel) takeDecision() (Decision, bool) {
	d, err := c.ReadDecision()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Decision{}, false
		}
		if !errors.Is(err, ErrMalformed) {
			// Transient read failure; try again on the next poll.
			c.log.Debug("reading decision failed", zap.Error(err))
			return Decision{}, false
		}
		c.log.Warn("discarding malformed decision", zap.Error(err))
		d = Decision{Action: ActionCancel}
	}
	if err := c.RemoveDecision(); err != nil {
		c.log.Warn("removing consumed decision failed", zap.Error(err))
	}
	return d, true
}

func readRequestFile(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Request{}, ErrNoRequest
		}
		return Request{}, fmt.Errorf("reading review request: %w", err)
	}
	return decodeRequest(data)
}

// writeJSONAtomic writes v to a temp file in the target directory and renames
// it into place.
func writeJSONAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating channel directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
