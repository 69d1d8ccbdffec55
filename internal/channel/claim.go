package channel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Owns reports whether a responder scoped to the given folders should handle
// a request for repoPath. A folder matches when it equals repoPath, contains
// it, or is contained by it. An empty repoPath carries no owner and matches
// any responder.
func Owns(scope []string, repoPath string) bool {
	if repoPath == "" {
		return true
	}
	repo := filepath.Clean(repoPath)
	for _, folder := range scope {
		if folder == "" {
			continue
		}
		f := filepath.Clean(folder)
		if repo == f || isWithin(repo, f) || isWithin(f, repo) {
			return true
		}
	}
	return false
}

// isWithin reports whether path is strictly below dir.
func isWithin(path, dir string) bool {
	if dir == string(filepath.Separator) {
		return path != dir && strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// Claim takes exclusive ownership of the pending request if it belongs to
// scope. The request artifact is renamed to a private path before it is
// read back, so when several responders race only one rename succeeds and
// the others get ErrNoRequest.
//
// Errors:
//   - ErrNoRequest: nothing pending, or another responder won the claim
//   - ErrNotOwner: pending request left untouched for its owner
//   - ErrMalformed: pending request does not parse; left untouched
//   - ErrClaimedMalformed: claimed, but unreadable; caller must resolve
func (c *Channel) Claim(scope []string) (Request, error) {
	req, err := c.ReadRequest()
	if err != nil {
		return Request{}, err
	}
	if !Owns(scope, req.RepositoryPath) {
		return Request{}, ErrNotOwner
	}

	if c.beforeRename != nil {
		c.beforeRename()
	}
	claimPath := filepath.Join(c.dir, fmt.Sprintf(".%s.claim-%d-%s", RequestFile, os.Getpid(), uuid.NewString()))
	if err := os.Rename(c.RequestPath(), claimPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.log.Debug("request claimed by another responder")
			return Request{}, ErrNoRequest
		}
		return Request{}, fmt.Errorf("claiming review request: %w", err)
	}
	defer func() {
		if err := removeIfExists(claimPath); err != nil {
			c.log.Warn("removing claimed request failed", zap.String("path", claimPath), zap.Error(err))
		}
	}()

	// Re-read what was actually claimed; the slot may have been rewritten
	// between the ownership check and the rename.
	claimed, err := readRequestFile(claimPath)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrClaimedMalformed, err)
	}
	if !Owns(scope, claimed.RepositoryPath) {
		// Not ours after all. Put it back for its owner unless a newer
		// request has appeared in the meantime.
		if c.beforeRestore != nil {
			c.beforeRestore()
		}
		if err := os.Link(claimPath, c.RequestPath()); err != nil {
			c.log.Warn("foreign request dropped; its requester will time out",
				zap.String("repositoryPath", claimed.RepositoryPath),
				zap.Time("createdAt", claimed.CreatedAt()),
				zap.Error(err))
		}
		return Request{}, ErrNotOwner
	}

	c.log.Info("request claimed",
		zap.String("repositoryPath", claimed.RepositoryPath),
		zap.Time("createdAt", claimed.CreatedAt()),
		zap.Int("diffBytes", len(claimed.Diff)))
	return claimed, nil
}
