package binding

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SnapshotArchive keeps an independent, append-only git history of every
// document's SAVE blob, separate from Automerge's own change history —
// an audit trail a deployment can inspect with ordinary git tooling even
// if it never needs Automerge's change-log replay (spec.md §4.4
// supplement). Grounded on the teacher's GoGitRepo: a non-bare repository
// (with a working tree) opened or initialized with go-git, at most one
// commit per Record call.
type SnapshotArchive struct {
	dir  string
	repo *gogit.Repository
	mu   sync.Mutex
}

// OpenSnapshotArchive opens (or initializes) a git repository at dir to
// serve as the snapshot archive.
func OpenSnapshotArchive(dir string) (*SnapshotArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("binding: create archive dir: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("binding: init archive repo: %w", err)
		}
	}
	return &SnapshotArchive{dir: dir, repo: repo}, nil
}

// Record writes key's snapshot blob to <dir>/<sanitized key> and commits
// it, if the content actually changed since the last commit touching
// that path.
func (a *SnapshotArchive) Record(key string, blob []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	relPath := sanitizeKey(key) + ".bin"
	absPath := filepath.Join(a.dir, relPath)
	if err := os.WriteFile(absPath, blob, 0o644); err != nil {
		return fmt.Errorf("binding: write snapshot blob: %w", err)
	}

	w, err := a.repo.Worktree()
	if err != nil {
		return fmt.Errorf("binding: worktree: %w", err)
	}
	if _, err := w.Add(relPath); err != nil {
		return fmt.Errorf("binding: stage snapshot: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("binding: worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	sig := &object.Signature{Name: "amergekv", Email: "amergekv@localhost", When: time.Now()}
	if _, err := w.Commit("snapshot "+key, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("binding: commit snapshot: %w", err)
	}
	return nil
}

// sanitizeKey maps a document key to a filesystem- and git-path-safe
// name, since keys may contain ':' and other separators the host's own
// key scheme uses freely.
func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	s := replacer.Replace(key)
	if s == "" {
		return "root"
	}
	return s
}
