package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/store"
)

// GitHandoff commits exported files into a local repository that
// supervisors pull from.
type GitHandoff struct {
	Repo string
	Now  func() time.Time
}

// Commit copies the file at path into the repository and commits it with
// the operator as author. It returns the new commit hash, or "" when the
// file was already committed with the same content.
func (h GitHandoff) Commit(path string, author store.Profile) (string, error) {
	if h.Repo == "" {
		return "", errors.New("handoff: no repository configured")
	}
	repo, err := git.PlainOpen(h.Repo)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(h.Repo, 0o755); err != nil {
			return "", fmt.Errorf("handoff: %w", err)
		}
		repo, err = git.PlainInit(h.Repo, false)
	}
	if err != nil {
		return "", fmt.Errorf("handoff: open %s: %w", h.Repo, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("handoff: worktree: %w", err)
	}
	name := filepath.Base(path)
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("handoff: read export: %w", err)
	}
	if err := os.WriteFile(filepath.Join(h.Repo, name), body, 0o644); err != nil {
		return "", fmt.Errorf("handoff: copy export: %w", err)
	}
	if _, err := wt.Add(name); err != nil {
		return "", fmt.Errorf("handoff: add %s: %w", name, err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("handoff: status: %w", err)
	}
	if status.IsClean() {
		return "", nil
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	sig := &object.Signature{Name: signatureName(author), Email: signatureEmail(author), When: now()}
	hash, err := wt.Commit("export "+name, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("handoff: commit: %w", err)
	}
	log.GetLogger().WithField("repo", h.Repo).WithField("commit", hash.String()).Info("export handed off")
	return hash.String(), nil
}

func signatureName(p store.Profile) string {
	if p.Name == "" {
		return "shiftlog"
	}
	return p.Name
}

func signatureEmail(p store.Profile) string {
	if p.Number == "" {
		return "shiftlog@localhost"
	}
	return p.Number + "@shiftlog.local"
}
