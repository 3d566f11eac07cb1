// Package git records every write of the data file as a commit in a git
// repository, using go-git (pure Go, no git binary dependency).
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Author identifies who commits.
type Author struct {
	Name  string
	Email string
}

// Commit is a single entry of the history.
type Commit struct {
	Hash    string
	Message string
	Author  string
	When    time.Time
}

// History commits files of a directory after each write.
//
// It implements jsondb.Observer.
type History struct {
	dir    string
	author Author
	mu     sync.Mutex
	repo   *gogit.Repository
}

// Open opens the git repository at dir, initializing it when needed.
func Open(dir string, author Author) (*History, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		// Not a repo yet; initialize.
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = author.Name
		cfg.User.Email = author.Email
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}
	return &History{dir: dir, author: author, repo: repo}, nil
}

// OnWrite stages and commits path. It is a no-op when the file is unchanged.
func (h *History) OnWrite(path string) error {
	rel, err := filepath.Rel(h.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%s is outside of %s", path, h.dir)
	}
	rel = filepath.ToSlash(rel)
	return h.commit(rel, "Update "+rel)
}

func (h *History) commit(rel, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, err := h.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := w.Add(rel); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	// Only look at the staged file; other files in the directory stay untracked.
	if s := status.File(rel); s.Staging == gogit.Unmodified || s.Staging == gogit.Untracked {
		return nil
	}
	now := time.Now()
	sig := &object.Signature{Name: h.author.Name, Email: h.author.Email, When: now}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Log returns up to n commits touching rel, newest first.
func (h *History) Log(_ context.Context, rel string, n int) ([]*Commit, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	opts := &gogit.LogOptions{}
	if rel != "" && rel != "." {
		opts.FileName = &rel
	}
	iter, err := h.repo.Log(opts)
	if err != nil {
		return nil, nil // no commits yet is not an error
	}
	defer iter.Close()

	var commits []*Commit
	for range n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, &Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
	}
	return commits, nil
}
