// Package gitops versions a project directory with the git command line.
// Exports are committed so the ledger's history can be diffed over time.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned when the staged tree matches HEAD.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who commits.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

func git(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	if out, err := git(ctx, dir, "init", "--quiet").CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Commit stages paths (everything when none are given) and commits them.
// It returns the short commit hash, or ErrNothingToCommit when the stage
// has no changes.
func Commit(ctx context.Context, dir, message string, author Author, paths ...string) (string, error) {
	add := append([]string{"add", "-A", "--"}, paths...)
	if out, err := git(ctx, dir, add...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", strings.TrimSpace(string(out)), err)
	}

	// Exit status 1 means the index differs from HEAD.
	err := git(ctx, dir, "diff", "--cached", "--quiet").Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return "", ErrNothingToCommit
	case err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == 1):
		return "", fmt.Errorf("git diff: %w", err)
	}

	commit := git(ctx, dir, "commit", "--quiet", "-m", message, "--author", author.String())
	commit.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+author.Name,
		"GIT_COMMITTER_EMAIL="+author.Email,
	)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", strings.TrimSpace(string(out)), err)
	}

	out, err := git(ctx, dir, "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
