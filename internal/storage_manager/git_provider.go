package storage_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitFileProvider implements FileProvider over a git working tree. Prompt releases
// are read from the checkout; every write or delete becomes a commit.
type GitFileProvider struct {
	repoPath    string
	subdir      string
	repo        *git.Repository
	branch      string
	auth        transport.AuthMethod
	authorName  string
	authorEmail string
	mu          sync.RWMutex
}

// GitProviderOptions holds options for creating a GitFileProvider.
type GitProviderOptions struct {
	// Path is the working tree location.
	Path string
	// RemoteURL is cloned into Path when no repository exists there yet.
	RemoteURL string
	// Branch to clone and pull. Defaults to the remote HEAD.
	Branch string
	// Subdir scopes all file paths below the repository root.
	Subdir string
	// Username and Password enable HTTP basic auth against the remote.
	Username string
	Password string
	// AuthorName and AuthorEmail sign commits.
	AuthorName  string
	AuthorEmail string
	// InitIfMissing initializes an empty repository when there is nothing to open or clone.
	InitIfMissing bool
}

// NewGitFileProvider opens, clones or initializes the repository described by opts.
func NewGitFileProvider(ctx context.Context, opts GitProviderOptions) (*GitFileProvider, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("repository path is required")
	}

	p := &GitFileProvider{
		repoPath:    opts.Path,
		subdir:      cleanRelative(opts.Subdir),
		branch:      opts.Branch,
		authorName:  opts.AuthorName,
		authorEmail: opts.AuthorEmail,
	}
	if p.authorName == "" {
		p.authorName = "dating-coach"
	}
	if p.authorEmail == "" {
		p.authorEmail = "dating-coach@localhost"
	}
	if opts.Username != "" || opts.Password != "" {
		p.auth = &githttp.BasicAuth{Username: opts.Username, Password: opts.Password}
	}

	repo, err := git.PlainOpen(opts.Path)
	switch {
	case err == nil:
	case errors.Is(err, git.ErrRepositoryNotExists) && opts.RemoteURL != "":
		repo, err = p.clone(ctx, opts.RemoteURL)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, git.ErrRepositoryNotExists) && opts.InitIfMissing:
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create repository directory: %w", err)
		}
		repo, err = git.PlainInit(opts.Path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repository: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	p.repo = repo

	return p, nil
}

func (p *GitFileProvider) clone(ctx context.Context, url string) (*git.Repository, error) {
	opts := &git.CloneOptions{
		URL:          url,
		Auth:         p.auth,
		SingleBranch: true,
	}
	if p.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(p.branch)
	}
	repo, err := git.PlainCloneContext(ctx, p.repoPath, false, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return repo, nil
}

// Sync pulls the configured branch. A repository without an origin is left as is.
func (p *GitFileProvider) Sync(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.repo.Remote(git.DefaultRemoteName); errors.Is(err, git.ErrRemoteNotFound) {
		return nil
	}

	worktree, err := p.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	opts := &git.PullOptions{RemoteName: git.DefaultRemoteName, Auth: p.auth}
	if p.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(p.branch)
	}
	if err := worktree.PullContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull: %w", err)
	}
	return nil
}

// repoRelative is the path as git sees it, relative to the repository root.
func (p *GitFileProvider) repoRelative(rel string) string {
	return path.Join(p.subdir, cleanRelative(rel))
}

func (p *GitFileProvider) fullPath(rel string) string {
	return filepath.Join(p.repoPath, filepath.FromSlash(p.repoRelative(rel)))
}

// Read reads a file from the working tree.
func (p *GitFileProvider) Read(_ context.Context, rel string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.fullPath(rel)) //nolint:gosec // G304: path is confined to repoPath
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
	}
	return data, err
}

// Write writes data to a file and commits the change.
func (p *GitFileProvider) Write(_ context.Context, rel string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	full := p.fullPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	worktree, err := p.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := worktree.Add(p.repoRelative(rel)); err != nil {
		return fmt.Errorf("failed to stage file: %w", err)
	}
	return p.commit(worktree, fmt.Sprintf("[coach] Write %s", p.repoRelative(rel)))
}

// Exists checks if a file exists in the working tree.
func (p *GitFileProvider) Exists(_ context.Context, rel string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, err := os.Stat(p.fullPath(rel))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Delete removes a file and commits the deletion.
func (p *GitFileProvider) Delete(_ context.Context, rel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	full := p.fullPath(rel)
	if _, err := os.Stat(full); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	worktree, err := p.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := worktree.Remove(p.repoRelative(rel)); err != nil {
		// untracked files are unknown to the index; remove them from disk only
		if rmErr := os.Remove(full); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove file: %w", rmErr)
		}
		return nil
	}
	return p.commit(worktree, fmt.Sprintf("[coach] Delete %s", p.repoRelative(rel)))
}

func (p *GitFileProvider) commit(worktree *git.Worktree, msg string) error {
	_, err := worktree.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName,
			Email: p.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil && !errors.Is(err, git.ErrEmptyCommit) {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// List returns files under a prefix in the working tree, skipping .git.
func (p *GitFileProvider) List(_ context.Context, prefix string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	root := filepath.Join(p.repoPath, filepath.FromSlash(p.subdir))
	return walkFiles(root, p.fullPath(prefix), map[string]bool{".git": true})
}
