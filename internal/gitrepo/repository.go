package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	// DefaultRemoteNameConstant is the remote every pipeline operation targets.
	DefaultRemoteNameConstant = "origin"

	remoteHeadNameConstant         = "HEAD"
	openRepositoryTemplateConstant = "failed to open repository at %s: %w"
	headTemplateConstant           = "failed to resolve HEAD: %w"
	commitTemplateConstant         = "failed to read commit %s: %w"
	referencesTemplateConstant     = "failed to list references: %w"
	remoteTemplateConstant         = "failed to read remote %s: %w"
	commitMessageLineSeparator     = "\n"
)

// ErrRemoteWithoutURL marks a configured remote that has no URL.
var ErrRemoteWithoutURL = errors.New("remote has no url")

// Repository reads commit and ref information through go-git.
type Repository struct {
	repository *git.Repository
}

// NewRepository wraps an already opened go-git repository.
func NewRepository(repository *git.Repository) *Repository {
	return &Repository{repository: repository}
}

// OpenRepository opens the repository containing path, searching parent directories for .git.
func OpenRepository(path string) (*Repository, error) {
	repository, openError := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryTemplateConstant, path, openError)
	}
	return NewRepository(repository), nil
}

// LatestCommitSubject returns the first line of the HEAD commit message, the text skip patterns are matched
// against.
func (repository *Repository) LatestCommitSubject(_ context.Context) (string, error) {
	head, headError := repository.repository.Head()
	if headError != nil {
		return "", fmt.Errorf(headTemplateConstant, headError)
	}
	commit, commitError := repository.repository.CommitObject(head.Hash())
	if commitError != nil {
		return "", fmt.Errorf(commitTemplateConstant, head.Hash(), commitError)
	}
	subject, _, _ := strings.Cut(strings.TrimSpace(commit.Message), commitMessageLineSeparator)
	return strings.TrimSpace(subject), nil
}

// RemoteBranches lists the branch names tracked for remote, without the remote prefix and without the remote HEAD
// pointer, sorted by name.
func (repository *Repository) RemoteBranches(_ context.Context, remote string) ([]string, error) {
	references, referencesError := repository.repository.References()
	if referencesError != nil {
		return nil, fmt.Errorf(referencesTemplateConstant, referencesError)
	}
	defer references.Close()

	prefix := plumbing.NewRemoteReferenceName(remote, "").String()
	branches := []string{}
	iterationError := references.ForEach(func(reference *plumbing.Reference) error {
		name := reference.Name().String()
		if !reference.Name().IsRemote() || !strings.HasPrefix(name, prefix) {
			return nil
		}
		branch := strings.TrimPrefix(name, prefix)
		if branch == remoteHeadNameConstant || len(branch) == 0 {
			return nil
		}
		branches = append(branches, branch)
		return nil
	})
	if iterationError != nil {
		return nil, fmt.Errorf(referencesTemplateConstant, iterationError)
	}
	sort.Strings(branches)
	return branches, nil
}

// RemoteLocator parses the first URL of remote.
func (repository *Repository) RemoteLocator(remote string) (RemoteLocator, error) {
	configuredRemote, remoteError := repository.repository.Remote(remote)
	if remoteError != nil {
		return RemoteLocator{}, fmt.Errorf(remoteTemplateConstant, remote, remoteError)
	}
	urls := configuredRemote.Config().URLs
	if len(urls) == 0 {
		return RemoteLocator{}, fmt.Errorf(remoteTemplateConstant, remote, ErrRemoteWithoutURL)
	}
	return ParseRemoteLocator(urls[0])
}
