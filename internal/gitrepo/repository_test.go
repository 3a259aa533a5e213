package gitrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pipegate/internal/gitrepo"
)

func newTestRepository(testInstance *testing.T, message string) (*git.Repository, plumbing.Hash) {
	testInstance.Helper()
	filesystem := memfs.New()
	repository, initError := git.Init(memory.NewStorage(), filesystem)
	require.NoError(testInstance, initError)

	file, createError := filesystem.Create("README.md")
	require.NoError(testInstance, createError)
	_, writeError := file.Write([]byte("widgets\n"))
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, file.Close())

	worktree, worktreeError := repository.Worktree()
	require.NoError(testInstance, worktreeError)
	_, addError := worktree.Add("README.md")
	require.NoError(testInstance, addError)

	hash, commitError := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "ci-bot", Email: "ci@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(testInstance, commitError)
	return repository, hash
}

func TestRepositoryLatestCommitSubject(testInstance *testing.T) {
	testCases := []struct {
		name     string
		message  string
		expected string
	}{
		{name: "single line", message: "fix: handle empty tags [skip ci]", expected: "fix: handle empty tags [skip ci]"},
		{name: "subject and body", message: "feat: add pruning\n\nLonger body mentioning [skip cd]\n", expected: "feat: add pruning"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repository, _ := newTestRepository(testInstance, testCase.message)
			subject, subjectError := gitrepo.NewRepository(repository).LatestCommitSubject(context.Background())
			require.NoError(testInstance, subjectError)
			require.Equal(testInstance, testCase.expected, subject)
		})
	}
}

func TestRepositoryLatestCommitSubjectWithoutCommits(testInstance *testing.T) {
	repository, initError := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(testInstance, initError)

	_, subjectError := gitrepo.NewRepository(repository).LatestCommitSubject(context.Background())
	require.ErrorContains(testInstance, subjectError, "failed to resolve HEAD")
}

func TestRepositoryRemoteBranches(testInstance *testing.T) {
	repository, hash := newTestRepository(testInstance, "initial")
	for _, reference := range []*plumbing.Reference{
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "main"), hash),
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "release/2.x"), hash),
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("upstream", "main"), hash),
		plumbing.NewSymbolicReference(plumbing.NewRemoteReferenceName("origin", "HEAD"), plumbing.NewRemoteReferenceName("origin", "main")),
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("local-only"), hash),
	} {
		require.NoError(testInstance, repository.Storer.SetReference(reference))
	}

	branches, listError := gitrepo.NewRepository(repository).RemoteBranches(context.Background(), gitrepo.DefaultRemoteNameConstant)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{"main", "release/2.x"}, branches)
}

func TestRepositoryRemoteLocator(testInstance *testing.T) {
	repository, _ := newTestRepository(testInstance, "initial")
	_, remoteError := repository.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/widgets.git"}})
	require.NoError(testInstance, remoteError)

	locator, locatorError := gitrepo.NewRepository(repository).RemoteLocator(gitrepo.DefaultRemoteNameConstant)
	require.NoError(testInstance, locatorError)
	require.Equal(testInstance, gitrepo.RemoteLocator{Host: "github.com", Owner: "acme", Name: "widgets"}, locator)

	_, locatorError = gitrepo.NewRepository(repository).RemoteLocator("upstream")
	require.ErrorContains(testInstance, locatorError, "failed to read remote upstream")
}
