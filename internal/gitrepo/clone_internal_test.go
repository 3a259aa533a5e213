package gitrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

const testPinnedHashConstant = "0123456789abcdef0123456789abcdef01234567"

func TestBuildCloneOptions(testInstance *testing.T) {
	locator := RemoteLocator{Owner: "acme", Name: "widgets"}

	options, optionsError := buildCloneOptions(CloneRequest{Locator: locator, Reference: "refs/heads/main", Token: "secret"})
	require.NoError(testInstance, optionsError)
	require.Equal(testInstance, "https://github.com/acme/widgets.git", options.URL)
	require.Equal(testInstance, defaultCloneDepthConstant, options.Depth)
	require.Equal(testInstance, plumbing.ReferenceName("refs/heads/main"), options.ReferenceName)
	require.True(testInstance, options.SingleBranch)
	require.False(testInstance, options.NoCheckout)
	require.Equal(testInstance, git.NoTags, options.Tags)
	require.Equal(testInstance, &githttp.BasicAuth{Username: tokenUsernameConstant, Password: "secret"}, options.Auth)

	options, optionsError = buildCloneOptions(CloneRequest{Locator: locator, Depth: 50})
	require.NoError(testInstance, optionsError)
	require.Equal(testInstance, 50, options.Depth)
	require.Empty(testInstance, options.ReferenceName)
	require.Nil(testInstance, options.Auth)

	options, optionsError = buildCloneOptions(CloneRequest{URL: "/srv/git/widgets.git", Hash: testPinnedHashConstant})
	require.NoError(testInstance, optionsError)
	require.Equal(testInstance, "/srv/git/widgets.git", options.URL)
	require.True(testInstance, options.NoCheckout)

	_, optionsError = buildCloneOptions(CloneRequest{Locator: locator, Hash: "abc123"})
	require.EqualError(testInstance, optionsError, `invalid commit hash "abc123"`)

	_, optionsError = buildCloneOptions(CloneRequest{})
	require.Error(testInstance, optionsError)
}

func TestPinnedRefSpec(testInstance *testing.T) {
	testCases := []struct {
		reference string
		expected  config.RefSpec
	}{
		{reference: "refs/heads/main", expected: "+refs/heads/main:refs/remotes/origin/main"},
		{reference: "refs/pull/42/merge", expected: "+refs/pull/42/merge:refs/pull/42/merge"},
		{reference: "", expected: "+HEAD:refs/remotes/origin/HEAD"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.reference, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, pinnedRefSpec(testCase.reference))
		})
	}
}

// newBranchAheadOfEvent returns a repository whose branch tip is one commit past the commit an event fired for.
func newBranchAheadOfEvent(testInstance *testing.T) (*git.Repository, plumbing.Hash) {
	testInstance.Helper()
	filesystem := memfs.New()
	repository, initError := git.Init(memory.NewStorage(), filesystem)
	require.NoError(testInstance, initError)
	worktree, worktreeError := repository.Worktree()
	require.NoError(testInstance, worktreeError)

	commit := func(contents string, message string) plumbing.Hash {
		file, createError := filesystem.Create("README.md")
		require.NoError(testInstance, createError)
		_, writeError := file.Write([]byte(contents))
		require.NoError(testInstance, writeError)
		require.NoError(testInstance, file.Close())
		_, addError := worktree.Add("README.md")
		require.NoError(testInstance, addError)
		hash, commitError := worktree.Commit(message, &git.CommitOptions{
			Author: &object.Signature{Name: "ci-bot", Email: "ci@example.com", When: time.Unix(1700000000, 0)},
		})
		require.NoError(testInstance, commitError)
		return hash
	}

	eventCommit := commit("v1\n", "fix: release widgets [skip ci]")
	commit("v2\n", "feat: newer work pushed after the event")
	return repository, eventCommit
}

func TestCheckoutPinnedCommitUsesEventCommit(testInstance *testing.T) {
	repository, eventCommit := newBranchAheadOfEvent(testInstance)
	deepenCalls := 0

	pinError := checkoutPinnedCommit(repository, CloneRequest{Reference: "refs/heads/master", Hash: eventCommit.String()}, 51, func() error {
		deepenCalls++
		return nil
	})
	require.NoError(testInstance, pinError)
	require.Zero(testInstance, deepenCalls)

	head, headError := repository.Head()
	require.NoError(testInstance, headError)
	require.Equal(testInstance, eventCommit, head.Hash())

	subject, subjectError := NewRepository(repository).LatestCommitSubject(context.Background())
	require.NoError(testInstance, subjectError)
	require.Equal(testInstance, "fix: release widgets [skip ci]", subject)
}

func TestCheckoutPinnedCommitDeepensOnceForMissingCommit(testInstance *testing.T) {
	repository, _ := newBranchAheadOfEvent(testInstance)
	deepenCalls := 0

	pinError := checkoutPinnedCommit(repository, CloneRequest{Reference: "refs/heads/master", Hash: testPinnedHashConstant}, 51, func() error {
		deepenCalls++
		return nil
	})
	require.ErrorContains(testInstance, pinError, "commit "+testPinnedHashConstant+" is not reachable from refs/heads/master within 51 commits")
	require.Equal(testInstance, 1, deepenCalls)

	fetchFailure := errors.New("connection reset")
	pinError = checkoutPinnedCommit(repository, CloneRequest{Hash: testPinnedHashConstant}, 51, func() error { return fetchFailure })
	require.ErrorIs(testInstance, pinError, fetchFailure)
}
