package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

const (
	tokenUsernameConstant       = "x-access-token"
	cloneTemplateConstant       = "failed to clone %s: %w"
	invalidHashTemplate         = "invalid commit hash %q"
	unreachableCommitTemplate   = "commit %s is not reachable from %s within %d commits: %w"
	pinnedCheckoutTemplate      = "failed to check out commit %s: %w"
	deepenTemplateConstant      = "failed to fetch history of %s: %w"
	cloneStartedMessage         = "Cloning repository"
	deepeningMessage            = "Pinned commit is behind the shallow clone, fetching more history"
	urlFieldConstant            = "url"
	directoryFieldConstant      = "directory"
	referenceFieldConstant      = "reference"
	depthFieldConstant          = "depth"
	hashFieldConstant           = "hash"
	defaultCloneDepthConstant   = 1
	pinnedCommitDeepenConstant  = 50
	headReferenceConstant       = "HEAD"
	branchReferencePrefix       = "refs/heads/"
	remoteTrackingPrefixPattern = "refs/remotes/%s/%s"
	forcedRefSpecTemplate       = "+%s:%s"
)

// CloneRequest describes a checkout.
type CloneRequest struct {
	Locator RemoteLocator
	// URL overrides the clone URL derived from Locator.
	URL       string
	Directory string
	// Reference is a full ref such as refs/heads/main; empty clones the remote default branch.
	Reference string
	// Hash pins the checkout to one commit of Reference instead of its tip.
	Hash  string
	Depth int
	Token string
}

// Cloner performs shallow clones with go-git.
type Cloner struct {
	logger *zap.Logger
}

// NewCloner constructs a Cloner; a nil logger disables logging.
func NewCloner(logger *zap.Logger) *Cloner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cloner{logger: logger}
}

// Clone checks the repository out into request.Directory. With a Hash the working tree is left at that commit,
// fetching up to pinnedCommitDeepenConstant more commits when the shallow clone stops short of it.
func (cloner *Cloner) Clone(executionContext context.Context, request CloneRequest) (*Repository, error) {
	options, optionsError := buildCloneOptions(request)
	if optionsError != nil {
		return nil, optionsError
	}

	cloner.logger.Debug(cloneStartedMessage,
		zap.String(urlFieldConstant, options.URL),
		zap.String(directoryFieldConstant, request.Directory),
		zap.String(referenceFieldConstant, request.Reference),
		zap.String(hashFieldConstant, request.Hash),
		zap.Int(depthFieldConstant, options.Depth),
	)

	repository, cloneError := git.PlainCloneContext(executionContext, request.Directory, false, options)
	if cloneError != nil {
		return nil, fmt.Errorf(cloneTemplateConstant, options.URL, cloneError)
	}
	if len(request.Hash) == 0 {
		return NewRepository(repository), nil
	}

	deepen := func() error {
		cloner.logger.Debug(deepeningMessage, zap.String(hashFieldConstant, request.Hash), zap.Int(depthFieldConstant, options.Depth+pinnedCommitDeepenConstant))
		fetchError := repository.FetchContext(executionContext, &git.FetchOptions{
			RefSpecs: []config.RefSpec{pinnedRefSpec(request.Reference)},
			Depth:    options.Depth + pinnedCommitDeepenConstant,
			Auth:     options.Auth,
			Tags:     git.NoTags,
			Force:    true,
		})
		if fetchError != nil && !errors.Is(fetchError, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf(deepenTemplateConstant, options.URL, fetchError)
		}
		return nil
	}
	if pinError := checkoutPinnedCommit(repository, request, options.Depth+pinnedCommitDeepenConstant, deepen); pinError != nil {
		return nil, pinError
	}
	return NewRepository(repository), nil
}

// checkoutPinnedCommit moves the working tree to request.Hash, calling deepen once when the commit is missing.
func checkoutPinnedCommit(repository *git.Repository, request CloneRequest, searchedDepth int, deepen func() error) error {
	hash := plumbing.NewHash(request.Hash)
	if _, commitError := repository.CommitObject(hash); errors.Is(commitError, plumbing.ErrObjectNotFound) {
		if deepenError := deepen(); deepenError != nil {
			return deepenError
		}
		if _, commitError = repository.CommitObject(hash); commitError != nil {
			return fmt.Errorf(unreachableCommitTemplate, request.Hash, referenceOrHead(request.Reference), searchedDepth, commitError)
		}
	} else if commitError != nil {
		return fmt.Errorf(pinnedCheckoutTemplate, request.Hash, commitError)
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(pinnedCheckoutTemplate, request.Hash, worktreeError)
	}
	if checkoutError := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); checkoutError != nil {
		return fmt.Errorf(pinnedCheckoutTemplate, request.Hash, checkoutError)
	}
	return nil
}

func buildCloneOptions(request CloneRequest) (*git.CloneOptions, error) {
	cloneURL := request.URL
	if len(cloneURL) == 0 {
		locatorURL, urlError := request.Locator.CloneURL()
		if urlError != nil {
			return nil, urlError
		}
		cloneURL = locatorURL
	}
	if len(request.Hash) > 0 && !plumbing.IsHash(request.Hash) {
		return nil, fmt.Errorf(invalidHashTemplate, request.Hash)
	}

	depth := request.Depth
	if depth <= 0 {
		depth = defaultCloneDepthConstant
	}

	options := &git.CloneOptions{
		URL:          cloneURL,
		Depth:        depth,
		SingleBranch: true,
		Tags:         git.NoTags,
		NoCheckout:   len(request.Hash) > 0,
	}
	if len(request.Reference) > 0 {
		options.ReferenceName = plumbing.ReferenceName(request.Reference)
	}
	if len(request.Token) > 0 {
		options.Auth = &githttp.BasicAuth{Username: tokenUsernameConstant, Password: request.Token}
	}
	return options, nil
}

// pinnedRefSpec fetches reference into its remote-tracking ref; non-branch refs such as refs/pull/42/merge keep
// their own name.
func pinnedRefSpec(reference string) config.RefSpec {
	source := referenceOrHead(reference)
	destination := source
	if branch, isBranch := strings.CutPrefix(source, branchReferencePrefix); isBranch {
		destination = fmt.Sprintf(remoteTrackingPrefixPattern, DefaultRemoteNameConstant, branch)
	} else if source == headReferenceConstant {
		destination = fmt.Sprintf(remoteTrackingPrefixPattern, DefaultRemoteNameConstant, headReferenceConstant)
	}
	return config.RefSpec(fmt.Sprintf(forcedRefSpecTemplate, source, destination))
}

func referenceOrHead(reference string) string {
	if len(reference) == 0 {
		return headReferenceConstant
	}
	return reference
}
