package runcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/joho/godotenv"

	"github.com/temirov/pipegate/internal/metadata"
)

// Environment variable names read by the Loader.
const (
	CommitShaVariableConstant       = "GITHUB_SHA"
	RefVariableConstant             = "GITHUB_REF"
	EventNameVariableConstant       = "GITHUB_EVENT_NAME"
	EventPathVariableConstant       = "GITHUB_EVENT_PATH"
	ActorVariableConstant           = "GITHUB_ACTOR"
	RepositoryVariableConstant      = "GITHUB_REPOSITORY"
	RepositoryOwnerVariableConstant = "GITHUB_REPOSITORY_OWNER"
	RunnerOSVariableConstant        = "RUNNER_OS"
	ExportFileVariableConstant      = "GITHUB_ENV"
	DebugVariableConstant           = "DEBUG"
)

const (
	repositorySeparatorConstant    = "/"
	dotenvReadErrorTemplate        = "failed to read dotenv file %s: %w"
	eventPayloadReadErrorTemplate  = "failed to read event payload %s: %w"
	eventPayloadParseErrorTemplate = "failed to parse event payload %s: %w"
)

// Snapshot is everything the run environment tells the collector.
type Snapshot struct {
	Run metadata.RunContext
	// Debug is the raw DEBUG variable.
	Debug string
	// ExportPath is the file environment exports are appended to; empty outside GitHub Actions.
	ExportPath string
}

// Options configures a Loader. Nil functions fall back to the os package.
type Options struct {
	DotenvPath        string
	LookupEnvironment func(key string) (string, bool)
	ReadFile          func(path string) ([]byte, error)
}

// Loader builds Snapshots.
type Loader struct {
	options Options
}

// NewLoader constructs a Loader.
func NewLoader(options Options) *Loader {
	if options.LookupEnvironment == nil {
		options.LookupEnvironment = os.LookupEnv
	}
	if options.ReadFile == nil {
		options.ReadFile = os.ReadFile
	}
	return &Loader{options: options}
}

// Load reads the environment and the event payload. Process variables win over dotenv values.
func (loader *Loader) Load(_ context.Context) (Snapshot, error) {
	lookup, lookupError := loader.environmentLookup()
	if lookupError != nil {
		return Snapshot{}, lookupError
	}

	owner, name := splitRepository(lookup(RepositoryVariableConstant))
	if explicitOwner := lookup(RepositoryOwnerVariableConstant); len(explicitOwner) > 0 {
		owner = explicitOwner
	}

	run := metadata.RunContext{
		CommitSha:       lookup(CommitShaVariableConstant),
		Ref:             lookup(RefVariableConstant),
		EventName:       lookup(EventNameVariableConstant),
		Actor:           lookup(ActorVariableConstant),
		RepositoryOwner: owner,
		RepositoryName:  name,
		RunnerOS:        lookup(RunnerOSVariableConstant),
	}

	// Any event may carry a pull_request object; only a pull_request event must have a readable payload.
	if eventPath := lookup(EventPathVariableConstant); len(eventPath) > 0 {
		event, payloadError := loader.readEventPayload(eventPath)
		if payloadError != nil && run.IsPullRequest() {
			return Snapshot{}, payloadError
		}
		if payloadError == nil {
			run.PullRequestNumber, run.PullRequestDraft = pullRequestFromEvent(event, run.IsPullRequest())
		}
	}

	return Snapshot{
		Run:        run,
		Debug:      lookup(DebugVariableConstant),
		ExportPath: lookup(ExportFileVariableConstant),
	}, nil
}

func (loader *Loader) environmentLookup() (func(string) string, error) {
	dotenvValues := map[string]string{}
	if len(loader.options.DotenvPath) > 0 {
		contents, readError := loader.options.ReadFile(loader.options.DotenvPath)
		if readError != nil {
			return nil, fmt.Errorf(dotenvReadErrorTemplate, loader.options.DotenvPath, readError)
		}
		parsed, parseError := godotenv.UnmarshalBytes(contents)
		if parseError != nil {
			return nil, fmt.Errorf(dotenvReadErrorTemplate, loader.options.DotenvPath, parseError)
		}
		dotenvValues = parsed
	}

	return func(key string) string {
		if value, found := loader.options.LookupEnvironment(key); found && len(strings.TrimSpace(value)) > 0 {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(dotenvValues[key])
	}, nil
}

func (loader *Loader) readEventPayload(eventPath string) (*github.PullRequestEvent, error) {
	contents, readError := loader.options.ReadFile(eventPath)
	if readError != nil {
		return nil, fmt.Errorf(eventPayloadReadErrorTemplate, eventPath, readError)
	}

	var event github.PullRequestEvent
	if decodeError := json.Unmarshal(contents, &event); decodeError != nil {
		return nil, fmt.Errorf(eventPayloadParseErrorTemplate, eventPath, decodeError)
	}
	return &event, nil
}

// pullRequestFromEvent returns a nil number when the payload carries none, which the evaluator rejects for pull
// request events. The top-level "number" is only trusted on pull request events.
func pullRequestFromEvent(event *github.PullRequestEvent, pullRequestEvent bool) (*int, bool) {
	number := 0
	if pullRequestEvent {
		number = event.GetNumber()
	}
	if pullRequest := event.GetPullRequest(); pullRequest != nil && pullRequest.GetNumber() != 0 {
		number = pullRequest.GetNumber()
	}
	draft := event.GetPullRequest().GetDraft()
	if number == 0 {
		return nil, draft
	}
	return &number, draft
}

func splitRepository(repository string) (string, string) {
	owner, name, found := strings.Cut(repository, repositorySeparatorConstant)
	if !found {
		return repository, ""
	}
	return owner, name
}
