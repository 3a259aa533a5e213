package npm

import (
	"context"
	"strings"

	"github.com/temirov/pipegate/internal/execshell"
)

const (
	distTagSubcommandConstant    = "dist-tag"
	listSubcommandConstant       = "ls"
	removeSubcommandConstant     = "rm"
	cleanInstallSubcommand       = "ci"
	runSubcommandConstant        = "run"
	scriptArgumentsSeparator     = "--"
	distTagLineSeparatorConstant = ":"
	outputLineSeparatorConstant  = "\n"
)

// Executor runs npm commands.
type Executor interface {
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client wraps the npm CLI for one project directory.
type Client struct {
	executor         Executor
	workingDirectory string
}

// NewClient constructs a Client running npm in workingDirectory.
func NewClient(executor Executor, workingDirectory string) *Client {
	return &Client{executor: executor, workingDirectory: workingDirectory}
}

// ListDistTags returns the dist-tag names published for packageName, in registry order.
func (client *Client) ListDistTags(executionContext context.Context, packageName string) ([]string, error) {
	result, executionError := client.run(executionContext, distTagSubcommandConstant, listSubcommandConstant, packageName)
	if executionError != nil {
		return nil, executionError
	}
	return ParseDistTagListing(result.StandardOutput), nil
}

// DeleteDistTag removes tag from packageName.
func (client *Client) DeleteDistTag(executionContext context.Context, packageName string, tag string) error {
	_, executionError := client.run(executionContext, distTagSubcommandConstant, removeSubcommandConstant, packageName, tag)
	return executionError
}

// CleanInstall runs `npm ci`.
func (client *Client) CleanInstall(executionContext context.Context) error {
	_, executionError := client.run(executionContext, cleanInstallSubcommand)
	return executionError
}

// RunScript runs a package.json script, forwarding arguments after "--".
func (client *Client) RunScript(executionContext context.Context, script string, arguments ...string) error {
	commandArguments := []string{runSubcommandConstant, script}
	if len(arguments) > 0 {
		commandArguments = append(append(commandArguments, scriptArgumentsSeparator), arguments...)
	}
	_, executionError := client.run(executionContext, commandArguments...)
	return executionError
}

func (client *Client) run(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return client.executor.ExecuteNpm(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: client.workingDirectory,
	})
}

// ParseDistTagListing extracts tag names from `npm dist-tag ls` output, one "tag: version" pair per line.
func ParseDistTagListing(output string) []string {
	tags := []string{}
	for _, line := range strings.Split(output, outputLineSeparatorConstant) {
		tag, _, _ := strings.Cut(line, distTagLineSeparatorConstant)
		tag = strings.TrimSpace(tag)
		if len(tag) == 0 {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
