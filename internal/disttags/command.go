package disttags

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/utils/flags"
)

const (
	cleanupCommandUseConstant              = "cleanup-npm"
	cleanupCommandShortDescriptionConstant = "Prune npm dist-tags of deleted release branches"
	cleanupCommandLongDescriptionConstant  = "cleanup-npm collects the pipeline metadata, matches the release branch rules against the remote branches and deletes every published dist-tag that is neither a pinned channel, ignored, nor named after a live release branch."
	unexpectedArgumentsMessageConstant     = "cleanup-npm does not accept positional arguments"
	commandExecutionErrorTemplateConstant  = "cleanup-npm failed: %w"

	dryRunFlagNameConstant             = "dry-run"
	dryRunFlagDescriptionConstant      = "Report candidates without deleting them"
	concurrencyFlagNameConstant        = "concurrency"
	concurrencyFlagDescriptionConstant = "Maximum number of concurrent dist-tag deletions"
	remoteFlagNameConstant             = "remote"
	remoteFlagDescriptionConstant      = "Git remote whose branches protect dist-tags"
	tokenSourceFlagNameConstant        = "npm-token-source"
	tokenSourceFlagDescriptionConstant = "npm token source (env:NAME or file:/path)"
	skippedOutputConstant              = "skipped: commit requests skipping CI\n"
	candidateOutputTemplateConstant    = "would prune %s@%s\n"
	deletedOutputTemplateConstant      = "pruned %s@%s\n"
	nothingToPruneOutputTemplate       = "nothing to prune for %s\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current cleanup configuration.
type ConfigurationProvider func() Configuration

// CollectConfigurationProvider returns the metadata collector configuration.
type CollectConfigurationProvider func() collect.Configuration

// CommandBuilder assembles the cleanup-npm command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	CollectConfigurationProvider CollectConfigurationProvider
	Resolver                     ServiceResolver
}

// Build constructs the cleanup-npm command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	defaults := builder.resolveConfiguration()
	dryRun := defaults.DryRun

	command := &cobra.Command{
		Use:   cleanupCommandUseConstant,
		Short: cleanupCommandShortDescriptionConstant,
		Long:  cleanupCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, dryRun)
		},
	}

	collect.AddSharedFlags(command)
	flags.AddToggleFlag(command.Flags(), &dryRun, dryRunFlagNameConstant, "", defaults.DryRun, dryRunFlagDescriptionConstant)
	command.Flags().Int(concurrencyFlagNameConstant, 0, concurrencyFlagDescriptionConstant)
	command.Flags().String(remoteFlagNameConstant, "", remoteFlagDescriptionConstant)
	command.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, dryRun bool) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	collectConfiguration, collectFlagsError := collect.ApplyFlags(command, builder.resolveCollectConfiguration())
	if collectFlagsError != nil {
		return collectFlagsError
	}
	configuration, flagsError := builder.applyFlags(command, dryRun)
	if flagsError != nil {
		return flagsError
	}

	logger := builder.resolveLogger()
	service, resolveError := builder.resolveService(logger, collectConfiguration, configuration)
	if resolveError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, resolveError)
	}

	options := configuration.Sanitize().Options()
	options.ForceWarnings = collectConfiguration.ForceWarnings
	report, cleanupError := service.Cleanup(command.Context(), options)
	printReport(command.OutOrStdout(), report)
	if cleanupError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, cleanupError)
	}
	return nil
}

func (builder *CommandBuilder) applyFlags(command *cobra.Command, dryRun bool) (Configuration, error) {
	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(dryRunFlagNameConstant) {
		configuration.DryRun = dryRun
	}
	if command.Flags().Changed(concurrencyFlagNameConstant) {
		concurrency, concurrencyError := command.Flags().GetInt(concurrencyFlagNameConstant)
		if concurrencyError != nil {
			return Configuration{}, concurrencyError
		}
		configuration.Concurrency = concurrency
	}
	for _, stringFlag := range []struct {
		name   string
		target *string
	}{
		{name: remoteFlagNameConstant, target: &configuration.Remote},
		{name: tokenSourceFlagNameConstant, target: &configuration.NpmTokenSource},
	} {
		value, valueError := command.Flags().GetString(stringFlag.name)
		if valueError != nil {
			return Configuration{}, valueError
		}
		if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
			*stringFlag.target = trimmed
		}
	}
	return configuration, nil
}

func printReport(output io.Writer, report Report) {
	switch {
	case report.Skipped:
		fmt.Fprint(output, skippedOutputConstant)
	case len(report.PackageName) == 0:
	case len(report.Plan.Candidates) == 0:
		fmt.Fprintf(output, nothingToPruneOutputTemplate, report.PackageName)
	case report.DryRun:
		for _, tag := range report.Plan.Candidates {
			fmt.Fprintf(output, candidateOutputTemplateConstant, report.PackageName, tag)
		}
	default:
		for _, tag := range report.Deleted {
			fmt.Fprintf(output, deletedOutputTemplateConstant, report.PackageName, tag)
		}
	}
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveCollectConfiguration() collect.Configuration {
	if builder.CollectConfigurationProvider == nil {
		return collect.DefaultConfiguration()
	}
	return builder.CollectConfigurationProvider()
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger, collectConfiguration collect.Configuration, configuration Configuration) (*Service, error) {
	if builder.Resolver != nil {
		return builder.Resolver.Resolve(logger, collectConfiguration, configuration)
	}
	defaultResolver := &DefaultServiceResolver{}
	return defaultResolver.Resolve(logger, collectConfiguration, configuration)
}
