package stages

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/utils/flags"
)

const (
	stageCommandUseConstant              = "stage <name>"
	stageCommandShortDescriptionConstant = "Run a pipeline stage"
	stageCommandLongDescriptionConstant  = "stage collects the pipeline metadata with fast skips and runs the npm scripts of the named stage unless the commit skips CI or the package does not support the stage."
	commandExecutionErrorTemplate        = "stage %s failed: %w"
	installFlagNameConstant              = "install"
	installFlagDescriptionConstant       = "Run `npm ci` before the stage scripts"
	forceWarningsFlagNameConstant        = "force-warnings"
	forceWarningsFlagDescriptionConstant = "Warn when the pipeline runs in debug mode"
	uploadArtifactFlagNameConstant       = "upload-artifact"
	uploadArtifactFlagDescription        = "Store the collected metadata as an artifact"
	skippedOutputTemplate                = "skipped %s: %s\n"
	completedOutputTemplate              = "completed %s: %s\n"
	stageListSeparatorConstant           = ", "
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current stage configuration.
type ConfigurationProvider func() Configuration

// CollectConfigurationProvider returns the metadata collector configuration.
type CollectConfigurationProvider func() collect.Configuration

// CommandBuilder assembles the stage command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	CollectConfigurationProvider CollectConfigurationProvider
	Resolver                     ServiceResolver
}

type stageFlagValues struct {
	install        bool
	forceWarnings  bool
	uploadArtifact bool
}

// Build constructs the stage command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	defaults := builder.resolveConfiguration()
	collectDefaults := builder.resolveCollectConfiguration()
	flagValues := &stageFlagValues{}

	command := &cobra.Command{
		Use:       stageCommandUseConstant,
		Short:     stageCommandShortDescriptionConstant,
		Long:      stageCommandLongDescriptionConstant + "\n\nStages: " + strings.Join(Names(), stageListSeparatorConstant),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: Names(),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments[0], flagValues)
		},
	}

	collect.AddSharedFlags(command)
	flags.AddToggleFlag(command.Flags(), &flagValues.install, installFlagNameConstant, "", defaults.InstallDependencies, installFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.forceWarnings, forceWarningsFlagNameConstant, "", collectDefaults.ForceWarnings, forceWarningsFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.uploadArtifact, uploadArtifactFlagNameConstant, "", collectDefaults.UploadArtifact, uploadArtifactFlagDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, name string, flagValues *stageFlagValues) error {
	collectConfiguration, collectFlagsError := collect.ApplyFlags(command, builder.resolveCollectConfiguration())
	if collectFlagsError != nil {
		return collectFlagsError
	}
	configuration := builder.resolveConfiguration()

	options := Options{
		InstallDependencies: configuration.InstallDependencies,
		ForceWarnings:       collectConfiguration.ForceWarnings,
		UploadArtifact:      collectConfiguration.UploadArtifact,
	}
	if command.Flags().Changed(installFlagNameConstant) {
		options.InstallDependencies = flagValues.install
	}
	if command.Flags().Changed(forceWarningsFlagNameConstant) {
		options.ForceWarnings = flagValues.forceWarnings
	}
	if command.Flags().Changed(uploadArtifactFlagNameConstant) {
		options.UploadArtifact = flagValues.uploadArtifact
	}
	collectConfiguration.UploadArtifact = options.UploadArtifact

	logger := builder.resolveLogger()
	service, resolveError := builder.resolveService(logger, collectConfiguration)
	if resolveError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, name, resolveError)
	}

	result, runError := service.Run(command.Context(), name, options)
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, name, runError)
	}
	if result.Skipped {
		fmt.Fprintf(command.OutOrStdout(), skippedOutputTemplate, result.Stage, result.SkipReason)
		return nil
	}
	fmt.Fprintf(command.OutOrStdout(), completedOutputTemplate, result.Stage, strings.Join(result.Scripts, stageListSeparatorConstant))
	return nil
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

func (builder *CommandBuilder) resolveService(logger *zap.Logger, collectConfiguration collect.Configuration) (*Service, error) {
	if builder.Resolver != nil {
		return builder.Resolver.Resolve(logger, collectConfiguration)
	}
	defaultResolver := &DefaultServiceResolver{}
	return defaultResolver.Resolve(logger, collectConfiguration)
}
