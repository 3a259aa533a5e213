package collect

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/artifacts"
	"github.com/temirov/pipegate/internal/utils/flags"
)

const (
	metadataCommandUseConstant              = "metadata"
	metadataCommandShortDescriptionConstant = "Resolve pipeline metadata for the current run"
	metadataCommandLongDescriptionConstant  = "metadata layers the global configuration, the local override, package.json and the release channels, evaluates the skip and permission rules for the current commit and prints the resulting record as JSON."
	unexpectedArgumentsMessageConstant      = "metadata does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "metadata collection failed: %w"
	outputEncodingErrorTemplateConstant     = "failed to print metadata: %w"
	invalidCodecTemplateConstant            = "invalid artifact codec %q"
	jsonIndentConstant                      = "  "

	globalConfigURIFlagNameConstant        = "global-config-uri"
	globalConfigURIFlagDescriptionConstant = "URI of the global pipeline configuration (https:// or file://)"
	fastSkipsFlagNameConstant              = "fast-skips"
	fastSkipsFlagDescriptionConstant       = "Stop after the skip decisions when the commit skips CI"
	uploadArtifactFlagNameConstant         = "upload-artifact"
	uploadArtifactFlagDescriptionConstant  = "Store the record as a metadata artifact"
	forceWarningsFlagNameConstant          = "force-warnings"
	forceWarningsFlagDescriptionConstant   = "Warn when the pipeline runs in debug mode"
	checkoutFlagNameConstant               = "checkout"
	checkoutFlagDescriptionConstant        = "Clone the repository before collecting"
	artifactCodecFlagNameConstant          = "artifact-codec"
	artifactCodecFlagDescriptionConstant   = "Encoding of the metadata artifact"
	dotenvFlagNameConstant                 = "dotenv"
	dotenvFlagDescriptionConstant          = "Dotenv file supplying GITHUB_* variables for local runs"
)

var artifactCodecChoices = []string{artifacts.CodecNameJSON, artifacts.CodecNameCBOR}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current collector configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the metadata command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Resolver              CollectorResolver
}

type metadataFlagValues struct {
	fastSkips      bool
	uploadArtifact bool
	forceWarnings  bool
	checkout       bool
}

// Build constructs the metadata command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	defaults := builder.resolveConfiguration()
	flagValues := &metadataFlagValues{}

	command := &cobra.Command{
		Use:   metadataCommandUseConstant,
		Short: metadataCommandShortDescriptionConstant,
		Long:  metadataCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, flagValues)
		},
	}

	AddSharedFlags(command)
	command.Flags().String(artifactCodecFlagNameConstant, "", flags.FormatChoiceUsage(defaults.ArtifactCodec, artifactCodecChoices, artifactCodecFlagDescriptionConstant))
	flags.AddToggleFlag(command.Flags(), &flagValues.fastSkips, fastSkipsFlagNameConstant, "", defaults.EnableFastSkips, fastSkipsFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.uploadArtifact, uploadArtifactFlagNameConstant, "", defaults.UploadArtifact, uploadArtifactFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.forceWarnings, forceWarningsFlagNameConstant, "", defaults.ForceWarnings, forceWarningsFlagDescriptionConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.checkout, checkoutFlagNameConstant, "", defaults.Checkout, checkoutFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, flagValues *metadataFlagValues) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	configuration, configurationError := builder.applyFlags(command, flagValues)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()
	collector, resolveError := builder.resolveCollector(logger, configuration)
	if resolveError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, resolveError)
	}

	record, collectError := collector.Collect(command.Context(), configuration.Options())
	if collectError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, collectError)
	}

	encoder := json.NewEncoder(command.OutOrStdout())
	encoder.SetIndent("", jsonIndentConstant)
	if encodeError := encoder.Encode(record); encodeError != nil {
		return fmt.Errorf(outputEncodingErrorTemplateConstant, encodeError)
	}
	return nil
}

// ApplyFlags overlays the flags shared by every command that collects metadata. Toggle flags only override the
// configuration when set explicitly.
func ApplyFlags(command *cobra.Command, configuration Configuration) (Configuration, error) {
	if command.Flags().Lookup(globalConfigURIFlagNameConstant) != nil {
		uri, uriError := command.Flags().GetString(globalConfigURIFlagNameConstant)
		if uriError != nil {
			return Configuration{}, uriError
		}
		if trimmed := strings.TrimSpace(uri); len(trimmed) > 0 {
			configuration.GlobalConfigURI = trimmed
		}
	}
	if command.Flags().Lookup(dotenvFlagNameConstant) != nil {
		dotenvPath, dotenvError := command.Flags().GetString(dotenvFlagNameConstant)
		if dotenvError != nil {
			return Configuration{}, dotenvError
		}
		if trimmed := strings.TrimSpace(dotenvPath); len(trimmed) > 0 {
			configuration.DotenvPath = trimmed
		}
	}
	return configuration, nil
}

// AddSharedFlags registers the flags ApplyFlags reads.
func AddSharedFlags(command *cobra.Command) {
	command.Flags().String(globalConfigURIFlagNameConstant, "", globalConfigURIFlagDescriptionConstant)
	command.Flags().String(dotenvFlagNameConstant, "", dotenvFlagDescriptionConstant)
}

func (builder *CommandBuilder) applyFlags(command *cobra.Command, flagValues *metadataFlagValues) (Configuration, error) {
	configuration, sharedError := ApplyFlags(command, builder.resolveConfiguration())
	if sharedError != nil {
		return Configuration{}, sharedError
	}

	codec, codecError := command.Flags().GetString(artifactCodecFlagNameConstant)
	if codecError != nil {
		return Configuration{}, codecError
	}
	if trimmed := strings.TrimSpace(codec); len(trimmed) > 0 {
		if !flags.ValidateChoice(trimmed, artifactCodecChoices) {
			return Configuration{}, fmt.Errorf(invalidCodecTemplateConstant, trimmed)
		}
		configuration.ArtifactCodec = trimmed
	}

	for _, toggle := range []struct {
		name   string
		value  bool
		target *bool
	}{
		{name: fastSkipsFlagNameConstant, value: flagValues.fastSkips, target: &configuration.EnableFastSkips},
		{name: uploadArtifactFlagNameConstant, value: flagValues.uploadArtifact, target: &configuration.UploadArtifact},
		{name: forceWarningsFlagNameConstant, value: flagValues.forceWarnings, target: &configuration.ForceWarnings},
		{name: checkoutFlagNameConstant, value: flagValues.checkout, target: &configuration.Checkout},
	} {
		if command.Flags().Changed(toggle.name) {
			*toggle.target = toggle.value
		}
	}
	return configuration, nil
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

func (builder *CommandBuilder) resolveCollector(logger *zap.Logger, configuration Configuration) (*Collector, error) {
	if builder.Resolver != nil {
		return builder.Resolver.Resolve(logger, configuration)
	}
	defaultResolver := &DefaultCollectorResolver{}
	return defaultResolver.Resolve(logger, configuration)
}
