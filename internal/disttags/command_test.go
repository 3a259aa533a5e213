package disttags_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/disttags"
)

type capturingServiceResolver struct {
	fixture              *serviceFixture
	collectConfiguration collect.Configuration
	configuration        disttags.Configuration
}

func (resolver *capturingServiceResolver) Resolve(logger *zap.Logger, collectConfiguration collect.Configuration, configuration disttags.Configuration) (*disttags.Service, error) {
	resolver.collectConfiguration = collectConfiguration
	resolver.configuration = configuration
	fixture := resolver.fixture
	return disttags.NewService(logger, disttags.Dependencies{
		Collector:   fixture.collector,
		TokenSource: fixture.tokenSource,
		Branches:    fixture.branches,
		Remote:      fixture.remote,
		Registry:    fixture.registry,
		Credentials: fixture.credentials,
	})
}

func TestCleanupCommand(testInstance *testing.T) {
	testCases := []struct {
		name           string
		arguments      []string
		expectedOutput string
		expectedDryRun bool
	}{
		{name: "prunes candidates", arguments: []string{"--remote", "upstream", "--concurrency", "3"}, expectedOutput: "pruned @acme/widgets@old-experiment\n"},
		{name: "dry run reports candidates", arguments: []string{"--dry-run", "--global-config-uri", "file:///etc/pipeline.json"}, expectedOutput: "would prune @acme/widgets@old-experiment\n", expectedDryRun: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolver := &capturingServiceResolver{fixture: newServiceFixture()}
			builder := disttags.CommandBuilder{Resolver: resolver}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			output := &bytes.Buffer{}
			command.SetOut(output)
			command.SetArgs(testCase.arguments)
			require.NoError(testInstance, command.Execute())

			require.Equal(testInstance, testCase.expectedOutput, output.String())
			require.Equal(testInstance, testCase.expectedDryRun, resolver.configuration.DryRun)
		})
	}
}

func TestCleanupCommandAppliesFlags(testInstance *testing.T) {
	resolver := &capturingServiceResolver{fixture: newServiceFixture()}
	builder := disttags.CommandBuilder{Resolver: resolver}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetOut(&bytes.Buffer{})
	command.SetArgs([]string{"--remote", "upstream", "--concurrency", "3", "--npm-token-source", "file:/run/secrets/npm", "--global-config-uri", "https://config.example.com"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, "upstream", resolver.configuration.Remote)
	require.Equal(testInstance, 3, resolver.configuration.Concurrency)
	require.Equal(testInstance, "file:/run/secrets/npm", resolver.configuration.NpmTokenSource)
	require.Equal(testInstance, "https://config.example.com", resolver.collectConfiguration.GlobalConfigURI)
	require.Equal(testInstance, []string{"upstream"}, resolver.fixture.remote.pruned)
}

func TestCleanupCommandReportsSkip(testInstance *testing.T) {
	fixture := newServiceFixture()
	fixture.collector.record.ShouldSkipCi = true
	builder := disttags.CommandBuilder{Resolver: &capturingServiceResolver{fixture: fixture}}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, "skipped: commit requests skipping CI\n", output.String())
}

func TestConfigurationSanitize(testInstance *testing.T) {
	sanitized := disttags.Configuration{Concurrency: -1, Remote: "  ", NpmrcPath: "/tmp/npmrc"}.Sanitize()
	require.Equal(testInstance, "env:NPM_TOKEN", sanitized.NpmTokenSource)
	require.Equal(testInstance, "origin", sanitized.Remote)
	require.Equal(testInstance, 4, sanitized.Concurrency)
	require.Equal(testInstance, "/tmp/npmrc", sanitized.NpmrcPath)
	require.Equal(testInstance, "//registry.npmjs.org/", sanitized.Registry)
	require.Equal(testInstance, disttags.Options{Remote: "origin", Concurrency: 4}, sanitized.Options())
}
