package metadata

const (
	// ScriptDeploy marks a deployable package.
	ScriptDeploy = "deploy"
	// ScriptBuildDocs builds the documentation.
	ScriptBuildDocs = "build-docs"
	// ScriptBuildExternals builds the externals bundle consumed by ScriptTestIntegrationExternals.
	ScriptBuildExternals = "build-externals"
	// ScriptTestIntegrationNode runs the Node integration tests.
	ScriptTestIntegrationNode = "test-integration-node"
	// ScriptTestIntegrationExternals tests the bundle produced by ScriptBuildExternals.
	ScriptTestIntegrationExternals = "test-integration-externals"
	// ScriptTestIntegrationClient runs the browser client integration tests.
	ScriptTestIntegrationClient = "test-integration-client"
	// ScriptTestIntegrationWebpack runs the webpack integration tests.
	ScriptTestIntegrationWebpack = "test-integration-webpack"

	scriptsFieldConstant            = "scripts"
	externalsPairingMessageConstant = "expected both `" + ScriptBuildExternals + "` and `" + ScriptTestIntegrationExternals + "` scripts to be defined, or neither"
)

// resolveCapabilities derives the capability flags from the manifest. An absent manifest yields no capabilities.
func resolveCapabilities(layers ConfigurationLayers) (Capabilities, error) {
	manifest, present := layers.Manifest.Get()
	if !present {
		return Capabilities{}, nil
	}

	capabilities := Capabilities{
		HasPrivate:              manifest.IsPrivate(),
		HasBin:                  manifest.DeclaresBin(),
		HasDeploy:               manifest.HasScript(ScriptDeploy),
		HasDocs:                 manifest.HasScript(ScriptBuildDocs),
		HasExternals:            manifest.HasScript(ScriptBuildExternals),
		HasIntegrationNode:      manifest.HasScript(ScriptTestIntegrationNode),
		HasIntegrationExternals: manifest.HasScript(ScriptTestIntegrationExternals),
		HasIntegrationClient:    manifest.HasScript(ScriptTestIntegrationClient),
		HasIntegrationWebpack:   manifest.HasScript(ScriptTestIntegrationWebpack),
	}

	if capabilities.HasExternals != capabilities.HasIntegrationExternals {
		return Capabilities{}, &ConfigurationError{Source: ManifestSourceConstant, Field: scriptsFieldConstant, Message: externalsPairingMessageConstant}
	}
	return capabilities, nil
}
