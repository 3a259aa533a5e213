package stages

// Configuration holds the settings of the stage commands.
type Configuration struct {
	InstallDependencies bool `mapstructure:"install_dependencies"`
}

// DefaultConfiguration mirrors the embedded defaults of the CLI.
func DefaultConfiguration() Configuration {
	return Configuration{InstallDependencies: true}
}
