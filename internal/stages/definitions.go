package stages

import (
	"fmt"
	"slices"

	"github.com/temirov/pipegate/internal/metadata"
)

// Stage names accepted by `pipegate stage`.
const (
	StageLint                     = "lint"
	StageTestUnitThenBuild        = "test-unit-then-build"
	StageTestIntegrationNode      = "test-integration-node"
	StageTestIntegrationExternals = "test-integration-externals"
	StageTestIntegrationClient    = "test-integration-client"
	StageTestIntegrationWebpack   = "test-integration-webpack"
	StageDeploy                   = "deploy"
)

const (
	scriptLint      = "lint"
	scriptTestUnit  = "test-unit"
	scriptFormat    = "format"
	scriptBuildDist = "build-dist"

	unknownStageTemplate           = "unknown stage %q"
	missingCapabilityReason        = "package.json does not define the `%s` script"
	deploymentNotPermittedTemplate = "deployment is not permitted: %s"
	skipCdReason                   = "commit requests skipping CD"
	releaseNotPermittedReason      = "release is not permitted for this run"
)

// Step is one npm script of a stage. A step with a Condition runs only when the condition holds.
type Step struct {
	Script    string
	Condition func(record metadata.PipelineMetadata) bool
}

// Definition describes a stage. Gate returns a non-empty reason when the stage must be skipped.
type Definition struct {
	Name  string
	Gate  func(record metadata.PipelineMetadata) string
	Steps []Step
}

// ScriptsFor lists the scripts the stage runs for record, in order.
func (definition Definition) ScriptsFor(record metadata.PipelineMetadata) []string {
	scripts := make([]string, 0, len(definition.Steps))
	for _, step := range definition.Steps {
		if step.Condition != nil && !step.Condition(record) {
			continue
		}
		scripts = append(scripts, step.Script)
	}
	return scripts
}

// SkipReason returns why the stage must not run for record, or "" when it may run.
func (definition Definition) SkipReason(record metadata.PipelineMetadata) string {
	if definition.Gate == nil {
		return ""
	}
	return definition.Gate(record)
}

var definitions = []Definition{
	{Name: StageLint, Steps: []Step{{Script: scriptLint}}},
	{
		Name: StageTestUnitThenBuild,
		Steps: []Step{
			{Script: scriptTestUnit},
			{Script: scriptFormat},
			{Script: scriptBuildDist},
			{Script: metadata.ScriptBuildDocs, Condition: func(record metadata.PipelineMetadata) bool { return record.HasDocs }},
			{Script: scriptFormat},
		},
	},
	integrationDefinition(StageTestIntegrationNode, metadata.ScriptTestIntegrationNode, func(record metadata.PipelineMetadata) bool { return record.HasIntegrationNode }),
	integrationDefinition(StageTestIntegrationExternals, metadata.ScriptTestIntegrationExternals, func(record metadata.PipelineMetadata) bool { return record.HasIntegrationExternals }),
	integrationDefinition(StageTestIntegrationClient, metadata.ScriptTestIntegrationClient, func(record metadata.PipelineMetadata) bool { return record.HasIntegrationClient }),
	integrationDefinition(StageTestIntegrationWebpack, metadata.ScriptTestIntegrationWebpack, func(record metadata.PipelineMetadata) bool { return record.HasIntegrationWebpack }),
	{Name: StageDeploy, Gate: deployGate, Steps: []Step{{Script: metadata.ScriptDeploy}}},
}

func integrationDefinition(name string, script string, capability func(record metadata.PipelineMetadata) bool) Definition {
	return Definition{
		Name: name,
		Gate: func(record metadata.PipelineMetadata) string {
			if !capability(record) {
				return fmt.Sprintf(missingCapabilityReason, script)
			}
			return ""
		},
		Steps: []Step{{Script: script}},
	}
}

func deployGate(record metadata.PipelineMetadata) string {
	switch {
	case record.ShouldSkipCd:
		return skipCdReason
	case !record.CanRelease:
		return fmt.Sprintf(deploymentNotPermittedTemplate, releaseNotPermittedReason)
	case !record.HasDeploy:
		return fmt.Sprintf(missingCapabilityReason, metadata.ScriptDeploy)
	}
	return ""
}

// Names lists every stage name in declaration order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for _, definition := range definitions {
		names = append(names, definition.Name)
	}
	return names
}

// Lookup returns the definition of the named stage.
func Lookup(name string) (Definition, error) {
	index := slices.IndexFunc(definitions, func(definition Definition) bool { return definition.Name == name })
	if index < 0 {
		return Definition{}, fmt.Errorf(unknownStageTemplate, name)
	}
	return definitions[index], nil
}
