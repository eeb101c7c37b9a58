package config

// EnvironmentTagKey is the tag key that identifies which environment a
// resource belongs to. It is always present in the merged tag set.
const EnvironmentTagKey = "environment"

// wellKnownEnvironments is the fixed set of environment names a strict plan
// may declare: the three deployment targets and their disaster-recovery
// variants.
var wellKnownEnvironments = map[string]struct{}{
	"Development":   {},
	"Staging":       {},
	"Production":    {},
	"DevelopmentDR": {},
	"StagingDR":     {},
	"ProductionDR":  {},
}

// IsWellKnownEnvironment reports whether name is one of the fixed set of
// environment names a strict plan accepts.
func IsWellKnownEnvironment(name string) bool {
	_, ok := wellKnownEnvironments[name]
	return ok
}

// ConfigError reports an environment lookup against a name the plan does not
// declare.
type ConfigError struct {
	Name string
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return "unknown environment: " + e.Name
}

// Environment returns the immutable record for the named environment, or a
// *ConfigError when the plan declares no such environment. It has no side
// effects.
func (p *Plan) Environment(name string) (*Environment, error) {
	env, ok := p.Environments[name]
	if !ok {
		return nil, &ConfigError{Name: name}
	}
	return env, nil
}

// EnvironmentTags returns the shared project tags overlaid with the named
// environment's own tags. Environment-specific keys win on collision; the
// override is silent. The result always carries EnvironmentTagKey, injected
// from the record name when the plan does not set it explicitly.
func (p *Plan) EnvironmentTags(name string) (map[string]string, error) {
	env, err := p.Environment(name)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(p.Project.Tags)+len(env.Tags)+1)
	for k, v := range p.Project.Tags {
		merged[k] = v
	}
	for k, v := range env.Tags {
		merged[k] = v
	}
	if _, ok := merged[EnvironmentTagKey]; !ok {
		merged[EnvironmentTagKey] = env.Name
	}
	return merged, nil
}
