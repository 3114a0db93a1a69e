package config

// SchemaVersion is the profile schema version.
const SchemaVersion = "1"

// Profile is a verification profile, usually fwverify.yaml next to the
// firmware project. It selects the image, the output, the built-in rules to
// run and adds project-specific expression rules.
type Profile struct {
	Version  string `yaml:"version"`
	Name     string `yaml:"name,omitempty"`
	Firmware string `yaml:"firmware,omitempty" env:"FWVERIFY_FIRMWARE"`
	// Format selects the report output: text or json.
	Format  string        `yaml:"format,omitempty" env:"FWVERIFY_FORMAT"`
	Log     LogConfig     `yaml:"log"`
	Builtin BuiltinConfig `yaml:"builtin"`
	Policy  PolicyConfig  `yaml:"policy"`
	Rules   []RuleConfig  `yaml:"rules,omitempty"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" env:"FWVERIFY_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"FWVERIFY_LOG_PRETTY"`
}

// BuiltinConfig selects the built-in KL25Z rules.
type BuiltinConfig struct {
	Enabled bool `yaml:"enabled" env:"FWVERIFY_BUILTIN"`
	// Skip lists built-in rule names that are not run.
	Skip []string `yaml:"skip,omitempty" env:"FWVERIFY_SKIP"`
}

// PolicyConfig tunes which symbols the model keeps.
type PolicyConfig struct {
	// DropUntyped also drops STT_NOTYPE symbols. Linker script symbols such as
	// __HeapLimit are untyped, so rules on them fail with this set.
	DropUntyped bool `yaml:"drop_untyped" env:"FWVERIFY_DROP_UNTYPED"`
}

// RuleConfig is an expression rule.
type RuleConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Expr        string `yaml:"expr"`
}
