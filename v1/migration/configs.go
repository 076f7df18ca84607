package migration

const (
	// DefaultHistoryCollection is the reserved collection holding applied migrations
	DefaultHistoryCollection = "_vecschema_migrations"

	// DefaultDir is where migration definition files are read from
	DefaultDir = "migrations"
)

// Config defines the migration manager settings.
type Config struct {
	// HistoryCollection is the reserved collection that stores one record per applied migration
	HistoryCollection string `yaml:"history_collection" env:"VECSCHEMA_MIGRATION_HISTORY_COLLECTION"`

	// Dir holds the *.yaml migration definitions used by the CLI
	Dir string `yaml:"dir" env:"VECSCHEMA_MIGRATION_DIR"`

	// ValidateContracts replays contract interactions against the store before applying.
	// When false every contract is accepted.
	ValidateContracts bool `yaml:"validate_contracts" env:"VECSCHEMA_MIGRATION_VALIDATE_CONTRACTS"`

	// ProbeDimension is the dimension of scratch collections created by contract probes
	ProbeDimension int `yaml:"probe_dimension" env:"VECSCHEMA_MIGRATION_PROBE_DIMENSION"`

	// ContractDir, when set, archives rendered Pact documents below this directory
	ContractDir string `yaml:"contract_dir" env:"VECSCHEMA_MIGRATION_CONTRACT_DIR"`

	// InitializeOnStart creates the history collection when the fx application starts
	InitializeOnStart bool `yaml:"initialize_on_start" env:"VECSCHEMA_MIGRATION_INITIALIZE_ON_START"`
}

// DefaultConfig returns the settings used when no configuration file is given.
func DefaultConfig() Config {
	return Config{
		HistoryCollection: DefaultHistoryCollection,
		Dir:               DefaultDir,
		ValidateContracts: true,
		ProbeDimension:    DefaultProbeDimension,
		InitializeOnStart: true,
	}
}

// WithHistoryCollection sets the reserved history collection.
func (c Config) WithHistoryCollection(name string) Config {
	c.HistoryCollection = name
	return c
}

// WithDir sets the directory of migration definitions.
func (c Config) WithDir(dir string) Config {
	c.Dir = dir
	return c
}

// WithContractDir archives Pact documents below dir.
func (c Config) WithContractDir(dir string) Config {
	c.ContractDir = dir
	return c
}

// WithoutContractValidation accepts every contract without probing the store.
func (c Config) WithoutContractValidation() Config {
	c.ValidateContracts = false
	return c
}
