package lyceum

import (
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/opcua"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/app/config"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy is the flattened editor and export policy derived from Config.
	Policy = ports.Policy
	// OPCUAConfig holds the instrument connection details.
	OPCUAConfig = opcua.Config
	// EditorConfig selects apply-to-all and the insert reading.
	EditorConfig = config.EditorConfig
	// ExportConfig controls validation and queueing of exports.
	ExportConfig = config.ExportConfig
	// LedgerConfig selects the export ledger backend.
	LedgerConfig = config.LedgerConfig
	// FamilyConfig controls .lyc handling.
	FamilyConfig = config.FamilyConfig
	LogConfig    = config.LogConfig
	// MetricsConfig names the optional metrics textfile.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
