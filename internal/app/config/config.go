package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/opcua"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

type Config struct {
	Editor  EditorConfig  `yaml:"editor"`
	Export  ExportConfig  `yaml:"export"`
	OPCUA   opcua.Config  `yaml:"opcua"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Family  FamilyConfig  `yaml:"family"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type EditorConfig struct {
	ApplyToAll    bool   `yaml:"apply_to_all"`
	InsertReading string `yaml:"insert_reading"`
}

type ExportConfig struct {
	// ElideLeadingZero is a pointer so an explicit false survives defaults.
	ElideLeadingZero *bool  `yaml:"elide_leading_zero"`
	OnGraphMissing   string `yaml:"on_graph_missing"`
	MaxQueueLen      int    `yaml:"max_queue_len"`
	MaxBatchSize     int    `yaml:"max_batch_size"`
}

type LedgerConfig struct {
	Driver string `yaml:"driver"`

	// postgres
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`

	// influx; Table doubles as the measurement name.
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type FamilyConfig struct {
	// XYChannels is the channel count given to XY results snapshotted from
	// a family file when no instrument is attached.
	XYChannels int  `yaml:"xy_channels"`
	KeepBackup bool `yaml:"keep_backup"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// MetricsConfig names a node_exporter textfile the CLI writes after each
// run. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns a configuration with every default applied and no
// instrument endpoint.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Editor.InsertReading == "" {
		c.Editor.InsertReading = "direct"
	}
	if c.Export.ElideLeadingZero == nil {
		on := true
		c.Export.ElideLeadingZero = &on
	}
	if c.Export.OnGraphMissing == "" {
		c.Export.OnGraphMissing = "skip"
	}
	if c.Export.MaxQueueLen == 0 {
		c.Export.MaxQueueLen = 1_024
	}
	if c.Export.MaxBatchSize == 0 {
		c.Export.MaxBatchSize = 64
	}
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = "none"
	}
	if c.Ledger.Table == "" {
		c.Ledger.Table = "limit_exports"
	}
	if c.Family.XYChannels == 0 {
		c.Family.XYChannels = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.OPCUA.ApplyDefaults()
}

func (c *Config) validate() error {
	switch c.Editor.InsertReading {
	case "direct", "inverted":
	default:
		return fmt.Errorf("editor.insert_reading must be direct or inverted, got %q", c.Editor.InsertReading)
	}
	switch c.Export.OnGraphMissing {
	case "skip", "abort":
	default:
		return fmt.Errorf("export.on_graph_missing must be skip or abort, got %q", c.Export.OnGraphMissing)
	}
	if c.Export.MaxQueueLen < 1 || c.Export.MaxBatchSize < 1 {
		return errors.New("export.max_queue_len and export.max_batch_size must be positive")
	}
	switch c.Ledger.Driver {
	case "none":
	case "postgres":
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger.dsn is required for driver postgres")
		}
	case "influx":
		if c.Ledger.URL == "" || c.Ledger.Bucket == "" {
			return fmt.Errorf("ledger.url and ledger.bucket are required for driver influx")
		}
	default:
		return fmt.Errorf("ledger.driver must be none, postgres or influx, got %q", c.Ledger.Driver)
	}
	if c.Family.XYChannels < 1 {
		return fmt.Errorf("family.xy_channels must be at least 1")
	}
	if c.Metrics.Textfile != "" && !strings.HasSuffix(c.Metrics.Textfile, ".prom") {
		return fmt.Errorf("metrics.textfile %q must end in .prom", c.Metrics.Textfile)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// ValidateInstrument checks the OPC UA section. It is only required by
// commands that talk to the instrument.
func (c *Config) ValidateInstrument() error {
	if err := c.OPCUA.Validate(); err != nil {
		return fmt.Errorf("opcua config: %w", err)
	}
	return nil
}

func (c *Config) Policy() ports.Policy {
	return ports.Policy{
		MaxQueueLen:      c.Export.MaxQueueLen,
		MaxBatchSize:     c.Export.MaxBatchSize,
		ApplyToAll:       c.Editor.ApplyToAll,
		ElideLeadingZero: c.Export.ElideLeadingZero == nil || *c.Export.ElideLeadingZero,
		OnGraphMissing:   c.Export.OnGraphMissing,
		InsertReading:    c.Editor.InsertReading,
	}
}
