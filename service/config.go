package service

import (
	"os"

	"github.com/BurntSushi/toml"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Config of a Service, stored as TOML.
type Config struct {
	// DataDir holds the archive.
	DataDir string `toml:"data_dir"`
	// Backend is one of BackendFile, BackendBolt or BackendLevelDB.
	Backend string `toml:"backend"`
	// DefaultChain is used when no chain name is given.
	DefaultChain string `toml:"default_chain"`
	// Debug is the onet log level.
	Debug int `toml:"debug"`
	// ClockWindow is the number of blocks the block clock averages over.
	ClockWindow int `toml:"clock_window"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:      DEFAULT_DATADIR,
		Backend:      DEFAULT_BACKEND,
		DefaultChain: DEFAULT_CHAIN,
		ClockWindow:  DEFAULT_CLOCK_WINDOW,
	}
}

// LoadConfig reads path on top of the defaults and checks the result. A
// missing file is not an error.
func LoadConfig(path string) (Config, error) {
	config, err := ReadConfig(path)
	if err != nil {
		return Config{}, err
	}
	return config, config.Check()
}

// ReadConfig is LoadConfig without the check, for callers that override
// fields before validating.
func ReadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Lvl3("No configuration at", path, "- using defaults")
		return config, nil
	}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, xerrors.Errorf("reading config %s: %w", path, err)
	}
	return config, nil
}

// Check validates the configuration.
func (c Config) Check() error {
	switch c.Backend {
	case BackendFile, BackendBolt, BackendLevelDB:
	default:
		return xerrors.Errorf("backend %q: %w", c.Backend, ErrUnknownBackend)
	}
	if c.DataDir == "" {
		return xerrors.New("data_dir is empty")
	}
	if c.ClockWindow < 2 {
		return xerrors.Errorf("clock_window must be at least 2, got %d", c.ClockWindow)
	}
	return nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("creating config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return xerrors.Errorf("writing config: %w", err)
	}
	return nil
}
