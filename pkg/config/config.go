// Package config holds the configuration tree of the oracle process and the generic
// loader and exporters used to read and write it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/alerts"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/pool"
	"github.com/4chain-ag/go-feed-oracle/pkg/logging"
	"github.com/4chain-ag/go-feed-oracle/pkg/server"
)

// EnvPrefix prefixes every environment variable read by the oracle.
const EnvPrefix = "ORACLE"

const (
	NetworkMain = "main"
	NetworkTest = "test"
)

// OracleConfig identifies the single address the oracle publishes from.
type OracleConfig struct {
	// Address is the expected P2PKH address. When set it must match the private key.
	Address       string        `mapstructure:"address"`
	PrivateKeyWIF string        `mapstructure:"private_key_wif"`
	Network       string        `mapstructure:"network"`
	PostTimestamp bool          `mapstructure:"post_timestamp"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RetryJitter   time.Duration `mapstructure:"retry_jitter"`
}

// Mainnet reports whether the oracle publishes on the main network.
func (c OracleConfig) Mainnet() bool { return c.Network == NetworkMain }

// LedgerConfig configures the ARC broadcaster and the fee rate.
type LedgerConfig struct {
	ARCURL      string `mapstructure:"arc_url"`
	ARCAPIKey   string `mapstructure:"arc_api_key"`
	CallbackURL string `mapstructure:"callback_url"`
	FeePerKB    uint64 `mapstructure:"fee_per_kb"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Config is the configuration tree of the oracle process.
type Config struct {
	Server  server.Config  `mapstructure:"server"`
	Oracle  OracleConfig   `mapstructure:"oracle"`
	Pool    pool.Config    `mapstructure:"pool"`
	Ledger  LedgerConfig   `mapstructure:"ledger"`
	Storage StorageConfig  `mapstructure:"storage"`
	Alerts  alerts.Config  `mapstructure:"alerts"`
	Logger  logging.Config `mapstructure:"logger"`
}

// Defaults returns the configuration used for every value not set in a file or the environment.
func Defaults() Config {
	return Config{
		Server: server.DefaultConfig(),
		Oracle: OracleConfig{
			Network:     NetworkMain,
			RetryDelay:  oracle.DefaultRetryDelay,
			RetryJitter: oracle.DefaultRetryJitter,
		},
		Pool: pool.DefaultConfig(),
		Ledger: LedgerConfig{
			ARCURL:   "https://arc.taal.com",
			FeePerKB: ledger.DefaultFeePerKB,
		},
		Storage: StorageConfig{DSN: "file:oracle.db"},
		Alerts:  alerts.DefaultConfig(),
		Logger:  logging.DefaultConfig(),
	}
}

// Load reads the configuration from path (optional when empty), the environment and the defaults.
func Load(path string) (Config, error) {
	loader := NewLoader(Defaults, EnvPrefix)
	if path != "" {
		if err := loader.SetConfigFilePath(path); err != nil {
			return Config{}, err
		}
	}
	return loader.Load()
}

// Validate reports every invalid setting that prevents the oracle from starting.
func (c Config) Validate() error {
	var errs []error
	if c.Oracle.PrivateKeyWIF == "" {
		errs = append(errs, errors.New("oracle.private_key_wif is required"))
	}
	if c.Oracle.Network != NetworkMain && c.Oracle.Network != NetworkTest {
		errs = append(errs, fmt.Errorf("oracle.network must be %q or %q", NetworkMain, NetworkTest))
	}
	if c.Oracle.RetryDelay <= 0 {
		errs = append(errs, errors.New("oracle.retry_delay must be positive"))
	}
	if c.Oracle.RetryJitter < 0 {
		errs = append(errs, errors.New("oracle.retry_jitter must not be negative"))
	}
	if c.Pool.UnitCost == 0 {
		errs = append(errs, errors.New("pool.unit_cost must be positive"))
	}
	if c.Pool.MinAvailableOutputs < 0 {
		errs = append(errs, errors.New("pool.min_available_outputs must not be negative"))
	}
	if c.Ledger.ARCURL == "" {
		errs = append(errs, errors.New("ledger.arc_url is required"))
	}
	if c.Ledger.CallbackURL != "" && !IsPublicHTTPSURL(c.Ledger.CallbackURL) {
		errs = append(errs, errors.New("ledger.callback_url must be a public https URL"))
	}
	if c.Storage.DSN == "" {
		errs = append(errs, errors.New("storage.dsn is required"))
	}
	if c.Server.AdminBearerToken == "" {
		errs = append(errs, errors.New("server.admin_bearer_token is required"))
	}
	if err := c.Logger.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logger: %w", err))
	}
	return errors.Join(errs...)
}
