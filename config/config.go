package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/l1fee/auth"
	"github.com/jonwraymond/l1fee/cache"
	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/health"
	"github.com/jonwraymond/l1fee/observe"
	"github.com/jonwraymond/l1fee/resilience"
	"github.com/jonwraymond/l1fee/secret"
	"github.com/jonwraymond/l1fee/server"
)

// ErrNoChains is returned when no RPC endpoint is configured.
var ErrNoChains = errors.New("config: no chains configured")

// Config is the l1feed service configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Chains   map[string]string       `yaml:"chains"`
	Fee      FeeConfig               `yaml:"fee"`
	Cache    cache.Policy            `yaml:"cache"`
	Provider resilience.Config       `yaml:"provider"`
	Health   health.AggregatorConfig `yaml:"health"`
	Observe  observe.Config          `yaml:"observe"`
	Secrets  SecretsConfig           `yaml:"secrets"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string             `yaml:"addr"`
	ReadTimeout     time.Duration      `yaml:"read_timeout"`
	WriteTimeout    time.Duration      `yaml:"write_timeout"`
	ShutdownTimeout time.Duration      `yaml:"shutdown_timeout"`
	CORSOrigins     []string           `yaml:"cors_origins"`
	Auth            AuthConfig         `yaml:"auth"`
	Watch           server.WatchConfig `yaml:"watch"`
}

// AuthConfig enables bearer authentication on the fee routes.
type AuthConfig struct {
	Enabled bool           `yaml:"enabled"`
	JWT     auth.JWTConfig `yaml:",inline"`
}

// FeeConfig configures the estimator.
type FeeConfig struct {
	// Gate lists the chains that need the fee. Empty uses the built-in set.
	Gate []string `yaml:"gate"`

	RetainPrevious  *bool         `yaml:"retain_previous"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	KeyVersion      int           `yaml:"key_version"`

	// Oracle overrides the GasPriceOracle address.
	Oracle string `yaml:"oracle"`
}

// SecretsConfig configures secret providers.
type SecretsConfig struct {
	// Dir enables the file provider rooted at Dir.
	Dir    string `yaml:"dir"`
	Strict bool   `yaml:"strict"`
}

// Default returns a configuration that serves on :8080 with no chains.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Watch:           server.DefaultWatchConfig(),
		},
		Chains: map[string]string{},
		Fee:    FeeConfig{KeyVersion: fee.KeyVersion},
		Cache:  cache.DefaultPolicy(),
		Provider: resilience.Config{
			Timeout: 5 * time.Second,
			Retry:   &resilience.RetryConfig{MaxAttempts: 2},
			CircuitBreaker: &resilience.CircuitBreakerConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
			},
		},
		Health: health.AggregatorConfig{Timeout: 5 * time.Second},
		Observe: observe.Config{
			ServiceName: "l1feed",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Secrets: SecretsConfig{Strict: true},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references in data and decodes it over Default.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.ChainEndpoints(); err != nil {
		return err
	}
	if _, err := c.GateChains(); err != nil {
		return err
	}
	if c.Fee.KeyVersion < 0 {
		return fmt.Errorf("config: fee.key_version: %w", cache.ErrInvalidVersion)
	}
	if c.Fee.RefreshInterval < 0 {
		return errors.New("config: fee.refresh_interval must not be negative")
	}
	if c.Cache.TTL < 0 || c.Cache.MaxEntries < 0 {
		return errors.New("config: cache ttl and max_entries must not be negative")
	}
	if _, err := c.OracleAddress(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.Auth.Enabled && c.Server.Auth.JWT.Secret == "" {
		return fmt.Errorf("config: server.auth: %w", auth.ErrMissingKey)
	}
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("config: provider: %w", err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("config: observe: %w", err)
	}
	return nil
}

// Resolve replaces secret references in RPC URLs and the JWT secret.
func (c *Config) Resolve(ctx context.Context, r *secret.Resolver) error {
	chains, err := r.ResolveMap(ctx, c.Chains)
	if err != nil {
		return fmt.Errorf("config: chains: %w", err)
	}
	c.Chains = chains

	if c.Server.Auth.JWT.Secret != "" {
		s, err := r.ResolveValue(ctx, c.Server.Auth.JWT.Secret)
		if err != nil {
			return fmt.Errorf("config: server.auth.secret: %w", err)
		}
		c.Server.Auth.JWT.Secret = s
	}
	return nil
}

// NewResolver returns the secret resolver described by c.Secrets.
func (c *Config) NewResolver() *secret.Resolver {
	r := secret.NewResolver(c.Secrets.Strict, secret.EnvProvider{})
	if c.Secrets.Dir != "" {
		r.Register(secret.NewFileProvider(c.Secrets.Dir))
	}
	return r
}

// ChainEndpoints returns the RPC endpoints keyed by chain ID.
func (c *Config) ChainEndpoints() (map[fee.ChainID]string, error) {
	if len(c.Chains) == 0 {
		return nil, ErrNoChains
	}
	out := make(map[fee.ChainID]string, len(c.Chains))
	for name, url := range c.Chains {
		id, err := fee.ParseChainID(name)
		if err != nil {
			return nil, fmt.Errorf("config: chains: %w", err)
		}
		if url == "" {
			return nil, fmt.Errorf("config: chains: empty endpoint for %s", id)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("config: chains: %s configured twice", id)
		}
		out[id] = url
	}
	return out, nil
}

// GateChains returns the configured gate, or nil for the built-in one.
func (c *Config) GateChains() ([]fee.ChainID, error) {
	if len(c.Fee.Gate) == 0 {
		return nil, nil
	}
	ids := make([]fee.ChainID, 0, len(c.Fee.Gate))
	for _, name := range c.Fee.Gate {
		id, err := fee.ParseChainID(name)
		if err != nil {
			return nil, fmt.Errorf("config: fee.gate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EstimatorOptions translates the fee and cache sections.
func (c *Config) EstimatorOptions() ([]fee.Option, error) {
	opts := []fee.Option{
		fee.WithPolicy(c.Cache),
		fee.WithKeyVersion(c.Fee.KeyVersion),
		fee.WithRefreshInterval(c.Fee.RefreshInterval),
	}
	if c.Fee.RetainPrevious != nil {
		opts = append(opts, fee.WithRetainPrevious(*c.Fee.RetainPrevious))
	}
	gate, err := c.GateChains()
	if err != nil {
		return nil, err
	}
	if gate != nil {
		opts = append(opts, fee.WithGate(fee.NewGate(gate...)))
	}
	return opts, nil
}

// OracleAddress returns the GasPriceOracle override, or the zero address
// when none is configured.
func (c *Config) OracleAddress() (common.Address, error) {
	if c.Fee.Oracle == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(c.Fee.Oracle) {
		return common.Address{}, fmt.Errorf("config: fee.oracle: invalid address %q", c.Fee.Oracle)
	}
	return common.HexToAddress(c.Fee.Oracle), nil
}

// HTTP returns the listener settings of the server section.
func (c *Config) HTTP() server.HTTPConfig {
	return server.HTTPConfig{
		Addr:            c.Server.Addr,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
	}
}
