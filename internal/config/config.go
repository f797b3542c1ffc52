package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// Config holds the process configuration. Network selection is a pure
// configuration switch: it picks which router contracts and RPC endpoints
// are used, nothing is negotiated at request time.
type Config struct {
	Network        string   `mapstructure:"network"`
	Port           string   `mapstructure:"port"`
	RedisAddr      string   `mapstructure:"redis_addr"`
	AptosRPCURL    string   `mapstructure:"aptos_rpc_url"`
	PriceAPIURL    string   `mapstructure:"price_api_url"`
	PanoraURL      string   `mapstructure:"panora_url"`
	PanoraAPIKey   string   `mapstructure:"panora_api_key"`
	RatePerMinute  int      `mapstructure:"rate_per_minute"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Development    bool     `mapstructure:"development_mode"`
}

var defaultRPCURLs = map[entities.Network]string{
	entities.Mainnet: "https://fullnode.mainnet.aptoslabs.com/v1",
	entities.Testnet: "https://fullnode.testnet.aptoslabs.com/v1",
}

// Load reads configuration from the environment (optionally seeded by a
// .env file) with the SWAPROUTER_ prefix.
func Load() (*Config, error) {
	// The .env file is optional; env can come from docker, systemd or
	// other means, so a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SWAPROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verify(&cfg); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &cfg, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env
// values when no config file is loaded.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"network", "port", "redis_addr",
		"aptos_rpc_url", "price_api_url",
		"panora_url", "panora_api_key",
		"rate_per_minute", "allowed_origins", "development_mode",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", string(entities.Mainnet))
	v.SetDefault("port", "8080")
	v.SetDefault("price_api_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("panora_url", "https://api.panora.exchange")
	v.SetDefault("rate_per_minute", 120)
}

func verify(cfg *Config) error {
	net := entities.Network(cfg.Network)
	if !net.Valid() {
		return fmt.Errorf("unknown network %q (want %q or %q)", cfg.Network, entities.Mainnet, entities.Testnet)
	}
	if cfg.AptosRPCURL == "" {
		cfg.AptosRPCURL = defaultRPCURLs[net]
	}
	if cfg.RatePerMinute < 0 {
		return fmt.Errorf("rate_per_minute must not be negative")
	}
	return nil
}

// NetworkContext returns the validated network selection.
func (c *Config) NetworkContext() entities.Network {
	return entities.Network(c.Network)
}
