package config

import (
	"os"
	"time"
)

// Environment variables read after the config file.
const (
	EnvAddr   = "FACELOCK_ADDR"
	EnvToken  = "FACELOCK_TOKEN"
	EnvLocale = "FACELOCK_LOCALE"
	EnvState  = "FACELOCK_STATE_DB"
)

// Config holds runtime settings for the FaceLock CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: JWT sent with every call.
//   - Locale: preferred language of server messages ("en", "ru").
//   - RequestTimeout: deadline of unary calls; event streams have none.
//   - SecretKey: server signing secret, only needed to mint development tokens.
//   - StateDB: sqlite file remembering the last event seen per item; empty
//     disables local state.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	Locale             string
	RequestTimeout     time.Duration
	SecretKey          string
	StateDB            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Locale = "en"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig applies defaults, then the optional config file at path, then
// environment variables. Command-line flags are applied by the caller on top.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	parseEnv(cfg)
	return cfg, nil
}

func parseEnv(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.AccessToken = v
	}
	if v := os.Getenv(EnvLocale); v != "" {
		cfg.Locale = v
	}
	if v := os.Getenv(EnvState); v != "" {
		cfg.StateDB = v
	}
}
