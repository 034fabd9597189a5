package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/facelock/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file decoding. Intervals use
// timex.Duration so they can be "30s" strings or integer nanoseconds.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	AccessToken        string         `json:"access_token" yaml:"access_token"`
	Locale             string         `json:"locale" yaml:"locale"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	SecretKey          string         `json:"secret_key" yaml:"secret_key"`
	StateDB            string         `json:"state_db" yaml:"state_db"`
}

// parseFile overlays cfg with the non-empty values of a JSON or YAML file.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	if fc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	}
	if fc.AccessToken != "" {
		cfg.AccessToken = fc.AccessToken
	}
	if fc.Locale != "" {
		cfg.Locale = fc.Locale
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.SecretKey != "" {
		cfg.SecretKey = fc.SecretKey
	}
	if fc.StateDB != "" {
		cfg.StateDB = fc.StateDB
	}
	return nil
}
