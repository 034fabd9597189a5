package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/facelock/internal/flagx"
	"github.com/dmitrijs2005/facelock/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for decoding config files. Durations use
// timex.Duration so both "1m" strings and integer nanoseconds are accepted.
// Zero values leave the corresponding Config field untouched.
type FileConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc" toml:"endpoint_addr_grpc"`
	EndpointAddrHTTP            string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http" toml:"endpoint_addr_http"`
	StoreBackend                string         `json:"store_backend" yaml:"store_backend" toml:"store_backend"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn" toml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key" toml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration" toml:"access_token_validity_duration"`
	SealKey                     string         `json:"seal_key" yaml:"seal_key" toml:"seal_key"`
	ObjectBackend               string         `json:"object_backend" yaml:"object_backend" toml:"object_backend"`
	S3RootUser                  string         `json:"s3_root_user" yaml:"s3_root_user" toml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" yaml:"s3_root_password" toml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" yaml:"s3_bucket" toml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" yaml:"s3_region" toml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint" toml:"s3_base_endpoint"`
	PresignTTL                  timex.Duration `json:"presign_ttl" yaml:"presign_ttl" toml:"presign_ttl"`
	MaxAttempts                 int            `json:"max_attempts" yaml:"max_attempts" toml:"max_attempts"`
	VerifierTimeout             timex.Duration `json:"verifier_timeout" yaml:"verifier_timeout" toml:"verifier_timeout"`
	LockHoldTimeout             timex.Duration `json:"lock_hold_timeout" yaml:"lock_hold_timeout" toml:"lock_hold_timeout"`
	UnlockQueueWait             timex.Duration `json:"unlock_queue_wait" yaml:"unlock_queue_wait" toml:"unlock_queue_wait"`
	FaceMatchThreshold          float64        `json:"face_match_threshold" yaml:"face_match_threshold" toml:"face_match_threshold"`
	BiometricEndpoint           string         `json:"biometric_endpoint" yaml:"biometric_endpoint" toml:"biometric_endpoint"`
	RiskPolicyFile              string         `json:"risk_policy_file" yaml:"risk_policy_file" toml:"risk_policy_file"`
	Locale                      string         `json:"locale" yaml:"locale" toml:"locale"`
	LogLevel                    string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	SessionBuffer               int            `json:"session_buffer" yaml:"session_buffer" toml:"session_buffer"`
}

// decodeFile reads path and decodes it by extension: .yaml/.yml, .toml,
// anything else as JSON.
func decodeFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return c, nil
}

// parseFile loads configuration values from the file named by the -c or
// -config flag into config. If no flag is present nothing is loaded.
// An unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFile(os.Args[1:])
	if path == "" {
		return
	}

	c, err := decodeFile(path)
	if err != nil {
		panic(err)
	}
	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.SealKey, c.SealKey)
	setString(&config.ObjectBackend, c.ObjectBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.PresignTTL, c.PresignTTL)
	if c.MaxAttempts != 0 {
		config.MaxAttempts = c.MaxAttempts
	}
	setDuration(&config.VerifierTimeout, c.VerifierTimeout)
	setDuration(&config.LockHoldTimeout, c.LockHoldTimeout)
	setDuration(&config.UnlockQueueWait, c.UnlockQueueWait)
	if c.FaceMatchThreshold != 0 {
		config.FaceMatchThreshold = c.FaceMatchThreshold
	}
	setString(&config.BiometricEndpoint, c.BiometricEndpoint)
	setString(&config.RiskPolicyFile, c.RiskPolicyFile)
	setString(&config.Locale, c.Locale)
	setString(&config.LogLevel, c.LogLevel)
	if c.SessionBuffer != 0 {
		config.SessionBuffer = c.SessionBuffer
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
