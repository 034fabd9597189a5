// Package config loads runtime configuration for the FaceLock CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file passed to LoadConfig.
//  3. FACELOCK_ADDR, FACELOCK_TOKEN and FACELOCK_LOCALE.
//  4. Command-line flags, applied by the cli package.
//
// Example file:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "locale": "ru",
//	  "request_timeout": "30s"
//	}
package config
