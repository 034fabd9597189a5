package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	cfg := []string{"-c", "--config"}
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-c", "conf.json", "-a", "localhost"}, cfg, []string{"-c", "conf.json"}},
		{"equals form", []string{"--config=alt.json", "-a", "localhost"}, cfg, []string{"--config=alt.json"}},
		{"order preserved", []string{"--config=first.json", "-c", "second.json", "-x", "1"}, cfg, []string{"--config=first.json", "-c", "second.json"}},
		{"unknown flags and positionals dropped", []string{"-x", "1", "--y=2", "positional", "k=v"}, cfg, []string{}},
		{"dangling flag kept", []string{"-c"}, cfg, []string{"-c"}},
		{"dash token is not a value", []string{"-c", "-notvalue"}, cfg, []string{"-c"}},
		{"inline value may start with dash", []string{"--config=--weird.json"}, []string{"--config"}, []string{"--config=--weird.json"}},
		{"several owned flags", []string{"-a", "localhost:8080", "-c", "conf.json", "--other", "x"}, []string{"-c", "-a"}, []string{"-a", "localhost:8080", "-c", "conf.json"}},
		{"repeated flag", []string{"-c", "one.json", "-c", "two.json"}, []string{"-c"}, []string{"-c", "one.json", "-c", "two.json"}},
		{"empty", nil, cfg, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFile(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short -c with value", []string{"-c", "/etc/facelock/short.yaml"}, "/etc/facelock/short.yaml"},
		{"long -config with value", []string{"-config", "/etc/facelock/long.toml"}, "/etc/facelock/long.toml"},
		{"double dash", []string{"--config", "/etc/facelock/dd.yaml"}, "/etc/facelock/dd.yaml"},
		{"unknown flags are ignored", []string{"-x", "1", "-y", "2"}, ""},
		{"equals form", []string{"-a", ":50051", "-config=/etc/facelock/server.json"}, "/etc/facelock/server.json"},
		{"multiple flags, last wins", []string{"-c", "/path/1.json", "-config", "/path/2.json"}, "/path/2.json"},
		{"dangling flag", []string{"-c"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFile(tt.args))
		})
	}
}
