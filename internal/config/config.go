// Package config loads and defaults the node's runtime settings, following
// the teacher daemon's struct + DefaultConfig() + optional TOML overlay
// pattern (internal/daemon.Config; only its config_test.go survived
// retrieval, so the struct here is rebuilt from that test's assertions and
// reinterpreted for the chat domain's own settings).
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Network groups the bind ports and datagram ceiling every peer on the LAN
// must agree on (§6 Environment assumptions: all peers bind the same
// well-known unicast and multicast ports).
type Network struct {
	UnicastPort   int `toml:"unicast_port"`
	MulticastPort int `toml:"multicast_port"`
	MTU           int `toml:"mtu"`
}

// Reliability groups the retransmission and shutdown timing knobs (§4.6,
// §4.7 shutdown).
type Reliability struct {
	RetransmitIntervalSeconds int `toml:"retransmit_interval_seconds"`
	ShutdownDeadlineSeconds   int `toml:"shutdown_deadline_seconds"`
}

// Diagnostics groups the optional read-only HTTP surface (component 10,
// SPEC_FULL.md §6).
type Diagnostics struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Config is the complete node configuration.
type Config struct {
	Network     Network     `toml:"network"`
	Reliability Reliability `toml:"reliability"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

// DefaultConfig returns the settings a node runs with if no config file is
// supplied, matching the defaults named throughout spec.md (§6 unicast port
// 9000 / multicast port 9001, §4.6 recommended 1s retransmit interval).
func DefaultConfig() Config {
	return Config{
		Network: Network{
			UnicastPort:   9000,
			MulticastPort: 9001,
			MTU:           1500,
		},
		Reliability: Reliability{
			RetransmitIntervalSeconds: 1,
			ShutdownDeadlineSeconds:   5,
		},
		Diagnostics: Diagnostics{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
	}
}

// RetransmitInterval returns Reliability.RetransmitIntervalSeconds as a
// time.Duration.
func (c Config) RetransmitInterval() time.Duration {
	return time.Duration(c.Reliability.RetransmitIntervalSeconds) * time.Second
}

// ShutdownDeadline returns Reliability.ShutdownDeadlineSeconds as a
// time.Duration.
func (c Config) ShutdownDeadline() time.Duration {
	return time.Duration(c.Reliability.ShutdownDeadlineSeconds) * time.Second
}

// Load reads a TOML file at path over DefaultConfig(), so an omitted
// section keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
