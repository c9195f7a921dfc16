package cluster

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MemberConfig describes one member of the static cluster configuration.
type MemberConfig struct {
	ID      string `yaml:"id"`
	Address string `yaml:"address"`
}

// Config holds everything the consensus engine consumes but does not own: the election timeout
// window, the heartbeat interval, and the static member list.
type Config struct {
	// ID of the local member. Assigned a fresh UUID when empty.
	ID string `yaml:"id"`

	// ListenAddress is where the local member serves inbound RPCs.
	ListenAddress string `yaml:"listen_address"`

	// ElectionTimeoutLower and ElectionTimeoutUpper bound the randomized election timeout. The
	// range of 150-300ms is chosen based on the recommendation at the end of Section 9.3 from the
	// [Raft paper](https://raft.github.io/raft.pdf); randomization prevents indefinite split votes.
	ElectionTimeoutLower time.Duration `yaml:"election_timeout_lower"`
	ElectionTimeoutUpper time.Duration `yaml:"election_timeout_upper"`

	// HeartbeatInterval is how often a Leader replicates to each follower. It must be strictly
	// shorter than ElectionTimeoutLower or a healthy leader would not keep its followers quiet.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// Members is the static cluster membership, including the local member.
	Members []MemberConfig `yaml:"members"`

	// StoragePath is the bbolt file backing the audit trail. Empty means in-memory only.
	StoragePath string `yaml:"storage_path"`
}

// DefaultConfig returns a config with the paper-recommended timing values and no members.
func DefaultConfig() *Config {
	return &Config{
		ElectionTimeoutLower: 150 * time.Millisecond,
		ElectionTimeoutUpper: 300 * time.Millisecond,
		HeartbeatInterval:    50 * time.Millisecond,
	}
}

// UnmarshalYAML decodes the config, accepting the timing fields in time.ParseDuration notation
// ("150ms", "1s"). yaml.v3 cannot decode such strings into a time.Duration on its own.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig struct {
		ID                   string         `yaml:"id"`
		ListenAddress        string         `yaml:"listen_address"`
		ElectionTimeoutLower string         `yaml:"election_timeout_lower"`
		ElectionTimeoutUpper string         `yaml:"election_timeout_upper"`
		HeartbeatInterval    string         `yaml:"heartbeat_interval"`
		Members              []MemberConfig `yaml:"members"`
		StoragePath          string         `yaml:"storage_path"`
	}

	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.ID = raw.ID
	c.ListenAddress = raw.ListenAddress
	c.Members = raw.Members
	c.StoragePath = raw.StoragePath

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"election_timeout_lower", raw.ElectionTimeoutLower, &c.ElectionTimeoutLower},
		{"election_timeout_upper", raw.ElectionTimeoutUpper, &c.ElectionTimeoutUpper},
		{"heartbeat_interval", raw.HeartbeatInterval, &c.HeartbeatInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			// Absent fields keep whatever the target already holds, i.e. the defaults.
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the timing invariants and the member list.
func (c *Config) Validate() error {
	if c.ElectionTimeoutLower <= 0 {
		return fmt.Errorf("election_timeout_lower must be positive, got %v", c.ElectionTimeoutLower)
	}
	if c.ElectionTimeoutUpper < c.ElectionTimeoutLower {
		return fmt.Errorf("election_timeout_upper (%v) must not be below election_timeout_lower (%v)",
			c.ElectionTimeoutUpper, c.ElectionTimeoutLower)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %v", c.HeartbeatInterval)
	}
	// Section 5.6: broadcastTime << electionTimeout. A heartbeat interval at or above the lower
	// election bound guarantees spurious elections.
	if c.HeartbeatInterval >= c.ElectionTimeoutLower {
		return fmt.Errorf("heartbeat_interval (%v) must be strictly below election_timeout_lower (%v)",
			c.HeartbeatInterval, c.ElectionTimeoutLower)
	}

	seen := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		if m.ID == "" {
			return fmt.Errorf("member with address %q has an empty id", m.Address)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate member id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// randomElectionTimeout picks a fresh timeout inside [lower, upper]. Each election attempt gets
// its own draw so colliding candidates desynchronize.
func (c *Config) randomElectionTimeout() time.Duration {
	window := int64(c.ElectionTimeoutUpper - c.ElectionTimeoutLower)
	if window <= 0 {
		return c.ElectionTimeoutLower
	}
	// +1 makes the upper bound inclusive, as rand.Int63n could return 0.
	return c.ElectionTimeoutLower + time.Duration(rand.Int63n(window+1))
}
