package usox

import (
	"io/ioutil"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Wire-ish constants from spec.md §6/§9. LIBUS_TIMEOUT_GRANULARITY equivalent.
const (
	DefaultSweepGranularitySec = 4
	DefaultRecvBufferLength    = 512 * 1024
	DefaultRecvBufferPadding   = 64
	DefaultSendBufferLength    = 512 * 1024
	MaxLowPrioSocketsPerTick   = 5
	maxSCMRightsPerMsg         = 16
	shortTickWheelSize         = 240
	longTickMultiplier         = 15
	disarmedTimeout            = 255
)

// Global mirrors the teacher's Global log-level block; kept for parity
// with how the rest of the config tree is shaped.
type Global struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// LoopConfig is the on-disk configuration for a Loop. Everything here has
// a sane zero-value default applied by NewLoop, so an empty LoopConfig is
// a valid, if conservative, loop.
type LoopConfig struct {
	Global Global `yaml:"global" toml:"global"`

	SweepGranularitySec int `yaml:"sweep_granularity_sec" toml:"sweep_granularity_sec"`
	RecvBufferLength    int `yaml:"recv_buffer_length" toml:"recv_buffer_length"`
	RecvBufferPadding   int `yaml:"recv_buffer_padding" toml:"recv_buffer_padding"`
	SendBufferLength    int `yaml:"send_buffer_length" toml:"send_buffer_length"`

	// LockOSThread pins the loop's Run goroutine to its OS thread for the
	// lifetime of the loop, same as the teacher's EventLoopConfig.LockOsThread.
	LockOSThread bool `yaml:"lock_os_thread" toml:"lock_os_thread"`

	// Shards, when > 0, sets how many loops NewLoopGroup builds (applyDefaults
	// makes it at least 1). Each loop can listen on the same address with
	// ListenReusePort; the kernel spreads accepts across those sockets.
	Shards int `yaml:"shards" toml:"shards"`
}

// ContextOptions configure a Context at creation time.
type ContextOptions struct {
	Name           string `yaml:"name" toml:"name"`
	IsIPC          bool   `yaml:"is_ipc" toml:"is_ipc"`
	AllowHalfOpen  bool   `yaml:"allow_half_open" toml:"allow_half_open"`
	RequireTLSPeer bool   `yaml:"require_tls_peer" toml:"require_tls_peer"`
}

// ListenOptions configure Context.Listen.
type ListenOptions struct {
	Backlog       int
	AllowHalfOpen bool
}

// ConnectOptions configure Context.Connect.
type ConnectOptions struct {
	SourceAddr string
}

func (c *LoopConfig) applyDefaults() {
	if c.SweepGranularitySec <= 0 {
		c.SweepGranularitySec = DefaultSweepGranularitySec
	}
	if c.RecvBufferLength <= 0 {
		c.RecvBufferLength = DefaultRecvBufferLength
	}
	if c.RecvBufferPadding <= 0 {
		c.RecvBufferPadding = DefaultRecvBufferPadding
	}
	if c.SendBufferLength <= 0 {
		c.SendBufferLength = DefaultSendBufferLength
	}
	if c.Shards <= 0 {
		c.Shards = 1
	}
}

// LoadLoopConfig reads a LoopConfig from a .toml or .yaml file, picking the
// unmarshaler by extension, exactly as the teacher's LoadConfig does.
func LoadLoopConfig(filePath string) (*LoopConfig, error) {
	file, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	cfg := &LoopConfig{}
	switch {
	case strings.HasSuffix(filePath, ".toml"):
		err = toml.Unmarshal(file, cfg)
	case strings.HasSuffix(filePath, ".yaml"), strings.HasSuffix(filePath, ".yml"):
		err = yaml.Unmarshal(file, cfg)
	default:
		err = errUnknownConfigExt
	}
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}
