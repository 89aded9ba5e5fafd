// Package config holds server-wide settings, following the same
// environment-variable-first loading shape as the rest of this module's
// config surfaces, adapted here to a server with no third-party API
// credentials to manage.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ethan/cloudrender-relay/internal/netdiscover"
)

// Config holds the settings the signaling HTTP surface and session driver
// need at startup.
type Config struct {
	ListenAddr         string // HTTP signaling listen address, default ":4500"
	PublicIP           net.IP
	InitialWidth       int
	InitialHeight      int
	InitialBitrateBps  int
	EnableRateReconfig bool
}

// Default returns the server's baseline defaults: 0.0.0.0:4500, 1280x720,
// 2.5 Mbps initial target, rate reconfiguration off.
func Default() Config {
	return Config{
		ListenAddr:         ":4500",
		InitialWidth:       1280,
		InitialHeight:      720,
		InitialBitrateBps:  2_500_000,
		EnableRateReconfig: false,
	}
}

// Load resolves the public IP (via PUBLIC_IP or interface discovery, §6)
// and applies any CR_* environment overrides on top of Default().
func Load() (Config, error) {
	cfg := Default()

	ip, err := netdiscover.PublicIP()
	if err != nil {
		return Config{}, fmt.Errorf("config: resolve public ip: %w", err)
	}
	cfg.PublicIP = ip

	if v := os.Getenv("CR_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("CR_INITIAL_BITRATE_BPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid CR_INITIAL_BITRATE_BPS: %w", err)
		}
		cfg.InitialBitrateBps = n
	}
	if v := os.Getenv("CR_ENABLE_RATE_RECONFIG"); v != "" {
		cfg.EnableRateReconfig = v == "1" || v == "true"
	}

	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and sane.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("missing listen address")
	}
	if c.PublicIP == nil {
		return fmt.Errorf("missing public ip")
	}
	if c.InitialWidth <= 0 || c.InitialHeight <= 0 {
		return fmt.Errorf("invalid initial resolution %dx%d", c.InitialWidth, c.InitialHeight)
	}
	if c.InitialBitrateBps <= 0 {
		return fmt.Errorf("invalid initial bitrate")
	}
	return nil
}
