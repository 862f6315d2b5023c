package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lwmacct/251124-bindconf/internal/config"
)

// Config holds the server configuration
type Config struct {
	Name         string        // Service name reported by / and /health
	Version      string        // Version reported by /
	URLs         []string      // Listen URLs, one listener each
	PortFile     string        // File to write the first bound port
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
	IdleTimeout  time.Duration // HTTP idle timeout
	NoAccessLog  bool          // Disable access logging
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Name:         "bindconf",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// FromSnapshot overlays resolved settings on DefaultConfig. Keys use
// dashes ("read-timeout"); the underscore spelling is accepted too so the
// values can come from environment variables.
func FromSnapshot(snap *config.Snapshot) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup(snap, "name"); ok && v != "" {
		cfg.Name = v
	}
	for _, u := range strings.Split(snap.String("urls"), ";") {
		if u = strings.TrimSpace(u); u != "" {
			cfg.URLs = append(cfg.URLs, u)
		}
	}
	if v, ok := lookup(snap, "port-file"); ok {
		cfg.PortFile = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"read-timeout", &cfg.ReadTimeout},
		{"write-timeout", &cfg.WriteTimeout},
		{"idle-timeout", &cfg.IdleTimeout},
	}
	for _, d := range durations {
		v, ok := lookup(snap, d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("setting %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup(snap, "no-access-log"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("setting no-access-log: %w", err)
		}
		cfg.NoAccessLog = b
	}

	return cfg, nil
}

func lookup(snap *config.Snapshot, key string) (string, bool) {
	if v, ok := snap.Get(key); ok {
		return v, true
	}
	return snap.Get(strings.ReplaceAll(key, "-", "_"))
}
