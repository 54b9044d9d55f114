// Package brokercfg loads the broker's optional TOML tunables file, in the
// same toml.DecodeFile pattern the teacher's config package used for its
// server-fleet configuration — scaled down to the handful of knobs this
// broker actually needs.
package brokercfg

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every broker tunable. Zero value is never used directly;
// Load always returns Defaults() merged with whatever the file overrides.
type Config struct {
	// RequestTimeout bounds how long Send waits for a matching response
	// before failing the waiter (spec §4.7 "Send").
	RequestTimeout time.Duration
	// PingTimeout bounds the liveness ping issued on connection open
	// (spec §4.7 "Open").
	PingTimeout time.Duration
	// ReconnectPollMin/Max bound the exponential backoff used while
	// waiting for reload (spec §4.9 "Wait-for-reload substate").
	ReconnectPollMin time.Duration
	ReconnectPollMax time.Duration
	// ReconnectBudget bounds the total time spent in wait-for-reload
	// before the controller reports "timeout" (spec §4.9).
	ReconnectBudget time.Duration
	// ReloadSettleDelay is the pause between a reload-triggering invoke
	// and starting the reconnect poll (spec §4.10 "Invoke").
	ReloadSettleDelay time.Duration
	// ReloadTriggerTools names the tools whose invocation is known to
	// cause a host reload (spec §4.10, §9 open question: recognized by
	// name rather than an explicit host signal).
	ReloadTriggerTools []string
	// LogDir overrides where the bridge's log files are written; empty
	// means accept the logger package's own default.
	LogDir string
}

type fileConfig struct {
	RequestTimeoutMS    *int64   `toml:"request_timeout_ms"`
	PingTimeoutMS       *int64   `toml:"ping_timeout_ms"`
	ReconnectPollMinMS  *int64   `toml:"reconnect_poll_min_ms"`
	ReconnectPollMaxMS  *int64   `toml:"reconnect_poll_max_ms"`
	ReconnectBudgetMS   *int64   `toml:"reconnect_budget_ms"`
	ReloadSettleDelayMS *int64   `toml:"reload_settle_delay_ms"`
	ReloadTriggerTools  []string `toml:"reload_trigger_tools"`
	LogDir              string   `toml:"log_dir"`
}

// Defaults returns the tunables used when no config file is supplied, or
// when a supplied file omits a given key.
func Defaults() Config {
	return Config{
		RequestTimeout:     30 * time.Second,
		PingTimeout:        5 * time.Second,
		ReconnectPollMin:   500 * time.Millisecond,
		ReconnectPollMax:   2000 * time.Millisecond,
		ReconnectBudget:    60 * time.Second,
		ReloadSettleDelay:  500 * time.Millisecond,
		ReloadTriggerTools: []string{"refresh_assets", "reload_extensions", "reindex_project"},
	}
}

// Load reads path as a TOML tunables file and overlays it onto Defaults().
// An empty path, or a path that does not exist, returns Defaults() with no
// error: the file is entirely optional (spec §6 lists no required
// environment or config inputs for the core).
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("brokercfg: failed to stat %s: %w", path, err)
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return cfg, fmt.Errorf("brokercfg: failed to decode %s: %w", path, err)
	}

	if fc.RequestTimeoutMS != nil {
		cfg.RequestTimeout = time.Duration(*fc.RequestTimeoutMS) * time.Millisecond
	}
	if fc.PingTimeoutMS != nil {
		cfg.PingTimeout = time.Duration(*fc.PingTimeoutMS) * time.Millisecond
	}
	if fc.ReconnectPollMinMS != nil {
		cfg.ReconnectPollMin = time.Duration(*fc.ReconnectPollMinMS) * time.Millisecond
	}
	if fc.ReconnectPollMaxMS != nil {
		cfg.ReconnectPollMax = time.Duration(*fc.ReconnectPollMaxMS) * time.Millisecond
	}
	if fc.ReconnectBudgetMS != nil {
		cfg.ReconnectBudget = time.Duration(*fc.ReconnectBudgetMS) * time.Millisecond
	}
	if fc.ReloadSettleDelayMS != nil {
		cfg.ReloadSettleDelay = time.Duration(*fc.ReloadSettleDelayMS) * time.Millisecond
	}
	if len(fc.ReloadTriggerTools) > 0 {
		cfg.ReloadTriggerTools = fc.ReloadTriggerTools
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}

	return cfg, nil
}

// IsReloadTrigger reports whether toolName is in the configured
// reload-triggering set.
func (c Config) IsReloadTrigger(toolName string) bool {
	for _, name := range c.ReloadTriggerTools {
		if name == toolName {
			return true
		}
	}
	return false
}
