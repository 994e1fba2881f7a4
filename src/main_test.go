package main

import (
	"testing"
	"time"

	"github.com/matthewb96/NetSpeedGraphs/src/config"
)

func TestAddFlagToConfig(t *testing.T) {
	*historyArg = "args/history.csv"
	*chartArg = "args/speeds.png"
	*chartWidth = 1280
	*chartHeight = 480
	*tableRows = 10
	*probeTimeout = 90 * time.Second
	*probeServerID = 0
	*iterations = 1
	*interval = 5 * time.Minute
	*logLevel = "info"

	t.Run("fills unset fields", func(t *testing.T) {
		cfg := &config.Config{}
		addFlagToConfig(cfg)

		if cfg.Store.Path != "args/history.csv" {
			t.Errorf("store.path = %q, want argument value", cfg.Store.Path)
		}
		if cfg.Chart.Path != "args/speeds.png" {
			t.Errorf("chart.path = %q, want argument value", cfg.Chart.Path)
		}
		if cfg.Chart.Width != 1280 || cfg.Chart.Height != 480 || cfg.Chart.TableRows != 10 {
			t.Errorf("chart dimensions = %dx%d/%d rows, want flag defaults",
				cfg.Chart.Width, cfg.Chart.Height, cfg.Chart.TableRows)
		}
		if cfg.Probe.Timeout.Duration() != 90*time.Second {
			t.Errorf("probe.timeout = %v, want 1m30s", cfg.Probe.Timeout.Duration())
		}
		if cfg.Run.Iterations != 1 || cfg.Run.Interval.Duration() != 5*time.Minute {
			t.Errorf("run = %d iterations every %v, want 1 every 5m",
				cfg.Run.Iterations, cfg.Run.Interval.Duration())
		}
		if cfg.Log.Level != "info" {
			t.Errorf("log.level = %q, want info", cfg.Log.Level)
		}
	})

	t.Run("config file values win", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Path = "cfg/history.csv"
		cfg.Chart.Path = "cfg/speeds.png"
		cfg.Chart.Width = 1600
		cfg.Probe.Timeout.Set(2 * time.Minute)
		cfg.Run.Iterations = 7
		cfg.Log.Level = "debug"
		addFlagToConfig(cfg)

		if cfg.Store.Path != "cfg/history.csv" || cfg.Chart.Path != "cfg/speeds.png" {
			t.Errorf("paths = %q, %q, want config values kept", cfg.Store.Path, cfg.Chart.Path)
		}
		if cfg.Chart.Width != 1600 {
			t.Errorf("chart.width = %d, want 1600 from config", cfg.Chart.Width)
		}
		if cfg.Probe.Timeout.Duration() != 2*time.Minute {
			t.Errorf("probe.timeout = %v, want 2m from config", cfg.Probe.Timeout.Duration())
		}
		if cfg.Run.Iterations != 7 {
			t.Errorf("run.iterations = %d, want 7 from config", cfg.Run.Iterations)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("log.level = %q, want debug from config", cfg.Log.Level)
		}
		// Fields the config left unset still come from flags.
		if cfg.Chart.Height != 480 {
			t.Errorf("chart.height = %d, want 480 from flag", cfg.Chart.Height)
		}
	})
}
