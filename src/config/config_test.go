package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	f, err := os.Open("testdata/config_test.yml")
	if err != nil {
		t.Error("failed to open file", err)
		t.FailNow()
	}

	c, err := FromYAML(f)
	f.Close()
	if err != nil {
		t.Error("failed to parse", err)
		t.FailNow()
	}

	if expected := "/var/lib/netspeed/history.csv"; c.Store.Path != expected {
		t.Errorf("expected store.path to be %q, got %q", expected, c.Store.Path)
	}
	if expected := "/var/www/netspeed/speeds.png"; c.Chart.Path != expected {
		t.Errorf("expected chart.path to be %q, got %q", expected, c.Chart.Path)
	}
	if expected := 1600; c.Chart.Width != expected {
		t.Errorf("expected chart.width to be %d, got %d", expected, c.Chart.Width)
	}
	if expected := 600; c.Chart.Height != expected {
		t.Errorf("expected chart.height to be %d, got %d", expected, c.Chart.Height)
	}
	if expected := 15; c.Chart.TableRows != expected {
		t.Errorf("expected chart.table-rows to be %d, got %d", expected, c.Chart.TableRows)
	}
	if expected := 2*time.Minute + 30*time.Second; c.Probe.Timeout.Duration() != expected {
		t.Errorf("expected probe.timeout to be %v, got %v", expected, c.Probe.Timeout.Duration())
	}
	if expected := 4302; c.Probe.ServerID != expected {
		t.Errorf("expected probe.server-id to be %d, got %d", expected, c.Probe.ServerID)
	}
	if expected := 3; c.Run.Iterations != expected {
		t.Errorf("expected run.iterations to be %d, got %d", expected, c.Run.Iterations)
	}
	if expected := 45 * time.Second; c.Run.Interval.Duration() != expected {
		t.Errorf("expected run.interval to be %v, got %v", expected, c.Run.Interval.Duration())
	}
	if expected := "debug"; c.Log.Level != expected {
		t.Errorf("expected log.level to be %q, got %q", expected, c.Log.Level)
	}
}

func TestParseConfigBadDuration(t *testing.T) {
	_, err := FromYAML(strings.NewReader("probe:\n  timeout: fast\n"))
	if err == nil {
		t.Error("expected error for unparseable duration, got nil")
	}
}

func TestParseConfigEmpty(t *testing.T) {
	c, err := FromYAML(strings.NewReader("{}"))
	if err != nil {
		t.Error("failed to parse empty config", err)
		t.FailNow()
	}
	if c.Store.Path != "" || c.Chart.Width != 0 || c.Run.Iterations != 0 {
		t.Errorf("empty config should have zero values, got %+v", c)
	}
}

func TestDurationSet(t *testing.T) {
	var d duration
	d.Set(90 * time.Second)
	if d.Duration() != 90*time.Second {
		t.Errorf("expected 1m30s, got %v", d.Duration())
	}
}
