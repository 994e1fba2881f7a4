// NetSpeedGraphs main entrypoint.
//
// Each run measures internet performance once (ping, download, upload),
// appends the sample to an append-only CSV history file and re-renders a
// PNG chart of the full history:
//
//	netspeedgraphs [flags] <history.csv> <chart.png>
//
// A run is one-shot: schedule it externally (cron, a systemd timer) or
// pass --run.iterations for a simple in-process loop. On success
// the new measurement is printed to stdout; on failure the error kind and
// message go to stderr and the exit code is non-zero, leaving history from
// earlier runs untouched.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	log "github.com/sirupsen/logrus"

	"github.com/matthewb96/NetSpeedGraphs/src/config"
	"github.com/matthewb96/NetSpeedGraphs/src/graph"
	"github.com/matthewb96/NetSpeedGraphs/src/pipeline"
	"github.com/matthewb96/NetSpeedGraphs/src/probe"
	"github.com/matthewb96/NetSpeedGraphs/src/store"
	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

const version string = "1.0.0"

var (
	showVersion   = kingpin.Flag("version", "Print version information").Bool()
	configFile    = kingpin.Flag("config.path", "Path to config file").Default("").String()
	logLevel      = kingpin.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error, fatal]").Default("info").String()
	probeTimeout  = kingpin.Flag("probe.timeout", "Overall timeout for one measurement (0 disables)").Default("0").Duration()
	probeServerID = kingpin.Flag("probe.server", "Pin measurements to a specific test server ID (0 picks the closest)").Default("0").Int()
	chartWidth    = kingpin.Flag("chart.width", "Chart width in pixels").Default("1280").Int()
	chartHeight   = kingpin.Flag("chart.height", "Chart height in pixels").Default("480").Int()
	tableRows     = kingpin.Flag("chart.table-rows", "Number of recent samples listed under the chart").Default("10").Int()
	iterations    = kingpin.Flag("run.iterations", "Number of measurements to take before exiting").Default("1").Int()
	interval      = kingpin.Flag("run.interval", "Pause between measurements when run.iterations > 1").Default("5m").Duration()
	historyArg    = kingpin.Arg("history", "Path to the CSV history file").String()
	chartArg      = kingpin.Arg("chart", "Path to the output chart PNG").String()
)

func main() {
	kingpin.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		kingpin.FatalUsage("could not load config.path: %v", err)
	}

	setLogLevel(cfg.Log.Level)

	if cfg.Store.Path == "" {
		kingpin.FatalUsage("a history file must be given, as the first argument or via store.path")
	}
	if cfg.Chart.Path == "" {
		kingpin.FatalUsage("a chart file must be given, as the second argument or via chart.path")
	}
	if cfg.Run.Iterations < 1 {
		kingpin.FatalUsage("run.iterations must be greater than 0")
	}

	pl := pipeline.New(
		probe.NewAdapter(newCapability(cfg)),
		store.New(cfg.Store.Path),
		graph.NewPNG(
			graph.WithSize(cfg.Chart.Width, cfg.Chart.Height),
			graph.WithTableRows(cfg.Chart.TableRows),
		),
	)

	for i := 0; i < cfg.Run.Iterations; i++ {
		if i > 0 {
			log.Infof("waiting %s until next measurement", cfg.Run.Interval.Duration())
			time.Sleep(cfg.Run.Interval.Duration())
		}

		sample, err := runOnce(pl, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", pipeline.Kind(err), err)
			os.Exit(1)
		}
		printSample(sample)
	}
}

func runOnce(pl *pipeline.Pipeline, cfg *config.Config) (types.Sample, error) {
	ctx := context.Background()
	if d := cfg.Probe.Timeout.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return pl.Run(ctx, cfg.Chart.Path)
}

func printSample(sample types.Sample) {
	fmt.Printf("Ping:\t%.2fms\n", sample.PingMs)
	fmt.Printf("Download:\t%.2fMbs\n", sample.DownloadMbps)
	fmt.Printf("Upload:\t%.2fMbs\n", sample.UploadMbps)
}

func newCapability(cfg *config.Config) *probe.Speedtest {
	if id := cfg.Probe.ServerID; id != 0 {
		return probe.NewSpeedtest(probe.WithServerID(id))
	}
	return probe.NewSpeedtest()
}

func printVersion() {
	fmt.Println("netspeedgraphs")
	fmt.Printf("Version: %s\n", version)
	fmt.Println("Periodic internet speed measurements with charted history")
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		cfg := config.Config{}
		addFlagToConfig(&cfg)

		return &cfg, nil
	}

	f, err := os.Open(*configFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file: %w", err)
	}
	defer f.Close()

	cfg, err := config.FromYAML(f)
	if err == nil {
		addFlagToConfig(cfg)
	}

	return cfg, err
}

// addFlagToConfig updates cfg with command line flag and argument values,
// unless the config has non-zero values.
func addFlagToConfig(cfg *config.Config) {
	if cfg.Store.Path == "" {
		cfg.Store.Path = *historyArg
	}
	if cfg.Chart.Path == "" {
		cfg.Chart.Path = *chartArg
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = *chartWidth
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = *chartHeight
	}
	if cfg.Chart.TableRows == 0 {
		cfg.Chart.TableRows = *tableRows
	}
	if cfg.Probe.Timeout == 0 {
		cfg.Probe.Timeout.Set(*probeTimeout)
	}
	if cfg.Probe.ServerID == 0 {
		cfg.Probe.ServerID = *probeServerID
	}
	if cfg.Run.Iterations == 0 {
		cfg.Run.Iterations = *iterations
	}
	if cfg.Run.Interval == 0 {
		cfg.Run.Interval.Set(*interval)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = *logLevel
	}
}
