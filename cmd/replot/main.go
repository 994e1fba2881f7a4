// replot re-renders the chart artifact from an existing history file
// without taking a new measurement. Useful after changing chart options, or
// when an earlier run persisted its sample but failed at the rendering
// step.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	log "github.com/sirupsen/logrus"

	"github.com/matthewb96/NetSpeedGraphs/src/graph"
	"github.com/matthewb96/NetSpeedGraphs/src/pipeline"
	"github.com/matthewb96/NetSpeedGraphs/src/store"
)

var (
	logLevel    = kingpin.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error, fatal]").Default("info").String()
	chartWidth  = kingpin.Flag("chart.width", "Chart width in pixels").Default("1280").Int()
	chartHeight = kingpin.Flag("chart.height", "Chart height in pixels").Default("480").Int()
	tableRows   = kingpin.Flag("chart.table-rows", "Number of recent samples listed under the chart").Default("10").Int()
	historyArg  = kingpin.Arg("history", "Path to the CSV history file").Required().String()
	chartArg    = kingpin.Arg("chart", "Path to the output chart PNG").Required().String()
)

func main() {
	kingpin.Parse()
	setLogLevel(*logLevel)

	history, err := store.New(*historyArg).ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pipeline.Kind(err), err)
		os.Exit(1)
	}

	renderer := graph.NewPNG(
		graph.WithSize(*chartWidth, *chartHeight),
		graph.WithTableRows(*tableRows),
	)
	if err := renderer.Render(history, *chartArg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pipeline.Kind(err), err)
		os.Exit(1)
	}
	log.Infof("rendered %d samples to %s", len(history), *chartArg)
}

func setLogLevel(l string) {
	switch l {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "fatal":
		log.SetLevel(log.FatalLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
