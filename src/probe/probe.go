// Package probe acquires normalized network measurements from an opaque
// measurement capability.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

// ErrUnavailable reports that a usable measurement could not be obtained:
// no reachable test server, a failed transfer, or numbers no real network
// can produce. Nothing gets persisted when it is returned.
var ErrUnavailable = errors.New("network measurement unavailable")

// Server is one measurement endpoint, selected and latency-qualified by the
// capability.
type Server interface {
	// LatencyMs is the round-trip latency to this server in milliseconds,
	// established when the server was selected.
	LatencyMs() float64
	// MeasureDownload runs the download test and reports raw downstream
	// throughput in bits per second.
	MeasureDownload(ctx context.Context) (float64, error)
	// MeasureUpload runs the upload test and reports raw upstream
	// throughput in bits per second.
	MeasureUpload(ctx context.Context) (float64, error)
}

// Capability is the external measurement service. Implementations own
// protocol, server discovery and transfer mechanics; the adapter only
// shapes their numbers.
type Capability interface {
	BestServer(ctx context.Context) (Server, error)
}

// Adapter turns one capability run into a Measurement in canonical units
// (ms and Mbs).
type Adapter struct {
	capability Capability
}

func NewAdapter(capability Capability) *Adapter {
	return &Adapter{capability: capability}
}

const bitsPerMegabit = 1e6

// Measure runs one full test: select a server, take its latency, then
// measure download and upload throughput. Raw bits per second convert to
// Mbs on the way out. Every failure wraps ErrUnavailable and yields a zero
// Measurement; there are no partial results and no fabricated values.
func (a *Adapter) Measure(ctx context.Context) (types.Measurement, error) {
	var m types.Measurement

	server, err := a.capability.BestServer(ctx)
	if err != nil {
		return m, fmt.Errorf("%w: selecting server: %v", ErrUnavailable, err)
	}

	download, err := server.MeasureDownload(ctx)
	if err != nil {
		return m, fmt.Errorf("%w: download test: %v", ErrUnavailable, err)
	}
	upload, err := server.MeasureUpload(ctx)
	if err != nil {
		return m, fmt.Errorf("%w: upload test: %v", ErrUnavailable, err)
	}

	m = types.Measurement{
		PingMs:       server.LatencyMs(),
		DownloadMbps: download / bitsPerMegabit,
		UploadMbps:   upload / bitsPerMegabit,
	}
	if err := validate(m); err != nil {
		return types.Measurement{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return m, nil
}

// validate rejects values no real measurement can produce. A zero is fine,
// a negative or non-finite number is not.
func validate(m types.Measurement) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"latency", m.PingMs},
		{"download", m.DownloadMbps},
		{"upload", m.UploadMbps},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 {
			return fmt.Errorf("capability returned impossible %s %v", c.name, c.value)
		}
	}
	return nil
}
