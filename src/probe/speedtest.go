package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/showwin/speedtest-go/speedtest"
	log "github.com/sirupsen/logrus"
)

// Speedtest measures against the speedtest.net server network. It satisfies
// Capability; server discovery, latency qualification and the transfer
// protocol all belong to the speedtest client.
type Speedtest struct {
	client   *speedtest.Speedtest
	serverID int
}

// SpeedtestOption configures the capability.
type SpeedtestOption func(*Speedtest)

// WithServerID pins measurements to one specific server instead of the
// closest one. Useful when the closest server is flaky and skews history.
func WithServerID(id int) SpeedtestOption {
	return func(s *Speedtest) { s.serverID = id }
}

func NewSpeedtest(opts ...SpeedtestOption) *Speedtest {
	s := &Speedtest{client: speedtest.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BestServer fetches the server directory and qualifies the closest server
// (or the pinned one) with a latency test.
func (s *Speedtest) BestServer(ctx context.Context) (Server, error) {
	servers, err := s.client.FetchServerListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch server list: %w", err)
	}

	var ids []int
	if s.serverID != 0 {
		ids = append(ids, s.serverID)
	}
	targets, err := servers.FindServer(ids)
	if err != nil {
		return nil, fmt.Errorf("find server: %w", err)
	}
	if len(targets) == 0 {
		return nil, errors.New("no test server available")
	}

	target := targets[0]
	if err := target.PingTestContext(ctx, nil); err != nil {
		return nil, fmt.Errorf("latency test against %s: %w", target.Host, err)
	}
	log.Infof("test server: %s (%s, %s) distance=%.1fkm latency=%s",
		target.Name, target.Sponsor, target.Country, target.Distance, target.Latency)
	return &speedtestServer{target: target}, nil
}

type speedtestServer struct {
	target *speedtest.Server
}

func (s *speedtestServer) LatencyMs() float64 {
	return float64(s.target.Latency) / float64(time.Millisecond)
}

// MeasureDownload reports raw bits per second; the speedtest client tracks
// transfer rates in bytes per second internally.
func (s *speedtestServer) MeasureDownload(ctx context.Context) (float64, error) {
	if err := s.target.DownloadTestContext(ctx); err != nil {
		return 0, err
	}
	return float64(s.target.DLSpeed) * 8, nil
}

func (s *speedtestServer) MeasureUpload(ctx context.Context) (float64, error) {
	if err := s.target.UploadTestContext(ctx); err != nil {
		return 0, err
	}
	return float64(s.target.ULSpeed) * 8, nil
}
