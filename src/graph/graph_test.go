package graph

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

func historyOf(n int) types.History {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	h := make(types.History, 0, n)
	for i := 0; i < n; i++ {
		h = append(h, types.Sample{
			Timestamp: base.Add(time.Duration(i) * 30 * time.Minute),
			Measurement: types.Measurement{
				PingMs:       20 + float64(i),
				DownloadMbps: 80 + float64(i),
				UploadMbps:   10 + float64(i),
			},
		})
	}
	return h
}

func decodeArtifact(t *testing.T, path string) (width, height int) {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("artifact is not a valid PNG: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderWritesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speeds.png")
	r := NewPNG(WithSize(800, 320), WithTableRows(5))

	if err := r.Render(historyOf(8), path); err != nil {
		t.Fatalf("Render() = %v, want nil", err)
	}
	w, h := decodeArtifact(t, path)
	if w != 800 {
		t.Errorf("artifact width = %d, want 800", w)
	}
	if h <= 320 {
		t.Errorf("artifact height = %d, want > 320 (chart plus table)", h)
	}
}

func TestRenderSingleSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speeds.png")
	if err := NewPNG().Render(historyOf(1), path); err != nil {
		t.Fatalf("Render() = %v, want nil for a single sample", err)
	}
	decodeArtifact(t, path)
}

func TestRenderEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speeds.png")
	if err := NewPNG().Render(types.History{}, path); err != nil {
		t.Fatalf("Render() = %v, want nil for empty history", err)
	}
	decodeArtifact(t, path)
}

func TestRenderReplacesExistingArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speeds.png")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := NewPNG().Render(historyOf(3), path); err != nil {
		t.Fatalf("Render() = %v, want nil", err)
	}
	decodeArtifact(t, path)
}

func TestRenderCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "latest", "speeds.png")
	if err := NewPNG().Render(historyOf(2), path); err != nil {
		t.Fatalf("Render() = %v, want nil", err)
	}
	decodeArtifact(t, path)
}

func TestRenderUnwritablePath(t *testing.T) {
	// The target is a directory, so writing the artifact must fail.
	dir := t.TempDir()
	err := NewPNG().Render(historyOf(2), dir)

	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("Render() = %v, want RenderError", err)
	}
}

func TestRenderWithoutTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speeds.png")
	if err := NewPNG(WithSize(640, 240), WithTableRows(0)).Render(historyOf(4), path); err != nil {
		t.Fatalf("Render() = %v, want nil", err)
	}
	_, h := decodeArtifact(t, path)
	if h != 240 {
		t.Errorf("artifact height = %d, want exactly 240 with table disabled", h)
	}
}

func TestPickTimeStep(t *testing.T) {
	cases := []struct {
		span time.Duration
		want time.Duration
	}{
		{time.Minute, 10 * time.Second},
		{20 * time.Minute, 5 * time.Minute},
		{90 * time.Minute, 10 * time.Minute},
		{12 * time.Hour, time.Hour},
		{2 * 24 * time.Hour, 6 * time.Hour},
		{10 * 24 * time.Hour, 24 * time.Hour},
		{60 * 24 * time.Hour, 7 * 24 * time.Hour},
	}
	for _, tc := range cases {
		if got, _ := pickTimeStep(tc.span); got != tc.want {
			t.Errorf("pickTimeStep(%v) = %v, want %v", tc.span, got, tc.want)
		}
	}
}

func TestNiceMax(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 1},
		{87.1, 100},
		{9.4, 10},
		{450, 500},
	}
	for _, tc := range cases {
		if got := niceMax(tc.in); got != tc.want {
			t.Errorf("niceMax(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTimeTicksAligned(t *testing.T) {
	minT := time.Date(2024, 5, 1, 9, 3, 17, 0, time.Local)
	maxT := minT.Add(45 * time.Minute)
	ticks := timeTicks(minT, maxT, 5*time.Minute, "15:04")

	if len(ticks) < 2 {
		t.Fatalf("got %d ticks, want at least 2", len(ticks))
	}
	if len(ticks) > 21 {
		t.Errorf("got %d ticks, want at most 21", len(ticks))
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Value <= ticks[i-1].Value {
			t.Fatalf("ticks not strictly increasing at %d", i)
		}
	}
}
