// Package graph renders measurement history into a self-contained PNG
// artifact: line charts of download, upload and ping over time with a table
// of the most recent samples underneath.
package graph

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

// RenderError wraps any failure to produce the chart artifact. History is
// already durable by the time rendering runs, so the failure only costs the
// visualization, never data.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

const (
	defaultWidth     = 1280
	defaultHeight    = 480
	defaultTableRows = 10
)

// PNG renders history charts as PNG files.
type PNG struct {
	width     int
	height    int
	tableRows int
}

// Option configures a PNG renderer.
type Option func(*PNG)

// WithSize sets the chart dimensions in pixels. Non-positive values keep
// the defaults. The table block is added below the chart, so the final
// image is taller than height.
func WithSize(width, height int) Option {
	return func(p *PNG) {
		if width > 0 {
			p.width = width
		}
		if height > 0 {
			p.height = height
		}
	}
}

// WithTableRows sets how many of the most recent samples the table under
// the chart lists. Zero disables the table.
func WithTableRows(n int) Option {
	return func(p *PNG) {
		if n >= 0 {
			p.tableRows = n
		}
	}
}

func NewPNG(opts ...Option) *PNG {
	p := &PNG{width: defaultWidth, height: defaultHeight, tableRows: defaultTableRows}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render draws the full history and writes the artifact to path, replacing
// whatever was there. Parent directories are created as needed. An empty
// history still produces an artifact, just one with no data points.
func (p *PNG) Render(history types.History, path string) error {
	img, err := p.chartImage(history)
	if err != nil {
		return &RenderError{Path: path, Err: err}
	}
	img = p.appendTable(img, history)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &RenderError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	log.Debugf("rendered %d samples to %s", len(history), path)
	return nil
}

func (p *PNG) chartImage(history types.History) (image.Image, error) {
	if len(history) == 0 {
		return drawNote(blank(p.width, p.height), "no samples recorded yet"), nil
	}

	n := len(history)
	times := make([]time.Time, n)
	pings := make([]float64, n)
	downloads := make([]float64, n)
	uploads := make([]float64, n)
	for i, s := range history {
		times[i] = s.Timestamp
		pings[i] = s.PingMs
		downloads[i] = s.DownloadMbps
		uploads[i] = s.UploadMbps
	}
	// The chart engine cannot draw a single-point series; duplicate a lone
	// sample one second later so it shows as a short flat line.
	if n == 1 {
		times = append(times, times[0].Add(time.Second))
		pings = append(pings, pings[0])
		downloads = append(downloads, downloads[0])
		uploads = append(uploads, uploads[0])
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Download Speed (Mbs)",
			XValues: times,
			YValues: downloads,
			Style:   seriesStyle(chart.ColorBlue),
		},
		chart.TimeSeries{
			Name:    "Upload Speed (Mbs)",
			XValues: times,
			YValues: uploads,
			Style:   seriesStyle(chart.ColorGreen),
		},
		chart.TimeSeries{
			Name:    "Ping (ms)",
			YAxis:   chart.YAxisSecondary,
			XValues: times,
			YValues: pings,
			Style:   seriesStyle(chart.ColorRed),
		},
	}

	ch := chart.Chart{
		Title:      "Internet Speed History",
		Width:      p.width,
		Height:     p.height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 48}},
		XAxis:      timeAxis(times),
		YAxis: chart.YAxis{
			Name:  "Mbs",
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxOf(downloads, uploads))},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "ms",
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxOf(pings))},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// seriesStyle draws a line with dots on each sample.
func seriesStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 1.5,
		DotColor:    col,
		DotWidth:    3,
	}
}

// timeAxis builds an X axis with ticks rounded to a readable step for the
// span of times. Times must be non-empty and hold at least two values.
func timeAxis(times []time.Time) chart.XAxis {
	minT, maxT := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(minT) {
			minT = t
		}
		if t.After(maxT) {
			maxT = t
		}
	}
	step, labelFmt := pickTimeStep(maxT.Sub(minT))
	ticks := timeTicks(minT, maxT, step, labelFmt)
	if len(ticks) < 2 {
		next := minT.Add(step)
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(next), Label: next.Format(labelFmt)})
	}

	minF := chart.TimeToFloat64(minT)
	maxF := chart.TimeToFloat64(maxT)
	if maxF <= minF {
		maxF = minF + float64(time.Second)
	}
	return chart.XAxis{
		Name:  "Time",
		Ticks: ticks,
		Range: &chart.ContinuousRange{Min: minF, Max: maxF},
	}
}

// pickTimeStep selects a tick step and label format readable for the span.
func pickTimeStep(span time.Duration) (time.Duration, string) {
	switch {
	case span <= 2*time.Minute:
		return 10 * time.Second, "15:04:05"
	case span <= 10*time.Minute:
		return time.Minute, "15:04"
	case span <= 30*time.Minute:
		return 5 * time.Minute, "15:04"
	case span <= 2*time.Hour:
		return 10 * time.Minute, "15:04"
	case span <= 6*time.Hour:
		return 30 * time.Minute, "Jan 2 15:04"
	case span <= 24*time.Hour:
		return time.Hour, "Jan 2 15:04"
	case span <= 3*24*time.Hour:
		return 6 * time.Hour, "Jan 2 15:04"
	case span <= 14*24*time.Hour:
		return 24 * time.Hour, "Jan 2"
	default:
		return 7 * 24 * time.Hour, "Jan 2"
	}
}

// timeTicks returns ticks aligned to step boundaries across [minT, maxT].
// Alignment happens in UTC to dodge DST anomalies; labels render in local
// time like the samples themselves.
func timeTicks(minT, maxT time.Time, step time.Duration, labelFmt string) []chart.Tick {
	if step <= 0 {
		return nil
	}
	sec := int64(step.Seconds())
	if sec <= 0 {
		sec = 1
	}
	aligned := time.Unix((minT.UTC().Unix()/sec)*sec, 0).UTC()

	var ticks []chart.Tick
	for t := aligned; !t.After(maxT.UTC().Add(step)); t = t.Add(step) {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Local().Format(labelFmt)})
		if len(ticks) > 20 {
			break
		}
	}
	return ticks
}

// niceMax rounds max up to a clean axis bound with headroom.
func niceMax(max float64) float64 {
	if math.IsNaN(max) || max <= 0 {
		return 1
	}
	max *= 1.05
	mag := math.Pow(10, math.Floor(math.Log10(max)))
	return math.Ceil(max/mag) * mag
}

func maxOf(seqs ...[]float64) float64 {
	max := 0.0
	for _, seq := range seqs {
		for _, v := range seq {
			if v > max {
				max = v
			}
		}
	}
	return max
}

const tableMargin = 16

// appendTable returns a copy of img extended downward with a fixed-width
// text table of the most recent samples, newest first.
func (p *PNG) appendTable(img image.Image, history types.History) image.Image {
	if p.tableRows == 0 {
		return img
	}
	rows := history
	if len(rows) > p.tableRows {
		rows = rows[len(rows)-p.tableRows:]
	}

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 4
	pad := 10
	tableHeight := 2*pad + lineHeight*(len(rows)+1) + 2

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+tableHeight))
	draw.Draw(out, b, img, b.Min, draw.Src)
	draw.Draw(out, image.Rect(0, b.Dy(), b.Dx(), b.Dy()+tableHeight),
		image.NewUniform(color.White), image.Point{}, draw.Src)

	textCol := image.NewUniform(color.RGBA{R: 40, G: 40, B: 40, A: 255})
	dr := &font.Drawer{Dst: out, Src: textCol, Face: face}

	y := b.Dy() + pad + face.Metrics().Ascent.Ceil()
	line := func(cells [4]string) {
		dr.Dot = fixed.Point26_6{X: fixed.I(tableMargin), Y: fixed.I(y)}
		dr.DrawString(fmt.Sprintf("%-22s%12s%24s%22s", cells[0], cells[1], cells[2], cells[3]))
		y += lineHeight
	}

	line([4]string{"Time", "Ping (ms)", "Download Speed (Mbs)", "Upload Speed (Mbs)"})
	// light rule under the header
	ruleY := y - face.Metrics().Ascent.Ceil() - 2
	draw.Draw(out, image.Rect(tableMargin, ruleY, b.Dx()-tableMargin, ruleY+1),
		image.NewUniform(color.RGBA{R: 200, G: 200, B: 200, A: 255}), image.Point{}, draw.Src)

	for i := len(rows) - 1; i >= 0; i-- {
		s := rows[i]
		line([4]string{
			s.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2f", s.PingMs),
			fmt.Sprintf("%.2f", s.DownloadMbps),
			fmt.Sprintf("%.2f", s.UploadMbps),
		})
	}
	return out
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// drawNote writes a short status string near the bottom-left of img.
func drawNote(img image.Image, text string) image.Image {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.RGBA{R: 120, G: 120, B: 120, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(b.Min.X + 8), Y: fixed.I(b.Max.Y - 8)},
	}
	dr.DrawString(text)
	return rgba
}
