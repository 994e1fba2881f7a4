// Package types holds the shared data model for the measurement pipeline.
package types

import "time"

// Measurement is the normalized result of one network test: latency plus
// download/upload throughput in canonical units (ms and Mbs). It carries no
// timestamp; the caller stamps capture time when it turns a Measurement
// into a Sample.
type Measurement struct {
	PingMs       float64
	DownloadMbps float64
	UploadMbps   float64
}

// Sample is one persisted measurement event.
type Sample struct {
	Timestamp time.Time
	Measurement
}

// History is the ordered sequence of all persisted samples. Order is append
// order; readers never re-sort.
type History []Sample
