// Package pipeline sequences one measurement run: probe the network,
// persist the sample, re-render the chart from full history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/matthewb96/NetSpeedGraphs/src/graph"
	"github.com/matthewb96/NetSpeedGraphs/src/probe"
	"github.com/matthewb96/NetSpeedGraphs/src/store"
	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

// State identifies where a run currently is. Runs only move forward;
// Failed is terminal and reachable from every non-terminal state.
type State int

const (
	StateIdle State = iota
	StateMeasuring
	StatePersisting
	StateRendering
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMeasuring:
		return "Measuring"
	case StatePersisting:
		return "Persisting"
	case StateRendering:
		return "Rendering"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Prober acquires one normalized measurement.
type Prober interface {
	Measure(ctx context.Context) (types.Measurement, error)
}

// Store is the durable history the pipeline appends to and reads back.
type Store interface {
	Append(types.Sample) error
	ReadAll() (types.History, error)
}

// Renderer turns the full ordered history into an artifact at path.
type Renderer interface {
	Render(history types.History, path string) error
}

// StepError records the step a run failed in, wrapping the causing error.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(e.Step.String()), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Pipeline drives measurements through probe, store and renderer. It is a
// single-writer construct: one Pipeline per history file, one Run at a
// time.
type Pipeline struct {
	prober   Prober
	store    Store
	renderer Renderer
	now      func() time.Time

	state State
	err   error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the capture-time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(prober Prober, store Store, renderer Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		prober:   prober,
		store:    store,
		renderer: renderer,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the state of the most recent run.
func (p *Pipeline) State() State { return p.state }

// Err returns the error carried by a Failed run, nil otherwise.
func (p *Pipeline) Err() error { return p.err }

// Run executes one measurement from scratch: measure, stamp capture time,
// append to the store, read the whole history back and render it to
// chartPath. On success the stamped sample is returned and the state is
// Done.
//
// A failure at any step stops the run and moves it to Failed carrying a
// StepError; nothing is retried and nothing is rolled back. History rows
// written by earlier runs are never touched, so re-running after a failure
// is always safe and appends at most one more row.
func (p *Pipeline) Run(ctx context.Context, chartPath string) (types.Sample, error) {
	p.state, p.err = StateIdle, nil
	var sample types.Sample

	p.transition(StateMeasuring)
	m, err := p.prober.Measure(ctx)
	if err != nil {
		return sample, p.fail(err)
	}
	// Stamp at capture time, not write time. Microseconds is the precision
	// the store keeps, so truncate up front and the returned sample matches
	// what a later read yields.
	sample = types.Sample{
		Timestamp:   p.now().Truncate(time.Microsecond),
		Measurement: m,
	}

	p.transition(StatePersisting)
	if err := p.store.Append(sample); err != nil {
		return types.Sample{}, p.fail(err)
	}

	p.transition(StateRendering)
	history, err := p.store.ReadAll()
	if err != nil {
		return types.Sample{}, p.fail(err)
	}
	if err := p.renderer.Render(history, chartPath); err != nil {
		return types.Sample{}, p.fail(err)
	}

	p.transition(StateDone)
	return sample, nil
}

func (p *Pipeline) transition(next State) {
	log.Debugf("pipeline: %s -> %s", p.state, next)
	p.state = next
}

func (p *Pipeline) fail(err error) error {
	step := p.state
	p.transition(StateFailed)
	p.err = &StepError{Step: step, Err: err}
	return p.err
}

// Kind classifies a pipeline error for reporting: one of
// "probe_unavailable", "store_write", "store_not_found", "store_corrupt",
// "render" or "internal". The empty string means no error.
func Kind(err error) string {
	var (
		writeErr   *store.WriteError
		corruptErr *store.CorruptError
		renderErr  *graph.RenderError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, probe.ErrUnavailable):
		return "probe_unavailable"
	case errors.As(err, &writeErr):
		return "store_write"
	case errors.Is(err, store.ErrNotFound):
		return "store_not_found"
	case errors.As(err, &corruptErr):
		return "store_corrupt"
	case errors.As(err, &renderErr):
		return "render"
	}
	return "internal"
}
