package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
)

// Latest holds the most recent complete result.
//
// The detector builds each result privately and hands it over with a single
// Publish, so a reader calling Snapshot sees either the previous frame's
// result or the new one, never a partially built candidate list. Published
// results must not be modified afterwards.
//
// Latest is safe for concurrent use.
type Latest struct {
	mu     sync.RWMutex
	result *Result
}

// Publish replaces the current result.
func (l *Latest) Publish(r *Result) {
	l.mu.Lock()
	l.result = r
	l.mu.Unlock()
}

// Snapshot returns the current result, or nil before the first Publish.
func (l *Latest) Snapshot() *Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.result
}

// Quads returns the candidate quadrilaterals of the current result.
func (l *Latest) Quads() []Quad {
	r := l.Snapshot()
	if r == nil {
		return nil
	}
	return r.Quads()
}

// FrameSource yields grayscale frames. Next returns io.EOF when no frames
// remain.
type FrameSource interface {
	Next(ctx context.Context) (*image.Gray, error)
}

// Runner drives a Detector from a FrameSource, publishing each completed
// frame to a Latest.
//
// Parameters are fetched from Params at the start of every frame, so a
// configuration swapped in by another goroutine applies from the next frame on.
type Runner struct {
	Detector *Detector
	Source   FrameSource
	Results  *Latest

	// Params supplies the parameters for the next frame. Nil means
	// DefaultParams.
	Params func() Params

	// OnResult, when set, is called with every published result.
	OnResult func(*Result)

	// Logger receives dropped-frame reports. Nil disables logging.
	Logger *log.Logger
}

// Run processes frames until the source is exhausted or ctx is done.
//
// A frame abandoned because of an invariant violation is logged and skipped;
// the next frame starts from a clean label grid. Any other error stops the
// run. Cancelling ctx abandons the frame in flight without publishing it.
func (r *Runner) Run(ctx context.Context) error {
	if r.Detector == nil || r.Source == nil {
		return errors.New("runner needs a detector and a frame source")
	}
	if r.Results == nil {
		r.Results = &Latest{}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := r.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}

		params := DefaultParams()
		if r.Params != nil {
			params = r.Params()
		}

		res, err := r.Detector.Detect(frame, params)
		if errors.Is(err, ErrInvariant) {
			r.logf("dropping frame: %v", err)
			continue
		}
		if err != nil {
			return err
		}

		// The frame is complete, but a cancelled run publishes nothing more.
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Results.Publish(res)
		if r.OnResult != nil {
			r.OnResult(res)
		}
	}
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
