package detection

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
)

// sliceSource hands out a fixed list of frames, then io.EOF.
type sliceSource struct {
	frames []*image.Gray
	next   int
}

func (s *sliceSource) Next(ctx context.Context) (*image.Gray, error) {
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// scriptedEdges fails the frames listed in failures and returns mask for the
// rest.
type scriptedEdges struct {
	mask     *image.Gray
	failures map[int]error
	calls    int
}

func (e *scriptedEdges) EdgeMask(frame *image.Gray) (*image.Gray, error) {
	e.calls++
	if err, ok := e.failures[e.calls]; ok {
		return nil, err
	}
	return e.mask, nil
}

func blankFrames(n, size int) []*image.Gray {
	frames := make([]*image.Gray, n)
	for i := range frames {
		frames[i] = image.NewGray(image.Rect(0, 0, size, size))
	}
	return frames
}

func TestLatest(t *testing.T) {
	var l Latest
	if l.Snapshot() != nil || l.Quads() != nil {
		t.Fatal("empty Latest should have no result")
	}

	res := &Result{Sequence: 7}
	l.Publish(res)
	if l.Snapshot() != res {
		t.Error("Snapshot should return the published result")
	}
	if q := l.Quads(); len(q) != 0 {
		t.Errorf("Quads: got %v, want none", q)
	}
}

func TestLatest_ConcurrentReaders(t *testing.T) {
	var l Latest
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if r := l.Snapshot(); r != nil && r.Sequence == 0 {
					t.Error("saw an unpublished result")
				}
			}
		}()
	}
	for seq := uint64(1); seq <= 100; seq++ {
		l.Publish(&Result{Sequence: seq})
	}
	wg.Wait()
	if l.Snapshot().Sequence != 100 {
		t.Errorf("final sequence: got %d, want 100", l.Snapshot().Sequence)
	}
}

func TestRunner_PublishesEveryFrame(t *testing.T) {
	edges := &scriptedEdges{mask: squareScene(60, 20, 39)}
	var seen []uint64
	paramCalls := 0

	r := &Runner{
		Detector: NewDetector(edges, outlineResponder{}),
		Source:   &sliceSource{frames: blankFrames(3, 60)},
		Params: func() Params {
			paramCalls++
			return DefaultParams()
		},
		OnResult: func(res *Result) { seen = append(seen, res.Sequence) },
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(seen) != 3 || seen[2] != 3 {
		t.Errorf("published sequences: %v", seen)
	}
	if paramCalls != 3 {
		t.Errorf("Params called %d times, want 3", paramCalls)
	}
	if r.Results == nil || len(r.Results.Quads()) != 1 {
		t.Error("latest result should hold one candidate")
	}
}

func TestRunner_SkipsInvariantFailures(t *testing.T) {
	edges := &scriptedEdges{
		mask: squareScene(60, 20, 39),
		failures: map[int]error{
			2: &InvariantError{Label: 4, Stage: "fill holes", Expected: 10, Actual: 9},
		},
	}
	var buf bytes.Buffer
	results := &Latest{}
	published := 0

	r := &Runner{
		Detector: NewDetector(edges, outlineResponder{}),
		Source:   &sliceSource{frames: blankFrames(3, 60)},
		Results:  results,
		OnResult: func(*Result) { published++ },
		Logger:   log.New(&buf, "", 0),
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if published != 2 {
		t.Errorf("published %d frames, want 2", published)
	}
	if !strings.Contains(buf.String(), "dropping frame") {
		t.Errorf("log output: %q", buf.String())
	}
	if results.Snapshot().Sequence != 2 {
		t.Errorf("latest sequence: got %d, want 2", results.Snapshot().Sequence)
	}
}

func TestRunner_StopsOnOtherErrors(t *testing.T) {
	boom := errors.New("camera unplugged")
	edges := &scriptedEdges{mask: squareScene(60, 20, 39), failures: map[int]error{1: boom}}
	r := &Runner{
		Detector: NewDetector(edges, outlineResponder{}),
		Source:   &sliceSource{frames: blankFrames(2, 60)},
	}
	if err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
	if r.Results.Snapshot() != nil {
		t.Error("nothing should have been published")
	}
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{
		Detector: NewDetector(&scriptedEdges{mask: squareScene(60, 20, 39)}, outlineResponder{}),
		Source:   &sliceSource{frames: blankFrames(1, 60)},
	}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if r.Results.Snapshot() != nil {
		t.Error("a cancelled run must not publish")
	}
}

func TestRunner_CancelledMidFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &Runner{
		Detector: NewDetector(&scriptedEdges{mask: squareScene(60, 20, 39)}, outlineResponder{}),
		Source:   &sliceSource{frames: blankFrames(2, 60)},
		Params: func() Params {
			cancel()
			return DefaultParams()
		},
	}
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if r.Results.Snapshot() != nil {
		t.Error("the frame in flight must not be published")
	}
}

func TestRunner_RequiresDetectorAndSource(t *testing.T) {
	if err := (&Runner{}).Run(context.Background()); err == nil {
		t.Error("Run without a detector should fail")
	}
}
