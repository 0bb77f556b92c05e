package detection

import (
	"errors"
	"image"
	"math"
	"testing"
)

// fixedResponder returns a copy of its response regardless of the mask.
type fixedResponder struct {
	response []float64
	err      error
}

func (r fixedResponder) CornerResponse(mask *image.Gray, blockSize, aperture int, k float64) ([]float64, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]float64, len(r.response))
	copy(out, r.response)
	return out, nil
}

func TestExtractCorners(t *testing.T) {
	mask := &Mask{Rows: 5, Cols: 6, Pix: make([]uint8, 30)}
	comp := &Component{Label: 3, BBox: Box{X: 3, Y: 4, Width: 4, Height: 3}}

	response := make([]float64, 30)
	response[0] = 10      // padding, never reported
	response[1*6+1] = 10  // strongest
	response[2*6+4] = 10  // strongest
	response[3*6+2] = 5   // exactly at the threshold after scaling
	response[3*6+3] = -10 // minimum
	response[4*6+5] = 10  // padding, never reported
	p := CornerParams{BlockSize: 2, Aperture: 3, K: 0.04, Threshold: 191.25}

	if err := ExtractCorners(mask, comp, fixedResponder{response: response}, p); err != nil {
		t.Fatalf("ExtractCorners failed: %v", err)
	}

	// Mask (1,1) is grid (3,4), frame (2,3).
	want := []Vertex{{X: 2, Y: 3}, {X: 5, Y: 4}}
	if len(comp.Vertices) != len(want) {
		t.Fatalf("got vertices %v, want %v", comp.Vertices, want)
	}
	for i := range want {
		if comp.Vertices[i] != want[i] {
			t.Errorf("vertex %d: got %v, want %v", i, comp.Vertices[i], want[i])
		}
	}
}

func TestExtractCorners_Errors(t *testing.T) {
	mask := &Mask{Rows: 3, Cols: 3, Pix: make([]uint8, 9)}
	p := DefaultParams().Corners
	boom := errors.New("boom")

	if err := ExtractCorners(mask, &Component{}, fixedResponder{err: boom}, p); !errors.Is(err, boom) {
		t.Errorf("responder error: got %v, want it wrapped", err)
	}
	if err := ExtractCorners(mask, &Component{}, fixedResponder{response: make([]float64, 4)}, p); err == nil {
		t.Error("short response should fail")
	}
}

func TestNormalizeMinMax(t *testing.T) {
	values := []float64{-2, 0, 2}
	normalizeMinMax(values, 255)
	want := []float64{0, 127.5, 255}
	for i := range want {
		if math.Abs(values[i]-want[i]) > 1e-9 {
			t.Errorf("value %d: got %g, want %g", i, values[i], want[i])
		}
	}

	flat := []float64{4, 4, 4}
	normalizeMinMax(flat, 255)
	for i, v := range flat {
		if v != 0 {
			t.Errorf("flat value %d: got %g, want 0", i, v)
		}
	}

	normalizeMinMax(nil, 255)
}
