package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
)

func TestPrepareFrame(t *testing.T) {
	// White left half, black right half, with a non-zero origin.
	src := image.NewRGBA(image.Rect(10, 5, 50, 25))
	for y := 5; y < 25; y++ {
		for x := 10; x < 50; x++ {
			if x < 30 {
				src.Set(x, y, color.White)
			} else {
				src.Set(x, y, color.Black)
			}
		}
	}

	tests := []struct {
		name         string
		factor       float64
		wantW, wantH int
	}{
		{"unscaled", 1.0, 40, 20},
		{"half", 0.5, 20, 10},
		{"double", 2.0, 80, 40},
		{"zero means unscaled", 0, 40, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := PrepareFrame(src, tt.factor)
			if frame.Bounds() != image.Rect(0, 0, tt.wantW, tt.wantH) {
				t.Fatalf("bounds: got %v, want 0,0-%d,%d", frame.Bounds(), tt.wantW, tt.wantH)
			}
			if v := frame.GrayAt(1, tt.wantH/2).Y; v != 255 {
				t.Errorf("left pixel: got %d, want 255", v)
			}
			if v := frame.GrayAt(tt.wantW-2, tt.wantH/2).Y; v != 0 {
				t.Errorf("right pixel: got %d, want 0", v)
			}
		})
	}
}

func TestPrepareFrame_GrayPassthrough(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 8, 8))
	if got := PrepareFrame(g, 1.0); got != g {
		t.Error("a gray frame at the origin should be returned as is")
	}

	sub := g.SubImage(image.Rect(2, 2, 6, 6)).(*image.Gray)
	got := PrepareFrame(sub, 1.0)
	if got == sub || got.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("sub-image should be copied to the origin, got bounds %v", got.Bounds())
	}
}

func TestPrepareFrame_TinyResize(t *testing.T) {
	frame := PrepareFrame(image.NewGray(image.Rect(0, 0, 3, 3)), 0.01)
	if frame.Bounds().Dx() != 1 || frame.Bounds().Dy() != 1 {
		t.Errorf("bounds: got %v, want 1x1", frame.Bounds())
	}
}

func TestFileSequence(t *testing.T) {
	paths := []string{
		writeTestPNG(t, 20, 10, color.White),
		writeTestPNG(t, 30, 16, color.Black),
	}
	ctx := context.Background()

	seq := NewFileSequence(paths, NewImageCache())
	if seq.Current() != "" {
		t.Errorf("Current before first frame: got %q, want empty", seq.Current())
	}

	for i, want := range []image.Point{{20, 10}, {30, 16}} {
		frame, err := seq.Next(ctx)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Bounds().Size() != want {
			t.Errorf("frame %d: size %v, want %v", i, frame.Bounds().Size(), want)
		}
		if seq.Current() != paths[i] {
			t.Errorf("frame %d: Current = %q, want %q", i, seq.Current(), paths[i])
		}
	}

	if _, err := seq.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("after last frame: got %v, want io.EOF", err)
	}
}

func TestFileSequence_LoopAndResize(t *testing.T) {
	path := writeTestPNG(t, 40, 20, color.White)
	seq := NewFileSequence([]string{path}, nil)
	seq.Loop = true
	seq.ResizeFactor = func() float64 { return 0.5 }

	for i := 0; i < 3; i++ {
		frame, err := seq.Next(context.Background())
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Bounds().Size() != image.Pt(20, 10) {
			t.Errorf("frame %d: size %v, want 20x10", i, frame.Bounds().Size())
		}
	}
}

func TestFileSequence_Errors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := NewFileSequence([]string{writeTestPNG(t, 4, 4, color.White)}, nil)
	if _, err := seq.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v, want context.Canceled", err)
	}

	if _, err := NewFileSequence(nil, nil).Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("empty sequence: got %v, want io.EOF", err)
	}

	missing := NewFileSequence([]string{"/nonexistent/frame.png"}, nil)
	if _, err := missing.Next(context.Background()); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("missing file: got %v, want a decode error", err)
	}
}
