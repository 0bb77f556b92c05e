package config

import (
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/glyph-detect-mcp/internal/cvbridge"
	"github.com/ironsheep/glyph-detect-mcp/internal/imaging"
)

func TestEdgeDetector(t *testing.T) {
	cfg := Default()
	cfg.EdgeBlurRadius, cfg.EdgeThreshold, cfg.EdgeDilateRadius = 2, 90, 1

	d, err := cfg.EdgeDetector()
	if err != nil {
		t.Fatal(err)
	}
	want := imaging.SobelDetector{BlurRadius: 2, Threshold: 90, DilateRadius: 1}
	if sobel, ok := d.(imaging.SobelDetector); !ok || sobel != want {
		t.Errorf("got %#v, want %#v", d, want)
	}

	cfg.EdgeMethod = MethodCanny
	d, err = cfg.EdgeDetector()
	if err != nil {
		t.Fatal(err)
	}
	if canny, ok := d.(imaging.CannyDetector); !ok || canny.Low != cfg.CannyLow || canny.High != cfg.CannyHigh {
		t.Errorf("got %#v, want a canny detector", d)
	}

	cfg.EdgeMethod = "laplace"
	if _, err := cfg.EdgeDetector(); err == nil {
		t.Error("unknown method should fail")
	}
}

func TestCornerResponder(t *testing.T) {
	cfg := Default()
	r, err := cfg.CornerResponder()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(imaging.HarrisResponder); !ok {
		t.Errorf("got %T, want imaging.HarrisResponder", r)
	}

	cfg.CornerMethod = "fast"
	if _, err := cfg.CornerResponder(); err == nil {
		t.Error("unknown method should fail")
	}
}

func TestOpenCVCollaborators(t *testing.T) {
	if cvbridge.Available {
		t.Skip("built with OpenCV support")
	}
	cfg := Default()
	cfg.EdgeMethod = MethodOpenCV
	if _, err := cfg.NewDetector(); !errors.Is(err, cvbridge.ErrUnavailable) {
		t.Errorf("edge_method opencv: got %v, want ErrUnavailable", err)
	}

	cfg = Default()
	cfg.CornerMethod = MethodOpenCV
	if _, err := cfg.NewDetector(); !errors.Is(err, cvbridge.ErrUnavailable) {
		t.Errorf("corner_method opencv: got %v, want ErrUnavailable", err)
	}
}

func TestApply(t *testing.T) {
	d, err := Default().NewDetector()
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}

	// A blank frame has one component filling the frame, which the default
	// size bounds reject.
	frame := image.NewGray(image.Rect(0, 0, 40, 30))
	res, err := d.Detect(frame, Default().Params())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(res.Components) != 1 || res.Components[0].Accepted {
		t.Errorf("components: %+v", res.Components)
	}

	bad := Default()
	bad.EdgeMethod = "laplace"
	if err := bad.Apply(d); err == nil {
		t.Error("Apply with an unknown method should fail")
	}
	// The failed Apply leaves the previous collaborators in place.
	if _, err := d.Detect(frame, Default().Params()); err != nil {
		t.Errorf("detector broken after failed Apply: %v", err)
	}
}
