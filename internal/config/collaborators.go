package config

import (
	"fmt"

	"github.com/ironsheep/glyph-detect-mcp/internal/cvbridge"
	"github.com/ironsheep/glyph-detect-mcp/internal/detection"
	"github.com/ironsheep/glyph-detect-mcp/internal/imaging"
)

// EdgeDetector builds the gradient collaborator selected by EdgeMethod.
func (c *Config) EdgeDetector() (detection.EdgeDetector, error) {
	switch c.EdgeMethod {
	case MethodSobel:
		return imaging.SobelDetector{
			BlurRadius:   c.EdgeBlurRadius,
			Threshold:    uint8(c.EdgeThreshold),
			DilateRadius: c.EdgeDilateRadius,
		}, nil
	case MethodCanny:
		return imaging.CannyDetector{Low: c.CannyLow, High: c.CannyHigh}, nil
	case MethodOpenCV:
		d, err := cvbridge.NewEdgeDetector(float32(c.CannyLow), float32(c.CannyHigh))
		if err != nil {
			return nil, fmt.Errorf("edge_method %s: %w", c.EdgeMethod, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown edge_method %q", c.EdgeMethod)
}

// CornerResponder builds the saliency collaborator selected by CornerMethod.
func (c *Config) CornerResponder() (detection.CornerResponder, error) {
	switch c.CornerMethod {
	case MethodHarris:
		return imaging.HarrisResponder{}, nil
	case MethodOpenCV:
		r, err := cvbridge.NewCornerResponder()
		if err != nil {
			return nil, fmt.Errorf("corner_method %s: %w", c.CornerMethod, err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown corner_method %q", c.CornerMethod)
}

// NewDetector returns a detector wired with the collaborators c selects.
func (c *Config) NewDetector() (*detection.Detector, error) {
	d := detection.NewDetector(nil, nil)
	if err := c.Apply(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Apply rewires d with the collaborators c selects. Like
// Detector.SetCollaborators, it must only be called between frames.
func (c *Config) Apply(d *detection.Detector) error {
	edges, err := c.EdgeDetector()
	if err != nil {
		return err
	}
	corners, err := c.CornerResponder()
	if err != nil {
		return err
	}
	d.SetCollaborators(edges, corners)
	return nil
}
