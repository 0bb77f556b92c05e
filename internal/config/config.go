// Package config holds the detector configuration and loads it from disk.
//
// A configuration file lists one setting per line as a whitespace-separated
// name and value:
//
//	# marker size bounds, as fractions of the frame width
//	min_blob_size 0.05
//	max_blob_size 0.5
//	harris_threshold 200
//
// Blank lines and lines starting with '#' are ignored. Files ending in .toml,
// .yaml or .yml are read as TOML or YAML documents with the same setting
// names as top-level keys. In every format, settings missing from the file
// keep their defaults and unknown names are rejected.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/glyph-detect-mcp/internal/detection"
)

// Edge and corner collaborator names.
const (
	MethodSobel  = "sobel"
	MethodCanny  = "canny"
	MethodHarris = "harris"
	MethodOpenCV = "opencv"
)

// Config is an immutable snapshot of every tunable. A new snapshot replaces
// the old one between frames; a Config is never modified once in use.
type Config struct {
	// FrameResizeFactor scales frames before detection.
	FrameResizeFactor float64 `json:"frame_resize_factor" toml:"frame_resize_factor" yaml:"frame_resize_factor"`

	// EdgeMethod selects the gradient collaborator: sobel, canny or opencv.
	EdgeMethod string `json:"edge_method" toml:"edge_method" yaml:"edge_method"`

	EdgeBlurRadius   float64 `json:"edge_blur_radius" toml:"edge_blur_radius" yaml:"edge_blur_radius"`
	EdgeThreshold    int     `json:"edge_threshold" toml:"edge_threshold" yaml:"edge_threshold"`
	EdgeDilateRadius float64 `json:"edge_dilate_radius" toml:"edge_dilate_radius" yaml:"edge_dilate_radius"`
	CannyLow         int     `json:"canny_low" toml:"canny_low" yaml:"canny_low"`
	CannyHigh        int     `json:"canny_high" toml:"canny_high" yaml:"canny_high"`

	// CornerMethod selects the saliency collaborator: harris or opencv.
	CornerMethod string `json:"corner_method" toml:"corner_method" yaml:"corner_method"`

	MinBlobSize      float64 `json:"min_blob_size" toml:"min_blob_size" yaml:"min_blob_size"`
	MaxBlobSize      float64 `json:"max_blob_size" toml:"max_blob_size" yaml:"max_blob_size"`
	HarrisBlockSize  int     `json:"harris_block_size" toml:"harris_block_size" yaml:"harris_block_size"`
	HarrisAperture   int     `json:"harris_aperture" toml:"harris_aperture" yaml:"harris_aperture"`
	HarrisK          float64 `json:"harris_k" toml:"harris_k" yaml:"harris_k"`
	HarrisThreshold  float64 `json:"harris_threshold" toml:"harris_threshold" yaml:"harris_threshold"`
	MergeDistance    float64 `json:"merge_distance" toml:"merge_distance" yaml:"merge_distance"`
	SnapSearchFactor float64 `json:"snap_search_factor" toml:"snap_search_factor" yaml:"snap_search_factor"`
	SnapWindowSize   int     `json:"snap_window_size" toml:"snap_window_size" yaml:"snap_window_size"`
}

// Default returns a configuration with default values.
func Default() *Config {
	p := detection.DefaultParams()
	return &Config{
		FrameResizeFactor: 1.0,
		EdgeMethod:        MethodSobel,
		EdgeBlurRadius:    1.0,
		EdgeThreshold:     64,
		EdgeDilateRadius:  0,
		CannyLow:          50,
		CannyHigh:         150,
		CornerMethod:      MethodHarris,
		MinBlobSize:       p.MinBlobSize,
		MaxBlobSize:       p.MaxBlobSize,
		HarrisBlockSize:   p.Corners.BlockSize,
		HarrisAperture:    p.Corners.Aperture,
		HarrisK:           p.Corners.K,
		HarrisThreshold:   p.Corners.Threshold,
		MergeDistance:     p.MergeDistance,
		SnapSearchFactor:  p.Snap.SearchFactor,
		SnapWindowSize:    p.Snap.WindowSize,
	}
}

// Load reads, parses and validates a configuration file. The format is
// chosen by the file extension.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cfg, err = ParseTOML(f)
	case ".yaml", ".yml":
		cfg, err = ParseYAML(f)
	default:
		cfg, err = Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseTOML reads a TOML document on top of the defaults and validates the
// result.
func ParseTOML(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown setting %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML reads a YAML document on top of the defaults and validates the
// result. An empty document leaves every default in place.
func ParseYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads settings from r on top of the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"name value\", got %q", line, text)
		}
		if err := cfg.Set(fields[0], fields[1]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Set assigns one setting by name. The value is parsed according to the
// setting's type but not validated; call Validate afterwards.
func (c *Config) Set(name, value string) error {
	var err error
	switch name {
	case "frame_resize_factor":
		c.FrameResizeFactor, err = parseFloat(value)
	case "edge_method":
		c.EdgeMethod = value
	case "edge_blur_radius":
		c.EdgeBlurRadius, err = parseFloat(value)
	case "edge_threshold":
		c.EdgeThreshold, err = strconv.Atoi(value)
	case "edge_dilate_radius":
		c.EdgeDilateRadius, err = parseFloat(value)
	case "canny_low":
		c.CannyLow, err = strconv.Atoi(value)
	case "canny_high":
		c.CannyHigh, err = strconv.Atoi(value)
	case "corner_method":
		c.CornerMethod = value
	case "min_blob_size":
		c.MinBlobSize, err = parseFloat(value)
	case "max_blob_size":
		c.MaxBlobSize, err = parseFloat(value)
	case "harris_block_size":
		c.HarrisBlockSize, err = strconv.Atoi(value)
	case "harris_aperture":
		c.HarrisAperture, err = strconv.Atoi(value)
	case "harris_k":
		c.HarrisK, err = parseFloat(value)
	case "harris_threshold":
		c.HarrisThreshold, err = parseFloat(value)
	case "merge_distance":
		c.MergeDistance, err = parseFloat(value)
	case "snap_search_factor":
		c.SnapSearchFactor, err = parseFloat(value)
	case "snap_window_size":
		c.SnapWindowSize, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	if err != nil {
		return fmt.Errorf("%s: invalid value %q", name, value)
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// Validate checks every setting and reports the first invalid one.
func (c *Config) Validate() error {
	if c.FrameResizeFactor <= 0 {
		return fmt.Errorf("frame_resize_factor must be positive")
	}

	switch c.EdgeMethod {
	case MethodSobel, MethodCanny, MethodOpenCV:
	default:
		return fmt.Errorf("edge_method must be one of sobel, canny, opencv")
	}
	if c.EdgeBlurRadius < 0 {
		return fmt.Errorf("edge_blur_radius must not be negative")
	}
	if c.EdgeThreshold < 1 || c.EdgeThreshold > 255 {
		return fmt.Errorf("edge_threshold must be between 1 and 255")
	}
	if c.EdgeDilateRadius < 0 {
		return fmt.Errorf("edge_dilate_radius must not be negative")
	}
	if c.CannyLow < 0 || c.CannyHigh > 255 || c.CannyLow > c.CannyHigh {
		return fmt.Errorf("canny_low and canny_high must satisfy 0 <= low <= high <= 255")
	}

	switch c.CornerMethod {
	case MethodHarris, MethodOpenCV:
	default:
		return fmt.Errorf("corner_method must be one of harris, opencv")
	}

	if c.MinBlobSize <= 0 || c.MinBlobSize > 1 {
		return fmt.Errorf("min_blob_size must be in (0, 1]")
	}
	if c.MaxBlobSize <= 0 || c.MaxBlobSize > 1 {
		return fmt.Errorf("max_blob_size must be in (0, 1]")
	}
	if c.MinBlobSize > c.MaxBlobSize {
		return fmt.Errorf("min_blob_size must not exceed max_blob_size")
	}
	if c.HarrisBlockSize < 2 {
		return fmt.Errorf("harris_block_size must be at least 2")
	}
	if c.HarrisAperture != 3 && c.HarrisAperture != 5 {
		return fmt.Errorf("harris_aperture must be 3 or 5")
	}
	if c.HarrisK <= 0 || c.HarrisK >= 0.25 {
		return fmt.Errorf("harris_k must be in (0, 0.25)")
	}
	if c.HarrisThreshold < 0 || c.HarrisThreshold > 255 {
		return fmt.Errorf("harris_threshold must be between 0 and 255")
	}
	if c.MergeDistance <= 0 {
		return fmt.Errorf("merge_distance must be positive")
	}
	if c.SnapSearchFactor <= 0 || c.SnapSearchFactor > 1 {
		return fmt.Errorf("snap_search_factor must be in (0, 1]")
	}
	if c.SnapWindowSize < 1 || c.SnapWindowSize%2 == 0 {
		return fmt.Errorf("snap_window_size must be a positive odd number")
	}
	return nil
}

// Params returns the per-frame detector parameters of c.
func (c *Config) Params() detection.Params {
	return detection.Params{
		MinBlobSize: c.MinBlobSize,
		MaxBlobSize: c.MaxBlobSize,
		Corners: detection.CornerParams{
			BlockSize: c.HarrisBlockSize,
			Aperture:  c.HarrisAperture,
			K:         c.HarrisK,
			Threshold: c.HarrisThreshold,
		},
		MergeDistance: c.MergeDistance,
		Snap: detection.SnapParams{
			SearchFactor: c.SnapSearchFactor,
			WindowSize:   c.SnapWindowSize,
		},
	}
}

// Clone returns a copy of c that can be modified without affecting c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
