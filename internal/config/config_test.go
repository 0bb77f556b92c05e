package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/glyph-detect-mcp/internal/detection"
)

// writeConfig writes content to name in the test's temp dir.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Params() != detection.DefaultParams() {
		t.Errorf("default params: got %+v, want %+v", cfg.Params(), detection.DefaultParams())
	}
}

func TestParse(t *testing.T) {
	input := `
# marker size bounds
min_blob_size 0.1
max_blob_size   0.4

edge_method canny
snap_window_size 5
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.MinBlobSize != 0.1 || cfg.MaxBlobSize != 0.4 {
		t.Errorf("blob sizes: got %v, %v", cfg.MinBlobSize, cfg.MaxBlobSize)
	}
	if cfg.EdgeMethod != MethodCanny || cfg.SnapWindowSize != 5 {
		t.Errorf("got %+v", cfg)
	}
	if cfg.HarrisK != Default().HarrisK {
		t.Error("settings missing from the file should keep their defaults")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"unknown setting", "marker_colour red", "unknown setting"},
		{"missing value", "merge_distance", "line 1"},
		{"extra field", "merge_distance 4 5", "line 1"},
		{"bad number", "\nharris_k abc", "line 2"},
		{"invalid after parse", "min_blob_size 0.6", "min_blob_size must not exceed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"resize factor", func(c *Config) { c.FrameResizeFactor = 0 }},
		{"edge method", func(c *Config) { c.EdgeMethod = "laplace" }},
		{"blur radius", func(c *Config) { c.EdgeBlurRadius = -1 }},
		{"edge threshold low", func(c *Config) { c.EdgeThreshold = 0 }},
		{"edge threshold high", func(c *Config) { c.EdgeThreshold = 256 }},
		{"dilate radius", func(c *Config) { c.EdgeDilateRadius = -0.5 }},
		{"canny order", func(c *Config) { c.CannyLow, c.CannyHigh = 100, 50 }},
		{"corner method", func(c *Config) { c.CornerMethod = "fast" }},
		{"min blob", func(c *Config) { c.MinBlobSize = 0 }},
		{"max blob", func(c *Config) { c.MaxBlobSize = 1.5 }},
		{"block size", func(c *Config) { c.HarrisBlockSize = 1 }},
		{"aperture", func(c *Config) { c.HarrisAperture = 7 }},
		{"harris k", func(c *Config) { c.HarrisK = 0.3 }},
		{"harris threshold", func(c *Config) { c.HarrisThreshold = 300 }},
		{"merge distance", func(c *Config) { c.MergeDistance = 0 }},
		{"search factor", func(c *Config) { c.SnapSearchFactor = 2 }},
		{"even window", func(c *Config) { c.SnapWindowSize = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

func TestSet(t *testing.T) {
	cfg := Default()
	settings := map[string]string{
		"frame_resize_factor": "0.5",
		"edge_method":         "canny",
		"edge_blur_radius":    "2",
		"edge_threshold":      "80",
		"edge_dilate_radius":  "1",
		"canny_low":           "20",
		"canny_high":          "90",
		"corner_method":       "harris",
		"min_blob_size":       "0.1",
		"max_blob_size":       "0.9",
		"harris_block_size":   "4",
		"harris_aperture":     "5",
		"harris_k":            "0.06",
		"harris_threshold":    "150",
		"merge_distance":      "3",
		"snap_search_factor":  "0.3",
		"snap_window_size":    "7",
	}
	for name, value := range settings {
		if err := cfg.Set(name, value); err != nil {
			t.Fatalf("Set(%s, %s): %v", name, value, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := detection.Params{
		MinBlobSize:   0.1,
		MaxBlobSize:   0.9,
		Corners:       detection.CornerParams{BlockSize: 4, Aperture: 5, K: 0.06, Threshold: 150},
		MergeDistance: 3,
		Snap:          detection.SnapParams{SearchFactor: 0.3, WindowSize: 7},
	}
	if cfg.Params() != want {
		t.Errorf("Params: got %+v, want %+v", cfg.Params(), want)
	}

	if err := cfg.Set("edge_threshold", "high"); err == nil {
		t.Error("non-numeric value should fail")
	}
}

func TestClone(t *testing.T) {
	orig := Default()
	cp := orig.Clone()
	cp.MergeDistance = 42
	if orig.MergeDistance == 42 {
		t.Error("Clone shares state with the original")
	}
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"line format", "detector.conf", "merge_distance 7\ncorner_method harris\n"},
		{"toml", "detector.toml", "merge_distance = 7.0\ncorner_method = \"harris\"\n"},
		{"yaml", "detector.yaml", "merge_distance: 7\ncorner_method: harris\n"},
		{"yml", "detector.YML", "merge_distance: 7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.MergeDistance != 7 {
				t.Errorf("merge_distance: got %v, want 7", cfg.MergeDistance)
			}
			if cfg.SnapWindowSize != Default().SnapWindowSize {
				t.Error("unset settings should keep their defaults")
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"toml unknown key", "d.toml", "marker_colour = \"red\"\n", "unknown setting"},
		{"toml syntax", "d.toml", "merge_distance = \n", "invalid TOML"},
		{"toml invalid value", "d.toml", "harris_aperture = 4\n", "harris_aperture"},
		{"yaml unknown key", "d.yaml", "marker_colour: red\n", "invalid YAML"},
		{"yaml wrong type", "d.yaml", "snap_window_size: wide\n", "invalid YAML"},
		{"yaml invalid value", "d.yml", "min_blob_size: 0\n", "min_blob_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) || !strings.Contains(err.Error(), path) {
				t.Errorf("error %q should name %q and the file", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *cfg != *Default() {
		t.Error("an empty document should leave the defaults")
	}
}
