package detection

import (
	"image"
	"testing"
)

// maskFromRows builds an edge mask from text rows: '#' is an edge pixel and
// any other character is a non-edge pixel.
func maskFromRows(rows ...string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

func TestLabel_Components(t *testing.T) {
	edges := maskFromRows(
		"..#..",
		"..#..",
		"#####",
		"....#",
	)
	grid, comps := Label(edges)

	if grid.Rows != 6 || grid.Cols != 7 {
		t.Fatalf("grid size: got %dx%d, want 7x6", grid.Cols, grid.Rows)
	}

	want := []Component{
		{Label: 0, Origin: image.Pt(1, 1), BBox: Box{X: 1, Y: 1, Width: 2, Height: 2}, PixelCount: 4},
		{Label: 1, Origin: image.Pt(4, 1), BBox: Box{X: 4, Y: 1, Width: 2, Height: 2}, PixelCount: 4},
		{Label: 2, Origin: image.Pt(1, 4), BBox: Box{X: 1, Y: 4, Width: 4, Height: 1}, PixelCount: 4},
	}
	if len(comps) != len(want) {
		t.Fatalf("got %d components, want %d", len(comps), len(want))
	}
	for i, w := range want {
		c := comps[i]
		if c.Label != w.Label || c.Origin != w.Origin || c.BBox != w.BBox || c.PixelCount != w.PixelCount {
			t.Errorf("component %d: got %+v, want %+v", i, c, w)
		}
		if n := grid.Count(int32(w.Label)); n != w.PixelCount {
			t.Errorf("component %d: grid holds %d cells, want %d", i, n, w.PixelCount)
		}
	}

	if n := grid.Count(Target); n != 0 {
		t.Errorf("%d cells left as Target", n)
	}
	// Padding ring and edge pixels stay Unvisited.
	for x := 0; x < grid.Cols; x++ {
		if grid.At(x, 0) != Unvisited || grid.At(x, grid.Rows-1) != Unvisited {
			t.Fatalf("padding cell in column %d was labelled", x)
		}
	}
	if g := FrameToGrid(image.Pt(2, 0)); grid.At(g.X, g.Y) != Unvisited {
		t.Error("edge pixel was labelled")
	}
}

func TestLabel_FourConnectivity(t *testing.T) {
	_, comps := Label(maskFromRows(
		".#",
		"#.",
	))
	if len(comps) != 2 {
		t.Fatalf("diagonal pixels: got %d components, want 2", len(comps))
	}
}

func TestLabel_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		rows      []string
		wantCount int
		wantBox   Box
	}{
		{"all edges", []string{"###", "###"}, 0, Box{}},
		{"no edges", []string{"...", "..."}, 1, Box{X: 1, Y: 1, Width: 3, Height: 2}},
		{"single pixel", []string{"###", "#.#", "###"}, 1, Box{X: 2, Y: 2, Width: 1, Height: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, comps := Label(maskFromRows(tt.rows...))
			if comps == nil {
				t.Fatal("components should never be nil")
			}
			if len(comps) != tt.wantCount {
				t.Fatalf("got %d components, want %d", len(comps), tt.wantCount)
			}
			if tt.wantCount > 0 && comps[0].BBox != tt.wantBox {
				t.Errorf("bbox: got %+v, want %+v", comps[0].BBox, tt.wantBox)
			}
		})
	}
}

func TestLabel_FreshGridPerFrame(t *testing.T) {
	edges := maskFromRows("..#..")
	g1, _ := Label(edges)
	g2, _ := Label(edges)
	if &g1.Cells[0] == &g2.Cells[0] {
		t.Error("consecutive frames share a label grid")
	}
}
