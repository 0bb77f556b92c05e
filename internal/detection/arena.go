package detection

import "image"

// Mask is a component's filled silhouette in mask-local coordinates.
//
// After hole filling, 1 marks cells inside the silhouette (original pixels and
// enclosed holes) and 0 marks exterior cells reachable from the mask border.
// The outer ring of cells is padding and is always 0.
type Mask struct {
	Rows int
	Cols int
	Pix  []uint8
}

// At returns the value at mask position (x, y).
func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Cols+x]
}

// Set stores v at mask position (x, y).
func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Cols+x] = v
}

// Clone returns a copy of m that does not share the arena buffer.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Rows: m.Rows, Cols: m.Cols, Pix: pix}
}

// Gray renders the mask as an 8-bit image with inside cells at 255, which is
// the form the corner saliency collaborator consumes.
func (m *Mask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Cols, m.Rows))
	for i, v := range m.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// Arena is the scratch buffer backing every filled mask of one frame.
//
// Each call to Mask hands out a view over the same buffer, so a mask is only
// valid until the next call. The controller owns the arena for the duration of
// a frame and processes one component at a time.
type Arena struct {
	buf    []uint8
	issued int
}

// NewArena returns an arena able to hold a mask for any component of a frame
// of the given size without growing.
func NewArena(frameHeight, frameWidth int) *Arena {
	a := &Arena{}
	a.Reserve(frameHeight, frameWidth)
	return a
}

// Reserve grows the arena so that it can hold the largest possible mask for
// a frame of the given size: a frame-sized bbox plus the mask's own padding.
func (a *Arena) Reserve(frameHeight, frameWidth int) {
	n := (frameHeight + 2*gridPadding) * (frameWidth + 2*gridPadding)
	if cap(a.buf) < n {
		a.buf = make([]uint8, n)
	}
}

// issuedCount returns the number of masks handed out so far.
func (a *Arena) issuedCount() int {
	return a.issued
}

// Mask returns a rows×cols mask with every cell set to fill. Only the cells of
// the returned mask are reset; the rest of the buffer is left as it was.
func (a *Arena) Mask(rows, cols int, fill uint8) *Mask {
	n := rows * cols
	if cap(a.buf) < n {
		a.buf = make([]uint8, n)
	}
	a.issued++
	pix := a.buf[:n]
	for i := range pix {
		pix[i] = fill
	}
	return &Mask{Rows: rows, Cols: cols, Pix: pix}
}
