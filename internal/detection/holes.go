package detection

import "image"

// Cell states used while a mask is being filled. Only 0 and 1 survive into
// the finished mask.
const (
	maskBlob       uint8 = 0
	maskInside     uint8 = 1
	maskBackground uint8 = 2
	maskReachable  uint8 = 3
)

// FillHoles builds the filled silhouette of comp.
//
// The mask covers comp.BBox plus one cell of padding on every side. Cells
// carrying comp's label become part of the blob; every other cell is
// background. A 4-connected flood fill from the top-left padding cell marks
// the background reachable from outside. Anything not reached, whether blob
// or enclosed background, ends up as 1; reachable cells end up as 0.
//
// The mask is allocated from arena and is valid until the next call that uses
// the same arena.
//
// An *InvariantError is returned when the number of labelled cells inside the
// bbox differs from comp.PixelCount. That indicates broken label or bbox
// bookkeeping, and the caller must abandon the frame.
func FillHoles(grid *LabelGrid, comp *Component, arena *Arena) (*Mask, error) {
	bbox := comp.BBox
	rows := bbox.Height + 2*gridPadding
	cols := bbox.Width + 2*gridPadding
	mask := arena.Mask(rows, cols, maskBackground)

	label := int32(comp.Label)
	checksum := 0
	r := bbox.Rect()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if grid.At(x, y) != label {
				continue
			}
			m := GridToMask(image.Pt(x, y), bbox)
			mask.Set(m.X, m.Y, maskBlob)
			checksum++
		}
	}
	if checksum != comp.PixelCount {
		return nil, &InvariantError{
			Label:    comp.Label,
			Stage:    "fill holes",
			Expected: comp.PixelCount,
			Actual:   checksum,
		}
	}

	floodExterior(mask)

	for i, v := range mask.Pix {
		if v == maskReachable {
			mask.Pix[i] = 0
		} else {
			mask.Pix[i] = maskInside
		}
	}
	return mask, nil
}

// floodExterior marks every background cell 4-connected to the top-left
// corner as reachable. The corner is padding and therefore always background.
func floodExterior(mask *Mask) {
	cols := mask.Cols
	stack := []int{0}
	mask.Pix[0] = maskReachable

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := idx%cols, idx/cols

		if x > 0 {
			stack = markReachable(mask, idx-1, stack)
		}
		if x < cols-1 {
			stack = markReachable(mask, idx+1, stack)
		}
		if y > 0 {
			stack = markReachable(mask, idx-cols, stack)
		}
		if y < mask.Rows-1 {
			stack = markReachable(mask, idx+cols, stack)
		}
	}
}

func markReachable(mask *Mask, idx int, stack []int) []int {
	if mask.Pix[idx] != maskBackground {
		return stack
	}
	mask.Pix[idx] = maskReachable
	return append(stack, idx)
}
