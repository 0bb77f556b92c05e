package imaging

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"sync"

	"github.com/disintegration/imaging"
)

// PrepareFrame converts an arbitrary image into the single-channel 8-bit frame
// the detector consumes.
//
// When resizeFactor is not 1 the image is first scaled by that factor with a
// Linear filter; detection then runs at the reduced resolution, and all
// vertices are in the coordinates of the resized frame. The returned frame
// always has its origin at (0,0).
func PrepareFrame(img image.Image, resizeFactor float64) *image.Gray {
	src := img
	if resizeFactor > 0 && resizeFactor != 1 {
		b := img.Bounds()
		w := int(math.Round(float64(b.Dx()) * resizeFactor))
		h := int(math.Round(float64(b.Dy()) * resizeFactor))
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		src = imaging.Resize(img, w, h, imaging.Linear)
	}

	if g, ok := src.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}

	nrgba := imaging.Grayscale(src)
	b := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), nrgba, b.Min, draw.Src)
	return gray
}

// FileSequence is a frame source reading image files in order.
//
// It stands in for a camera: each call to Next decodes the next file, converts
// it with PrepareFrame, and returns it. With Loop set the sequence restarts
// after the last file instead of returning io.EOF.
//
// FileSequence is safe for concurrent use, although frames are handed out
// strictly one at a time.
type FileSequence struct {
	Paths        []string
	ResizeFactor func() float64
	Loop         bool

	mu    sync.Mutex
	next  int
	cache *ImageCache
}

// NewFileSequence returns a source over paths using cache for decoding.
// A nil cache disables caching.
func NewFileSequence(paths []string, cache *ImageCache) *FileSequence {
	return &FileSequence{Paths: paths, cache: cache}
}

// Next returns the next frame, or io.EOF once every path has been read and
// Loop is false.
func (s *FileSequence) Next(ctx context.Context) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if len(s.Paths) == 0 {
		s.mu.Unlock()
		return nil, io.EOF
	}
	if s.next >= len(s.Paths) {
		if !s.Loop {
			s.mu.Unlock()
			return nil, io.EOF
		}
		s.next = 0
	}
	path := s.Paths[s.next]
	s.next++
	s.mu.Unlock()

	var (
		img image.Image
		err error
	)
	if s.cache != nil {
		img, err = s.cache.Load(path)
	} else {
		img, err = decodeFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", path, err)
	}

	factor := 1.0
	if s.ResizeFactor != nil {
		factor = s.ResizeFactor()
	}
	return PrepareFrame(img, factor), nil
}

// Current returns the path of the most recently returned frame.
func (s *FileSequence) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 || len(s.Paths) == 0 {
		return ""
	}
	return s.Paths[s.next-1]
}
