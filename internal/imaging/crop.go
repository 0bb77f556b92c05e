package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage is an image encoded as base64 PNG for transport in a JSON
// result.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Crop extracts the region (x1,y1)-(x2,y2) of img, with (x2,y2) exclusive,
// optionally scaled, and returns it as base64 PNG.
//
// The downstream marker decoder uses this to look at a candidate's area at a
// higher resolution before sampling cells.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*EncodedImage, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return EncodePNG(cropped)
}

// CropAround crops rect grown by margin pixels on every side, clipped to the
// image bounds.
func CropAround(img image.Image, rect image.Rectangle, margin int, scale float64) (*EncodedImage, error) {
	r := rect.Inset(-margin).Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %v does not overlap image bounds %v", rect, img.Bounds())
	}
	return Crop(img, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, scale)
}
