// Package imaging provides frame handling and the image-processing
// collaborators of the marker detector.
//
// It covers everything around the detection core that works on pixels rather
// than on components: decoding and caching frames, converting them to
// single-channel 8-bit images, producing edge masks, computing corner
// saliency, and cropping or encoding images for the MCP tools.
//
// # Collaborators
//
// The detection package depends only on two small interfaces. This package
// supplies pure Go implementations of both:
//
//   - SobelDetector: Sobel magnitude between a bild Gaussian blur and bild
//     dilation and thresholding. Thick edges close marker outlines reliably.
//     This is the default.
//   - CannyDetector: thin, hysteresis-thresholded edges for clean input.
//   - HarrisResponder: Harris corner response with OpenCV-compatible borders.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. Frames
// returned by PrepareFrame always start at (0,0), whatever the bounds of the
// decoded image.
//
// # Thread Safety
//
// ImageCache and FileSequence are safe for concurrent use. The detectors and
// the responder hold no state and can be shared freely.
package imaging
