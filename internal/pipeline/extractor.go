package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/kozaktomas/face-tagger/internal/recognition"
)

// Extractor decodes an image asset, detects face regions and crops them into
// independent buffers for identity search.
type Extractor struct {
	detector recognition.FaceDetector
}

// NewExtractor creates an extractor using the given face detector.
func NewExtractor(detector recognition.FaceDetector) *Extractor {
	return &Extractor{detector: detector}
}

// Detect decodes the asset and returns the decoded image together with all
// detected face regions. An image with zero faces yields an empty slice, not
// an error.
func (e *Extractor) Detect(ctx context.Context, asset *ImageAsset) (image.Image, []recognition.FaceRegion, error) {
	data, err := asset.Bytes(ctx)
	if err != nil {
		return nil, nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s (%s): %v", ErrDecode, asset.Key, asset.MimeType, err)
	}

	regions, err := e.detector.DetectFaces(ctx, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	return img, regions, nil
}

// cropFormat maps the source mime type to the crop encoding. Png stays png;
// everything else deliberately defaults to jpeg, matching the historic
// behavior for sources that slipped past the mime type check.
func cropFormat(mimeType string) string {
	if mimeType == "image/png" {
		return "png"
	}
	return "jpeg"
}

// CropFace cuts one face region out of the decoded image and re-encodes it
// in the source format. Fractional coordinates are converted to pixels by
// truncation. Returns nil when the crop geometry falls outside the image or
// produces an empty buffer; a bad crop is logged and must not abort the
// other faces of the same image.
func (e *Extractor) CropFace(img image.Image, region recognition.FaceRegion, mimeType string) []byte {
	bounds := img.Bounds()
	imgWidth := bounds.Dx()
	imgHeight := bounds.Dy()

	left := int(region.Left * float64(imgWidth))
	top := int(region.Top * float64(imgHeight))
	width := int(region.Width * float64(imgWidth))
	height := int(region.Height * float64(imgHeight))

	rect := image.Rect(left, top, left+width, top+height).Add(bounds.Min)
	if rect.Empty() || !rect.In(bounds) {
		slog.Warn("invalid face crop geometry, skipping face",
			"rect", rect.String(), "image", bounds.String())
		return nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Copy(crop, image.Point{}, img, rect, draw.Src, nil)

	var buf bytes.Buffer
	var err error
	if cropFormat(mimeType) == "png" {
		err = png.Encode(&buf, crop)
	} else {
		err = jpeg.Encode(&buf, crop, &jpeg.Options{Quality: 85})
	}
	if err != nil || buf.Len() == 0 {
		slog.Warn("could not encode face crop, skipping face", "error", err)
		return nil
	}
	return buf.Bytes()
}
