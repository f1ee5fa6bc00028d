package htmltext

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Image size limits to prevent memory exhaustion.
const (
	MaxImageWidth  = 4096
	MaxImageHeight = 4096
	MaxImageBytes  = 16 * 1024 * 1024 // uncompressed RGBA
)

// ImageSize returns the natural size of an encoded image.
func ImageSize(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	if err := checkImageLimits(cfg.Width, cfg.Height); err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// DecodeImage decodes a full image, enforcing the same limits as ImageSize.
func DecodeImage(data []byte) (image.Image, error) {
	if _, _, err := ImageSize(data); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func checkImageLimits(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image has no pixels: %dx%d", width, height)
	}
	if width > MaxImageWidth || height > MaxImageHeight {
		return fmt.Errorf("image too large: %dx%d (max %dx%d)",
			width, height, MaxImageWidth, MaxImageHeight)
	}
	if size := width * height * 4; size > MaxImageBytes {
		return fmt.Errorf("image uncompressed size exceeds limit: %d bytes (max %d bytes)",
			size, MaxImageBytes)
	}
	return nil
}

// displaySize scales a natural size to the requested width, keeping the
// aspect ratio. A zero request keeps the natural size.
func displaySize(naturalW, naturalH, requestedW int) (int, int) {
	if requestedW <= 0 || naturalW <= 0 {
		return naturalW, naturalH
	}
	h := int(math.Round(float64(naturalH) * float64(requestedW) / float64(naturalW)))
	if h < 1 {
		h = 1
	}
	return requestedW, h
}

// lineBreaksFor returns how many line breaks of lineHeight clear height.
func lineBreaksFor(height int, lineHeight float64) int {
	if lineHeight <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(float64(height)/lineHeight)))
}
