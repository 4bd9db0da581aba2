package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxWidth is the widest image kept in a note. Wider images are scaled down
// before they are stored, not only when displayed.
const MaxWidth = 500

var ErrUnsupportedImage = errors.New("unsupported image")

// FitWidth returns blob unchanged when its width is at most maxWidth.
// Otherwise it returns the image scaled to maxWidth with the aspect ratio
// kept, re-encoded as JPEG for JPEG sources and PNG for everything else.
func FitWidth(blob []byte, maxWidth int) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= maxWidth {
		return blob, nil
	}

	src, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	height := max(1, cfg.Height*maxWidth/cfg.Width)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if format == "jpeg" {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	} else {
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions reports the width and height of an encoded image.
func Dimensions(blob []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return cfg.Width, cfg.Height, nil
}
