package analyzer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Silhouette is the segmentation output for one image: the external contours
// of the binary foreground mask at canonical resolution.
type Silhouette struct {
	Contours  []Contour
	Width     int
	Height    int
	Threshold uint8
}

// DecodeImage parses JPEG or PNG bytes. Images whose header declares more
// than maxPixels pixels are rejected before any pixel data is decoded; a
// non-positive maxPixels disables the check. With autoOrient the EXIF
// orientation tag is applied.
func DecodeImage(data []byte, autoOrient bool, maxPixels int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has zero size")
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("image is %dx%d, more than %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ExtractSilhouette resizes img to size x size, converts it to grayscale,
// smooths it with a blurKernel x blurKernel Gaussian, binarizes it with an
// Otsu threshold, and returns the outer contours of the foreground. A
// blurKernel below 3 skips smoothing. img is not modified.
func ExtractSilhouette(img image.Image, size, blurKernel int) (Silhouette, error) {
	resized := imaging.Resize(img, size, size, imaging.CatmullRom)

	rgb, err := gocv.NewMatFromBytes(size, size, gocv.MatTypeCV8UC3, packRGB(resized))
	if err != nil {
		return Silhouette{}, fmt.Errorf("failed to load pixels: %w", err)
	}
	defer rgb.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)

	if blurKernel >= 3 {
		gocv.GaussianBlur(gray, &gray, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)
	}

	binary := gocv.NewMat()
	defer binary.Close()
	threshold := gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	return Silhouette{
		Contours:  externalContours(binary),
		Width:     size,
		Height:    size,
		Threshold: uint8(threshold),
	}, nil
}

// packRGB drops the alpha channel without compositing, the way a plain
// RGB conversion of a transparent PNG does.
func packRGB(src *image.NRGBA) []byte {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			out = append(out, row[x], row[x+1], row[x+2])
		}
	}
	return out
}
