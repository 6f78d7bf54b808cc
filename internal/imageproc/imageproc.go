// Package imageproc prepares decoded images for the classifier and the
// captioning model.
package imageproc

import (
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// ToTensor converts an image to the planar CHW float32 layout the classifier
// expects: resized to targetSize x targetSize, 3 channels, pixel intensities
// scaled to [0,1].
func ToTensor(img image.Image, targetSize int) []float32 {
	resized := resize.Resize(uint(targetSize), uint(targetSize), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	channels := 3
	inputData := make([]float32, channels*width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*width + x
			inputData[pixelIndex] = float32(r) / 65535.0
			inputData[width*height+pixelIndex] = float32(g) / 65535.0
			inputData[2*width*height+pixelIndex] = float32(b) / 65535.0
		}
	}

	return inputData
}

// EnhanceContrast applies histogram equalization on the luminance channel,
// leaving chroma untouched. The captioning model describes low-contrast leaf
// photos noticeably better after equalization.
func EnhanceContrast(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return img
	}

	luma := make([]uint8, width*height)
	var histogram [256]int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			yy, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			luma[y*width+x] = yy
			histogram[yy]++
		}
	}

	// Cumulative distribution of luminance, remapped to the full 0..255 range.
	var lut [256]uint8
	total := width * height
	cumulative := 0
	for i := 0; i < 256; i++ {
		cumulative += histogram[i]
		lut[i] = uint8(cumulative * 255 / total)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			_, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			nr, ng, nb := color.YCbCrToRGB(lut[luma[y*width+x]], cb, cr)
			out.Set(x, y, color.RGBA{R: nr, G: ng, B: nb, A: 255})
		}
	}
	return out
}

// DecodeFile decodes a JPEG or PNG image from disk.
func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// WriteTempJPEG saves an image to a temporary JPEG file and returns its path.
// The caller removes the file when done.
func WriteTempJPEG(img image.Image) (string, error) {
	file, err := os.CreateTemp("", "leafscan-*.jpg")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 90}); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}
