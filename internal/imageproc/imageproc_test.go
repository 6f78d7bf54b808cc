package imageproc

import (
	"image"
	"image/color"
	"os"
	"testing"
)

func gradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Confined to a narrow dark band so equalization has room to stretch.
			v := uint8(40 + (x+y)%40)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestToTensorShapeAndRange(t *testing.T) {
	tensor := ToTensor(gradientImage(50, 30), 8)
	if len(tensor) != 3*8*8 {
		t.Fatalf("tensor length = %d, want %d", len(tensor), 3*8*8)
	}
	for i, v := range tensor {
		if v < 0 || v > 1 {
			t.Fatalf("tensor[%d] = %f outside [0,1]", i, v)
		}
	}
}

func TestToTensorPlanarLayout(t *testing.T) {
	// A solid red image must have the first plane near 1 and the others near 0.
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	tensor := ToTensor(img, 4)
	plane := 4 * 4
	if tensor[0] < 0.9 {
		t.Errorf("red plane head = %f, want ~1", tensor[0])
	}
	if tensor[plane] > 0.1 || tensor[2*plane] > 0.1 {
		t.Errorf("green/blue planes = %f/%f, want ~0", tensor[plane], tensor[2*plane])
	}
}

func TestEnhanceContrastStretchesRange(t *testing.T) {
	enhanced := EnhanceContrast(gradientImage(32, 32))
	bounds := enhanced.Bounds()
	minLuma, maxLuma := uint8(255), uint8(0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := enhanced.At(x, y).RGBA()
			luma, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			if luma < minLuma {
				minLuma = luma
			}
			if luma > maxLuma {
				maxLuma = luma
			}
		}
	}
	if maxLuma-minLuma < 100 {
		t.Errorf("equalized luminance range = [%d, %d], expected a wide spread", minLuma, maxLuma)
	}
}

func TestEnhanceContrastDeterministic(t *testing.T) {
	a := EnhanceContrast(gradientImage(16, 16))
	b := EnhanceContrast(gradientImage(16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if a.At(x, y) != b.At(x, y) {
				t.Fatalf("enhancement is not deterministic at (%d,%d)", x, y)
			}
		}
	}
}

func TestWriteTempJPEGRoundTrip(t *testing.T) {
	path, err := WriteTempJPEG(gradientImage(10, 10))
	if err != nil {
		t.Fatalf("WriteTempJPEG failed: %v", err)
	}
	defer os.Remove(path)

	img, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Errorf("decoded dimensions = %dx%d, want 10x10", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
