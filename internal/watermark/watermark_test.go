package watermark

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func changedPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			if cr != 0 || cg != 0 || cb != 0 {
				n++
			}
		}
	}
	return n
}

func TestApplyStampsBottomRight(t *testing.T) {
	out, err := Apply(solidPNG(t, 512, 512), Options{Text: "possessher-ai.vercel.app"})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	img := decode(t, out)
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 512 {
		t.Fatalf("bounds changed: %v", img.Bounds())
	}
	if changedPixels(img, image.Rect(256, 440, 512, 512)) == 0 {
		t.Fatal("expected watermark pixels in the bottom-right corner")
	}
	if changedPixels(img, image.Rect(0, 0, 256, 256)) != 0 {
		t.Fatal("top-left quadrant should be untouched")
	}
}

func TestApplyWithoutTextReencodes(t *testing.T) {
	out, err := Apply(solidPNG(t, 40, 30), Options{})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	img := decode(t, out)
	if changedPixels(img, img.Bounds()) != 0 {
		t.Fatal("expected untouched pixels")
	}
}

func TestApplySmallImageStillFits(t *testing.T) {
	out, err := Apply(solidPNG(t, 64, 20), Options{Text: "possessher-ai.vercel.app"})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if img := decode(t, out); img.Bounds().Dx() != 64 {
		t.Fatalf("bounds changed: %v", img.Bounds())
	}
}

func TestApplyRejectsGarbage(t *testing.T) {
	if _, err := Apply([]byte("not an image"), Options{Text: "x"}); err == nil {
		t.Fatal("expected decode error")
	}
}
