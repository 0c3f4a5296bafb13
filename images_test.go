package folio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestProcessImageResizesWideImages(t *testing.T) {
	meta, data, err := processImage(pngOf(t, 1600, 400), "My Photo.png")
	if err != nil {
		t.Fatalf("processImage failed: %v", err)
	}
	if meta.Width != 800 || meta.Height != 200 {
		t.Fatalf("size = %dx%d, want 800x200", meta.Width, meta.Height)
	}
	if meta.Filename != "my-photo.jpg" || meta.OriginalName != "My Photo.png" {
		t.Errorf("names = %q, %q", meta.Filename, meta.OriginalName)
	}
	if meta.Size != len(data) {
		t.Errorf("Size = %d, want %d", meta.Size, len(data))
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 800 || b.Dy() != 200 {
		t.Errorf("decoded size = %dx%d, want 800x200", b.Dx(), b.Dy())
	}
}

func TestProcessImageKeepsNarrowImages(t *testing.T) {
	meta, _, err := processImage(pngOf(t, 320, 240), "!!!.png")
	if err != nil {
		t.Fatalf("processImage failed: %v", err)
	}
	if meta.Width != 320 || meta.Height != 240 {
		t.Errorf("size = %dx%d, want 320x240", meta.Width, meta.Height)
	}
	if meta.Filename != "image.jpg" {
		t.Errorf("Filename = %q, want image.jpg", meta.Filename)
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	if _, _, err := processImage(strings.NewReader("not an image"), "x.png"); err == nil {
		t.Fatal("expected a decode error")
	}
}
