// Package testutil builds decoration buckets for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/youruser/profileart/internal/storage"
)

// TypesJSON registers an always-admit type and a followers-only type.
const TypesJSON = `[
    {"type": "default"},
    {"type": "following", "label": {"text": "followers only", "color": "orange"}}
]`

// PNG encodes a w×h image filled with c.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// CircleMask encodes a size×size grayscale mask, white inside the inscribed
// circle and black outside.
func CircleMask(t testing.TB, size int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
			if dx*dx+dy*dy <= r*r {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding mask: %v", err)
	}
	return buf.Bytes()
}

// FramePNG encodes a w×h overlay: an opaque border of width border around a
// fully transparent center.
func FramePNG(t testing.TB, w, h, border int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < border || y < border || x >= w-border || y >= h-border {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding frame: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data under root at the slash-separated key.
func WriteFile(t testing.TB, root, key string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// Decorations returns a Dir bucket holding:
//
//	default  - default type, circle mask, no overlay
//	crown    - default type, 320×300 frame, no mask (falls back to default)
//	santa    - following type, 300×300 frame and its own mask
func Decorations(t testing.TB) *storage.Dir {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, root, "types.json", []byte(TypesJSON))

	WriteFile(t, root, "default/config.json", []byte(`{"type": "default"}`))
	WriteFile(t, root, "default/mask.png", CircleMask(t, 256))

	WriteFile(t, root, "crown/config.json", []byte(`{"type": "default"}`))
	WriteFile(t, root, "crown/decoration.png", FramePNG(t, 320, 300, 20, color.NRGBA{R: 255, G: 215, A: 255}))

	WriteFile(t, root, "santa/config.json", []byte(`{"type": "following"}`))
	WriteFile(t, root, "santa/decoration.png", FramePNG(t, 300, 300, 10, color.NRGBA{R: 200, A: 255}))
	WriteFile(t, root, "santa/mask.png", PNG(t, 256, 256, color.Gray{Y: 255}))

	return storage.NewDir(root)
}
