package imagepkg

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	bannerWidth  = 800
	bannerHeight = 400
)

var (
	bannerBackground = color.NRGBA{R: 0x0d, G: 0x11, B: 0x17, A: 0xff}
	bannerMain       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	bannerBold       = color.NRGBA{R: 0xd1, G: 0x1c, B: 0x1c, A: 0xff}
)

// Banner renders the "people have visited this page" profile banner.
type Banner struct {
	base    image.Image
	h1      font.Face
	h2      font.Face
	regular font.Face
}

// NewBanner prepares the fonts once. A nil base draws on a plain dark canvas.
func NewBanner(base image.Image) (*Banner, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing banner font: %w", err)
	}
	face := func(size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	}
	b := &Banner{base: base}
	if b.h1, err = face(50); err != nil {
		return nil, err
	}
	if b.h2, err = face(40); err != nil {
		return nil, err
	}
	if b.regular, err = face(25); err != nil {
		return nil, err
	}
	return b, nil
}

// Render draws a fresh banner showing visitors. It does not modify b.
func (b *Banner) Render(visitors int) *image.NRGBA {
	var img *image.NRGBA
	if b.base != nil {
		img = imaging.Clone(b.base)
	} else {
		img = imaging.New(bannerWidth, bannerHeight, bannerBackground)
	}
	cx := img.Bounds().Dx() / 2

	drawLines(img, b.h1, bannerMain, cx, 150, "Welcome to my", "GitHub profile!")
	drawLines(img, b.h2, bannerBold, cx, 280, strconv.Itoa(visitors)+" people")
	drawLines(img, b.regular, bannerMain, cx, 310, "have visited this page", "before you did.")
	return img
}

// drawLines draws lines horizontally centered on cx with the first baseline
// at y and no extra line spacing.
func drawLines(dst *image.NRGBA, face font.Face, c color.Color, cx, y int, lines ...string) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	height := face.Metrics().Height
	baseline := fixed.I(y)
	for _, line := range lines {
		width := d.MeasureString(line)
		d.Dot = fixed.Point26_6{X: fixed.I(cx) - width/2, Y: baseline}
		d.DrawString(line)
		baseline += height
	}
}
