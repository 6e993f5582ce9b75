package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/youruser/profileart/internal/decoration"
	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/storage"
)

// Compositor clips profile pictures into a decoration's mask and frames them
// with its overlay.
type Compositor struct {
	bucket storage.Bucket
}

func NewCompositor(b storage.Bucket) *Compositor {
	return &Compositor{bucket: b}
}

// Compose returns a new image: src hard-resized to the profile size, clipped
// by the mask, and, when d has an overlay, centered under it on a canvas the
// overlay's size.
func (c *Compositor) Compose(ctx context.Context, d decoration.Descriptor, src image.Image) (*image.NRGBA, error) {
	const size = decoration.ProfileSize

	// aspect ratio is not preserved
	profile := imaging.Resize(src, size, size, imaging.Lanczos)

	maskImg, err := c.loadAsset(ctx, d.Mask)
	if err != nil {
		return nil, err
	}
	masked := applyMask(profile, grayMask(maskImg, size))
	if !d.HasOverlay() {
		return masked, nil
	}

	overlay, err := c.loadAsset(ctx, d.Overlay)
	if err != nil {
		return nil, err
	}
	ob := overlay.Bounds()
	if ob.Dx() < size || ob.Dy() < size {
		return nil, fmt.Errorf("%s is %dx%d, smaller than the %dx%d profile: %w",
			d.Overlay, ob.Dx(), ob.Dy(), size, size, errs.ErrInvalidConfig)
	}

	canvas := imaging.New(ob.Dx(), ob.Dy(), color.NRGBA{})
	offset := image.Pt((ob.Dx()-size)/2, (ob.Dy()-size)/2)
	canvas = imaging.Overlay(canvas, masked, offset, 1.0)
	canvas = imaging.Overlay(canvas, overlay, image.Pt(0, 0), 1.0)
	return canvas, nil
}

func (c *Compositor) loadAsset(ctx context.Context, key string) (image.Image, error) {
	if key == "" {
		return nil, fmt.Errorf("no asset key: %w", errs.ErrAssetMissing)
	}
	raw, err := c.bucket.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", key, errs.ErrAssetMissing, err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", key, errs.ErrAssetMissing, err)
	}
	return img, nil
}

// grayMask converts img to a size×size luminance mask.
func grayMask(img image.Image, size int) *image.Gray {
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = imaging.Resize(img, size, size, imaging.Lanczos)
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return out
}

// applyMask blends src against full transparency weighted by mask: 0 keeps
// nothing of src, 255 keeps all of it. Color channels are left untouched
// since the image is not premultiplied.
func applyMask(src *image.NRGBA, mask *image.Gray) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := out.PixOffset(x, y)
			m := uint32(mask.GrayAt(x, y).Y)
			copy(out.Pix[di:di+3], src.Pix[si:si+3])
			out.Pix[di+3] = uint8(uint32(src.Pix[si+3]) * m / 255)
		}
	}
	return out
}
