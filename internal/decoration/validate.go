package decoration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/storage"
)

// ProfileSize is the canonical edge length of a profile picture in pixels.
const ProfileSize = 256

// CheckNames fails when a name is contained in another, which would make any
// lookup by prefix or substring ambiguous.
func CheckNames(names []string) error {
	var problems []error
	for _, a := range names {
		for _, b := range names {
			if a != b && strings.Contains(b, a) {
				problems = append(problems, fmt.Errorf("can't use decoration names %q and %q together", a, b))
			}
		}
	}
	return errors.Join(problems...)
}

// Validate lints every decoration in the loader's bucket: names, configs,
// the default mask and asset dimensions. All problems are reported together.
func Validate(ctx context.Context, l *Loader) error {
	names, err := l.registry.Names(ctx)
	if err != nil {
		return err
	}
	var problems []error
	if err := CheckNames(names); err != nil {
		problems = append(problems, err)
	}

	hasDefault := false
	for _, n := range names {
		if n == DefaultName {
			hasDefault = true
			// every other decoration borrows this mask
			ok, err := l.bucket.Exists(ctx, storage.Key(DefaultName, MaskName))
			if err != nil {
				return err
			}
			if !ok {
				problems = append(problems, fmt.Errorf("default decoration must contain a mask: %w", errs.ErrAssetMissing))
				continue
			}
		}
		d, err := l.load(ctx, n, names)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if !d.HasOverlay() && d.MaskFallback {
			problems = append(problems, fmt.Errorf("no files found for decoration %q: %w", n, errs.ErrAssetMissing))
		}
		if !d.MaskFallback {
			if err := checkSize(ctx, l.bucket, d.Mask, func(b image.Rectangle) bool {
				return b.Dx() == ProfileSize && b.Dy() == ProfileSize
			}, "mask size must match profile picture size"); err != nil {
				problems = append(problems, err)
			}
		}
		if d.HasOverlay() {
			if err := checkSize(ctx, l.bucket, d.Overlay, func(b image.Rectangle) bool {
				return b.Dx() >= ProfileSize && b.Dy() >= ProfileSize
			}, fmt.Sprintf("decoration size must be at least %d", ProfileSize)); err != nil {
				problems = append(problems, err)
			}
		}
	}
	if !hasDefault {
		problems = append(problems, fmt.Errorf("default decoration %q: %w", DefaultName, errs.ErrNotFound))
	}
	return errors.Join(problems...)
}

func checkSize(ctx context.Context, b storage.Bucket, key string, ok func(image.Rectangle) bool, msg string) error {
	raw, err := b.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", key, errs.ErrAssetMissing, err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w: %w", key, errs.ErrAssetMissing, err)
	}
	if !ok(img.Bounds()) {
		return fmt.Errorf("%s: %s (got %dx%d): %w", key, msg, img.Bounds().Dx(), img.Bounds().Dy(), errs.ErrInvalidConfig)
	}
	return nil
}
