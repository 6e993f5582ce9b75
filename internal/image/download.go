package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/util"
)

// ErrImageNotFound marks a 404 from the image source, e.g. an unknown
// username. It always comes wrapped together with errs.ErrUpstreamFetch.
var ErrImageNotFound = errors.New("image not found")

var defaultClient = &http.Client{Timeout: 10 * time.Second}

// DownloadImage downloads an image from url and decodes it. A nil client uses
// a 10s-timeout default.
func DownloadImage(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	if client == nil {
		client = defaultClient
	}
	body, err := util.GetBytes(ctx, client, url)
	if err != nil {
		var se *util.StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w: %w", errs.ErrUpstreamFetch, ErrImageNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstreamFetch, err)
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", errs.ErrUpstreamFetch, url, err)
	}
	return img, nil
}
