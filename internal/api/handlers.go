// Package api serves decorated avatars, the selection table and the visitor
// banner over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/profileart/internal/decoration"
	"github.com/youruser/profileart/internal/errs"
	imagepkg "github.com/youruser/profileart/internal/image"
	"github.com/youruser/profileart/internal/policy"
	"github.com/youruser/profileart/internal/table"
	"github.com/youruser/profileart/internal/visits"
)

// Avatars resolves and fetches profile pictures.
type Avatars interface {
	AvatarURL(user string) string
	HTTPClient() *http.Client
}

// Deps are the collaborators the handlers need. Banner and Visits may be nil,
// in which case the banner route answers 404.
type Deps struct {
	Policies   *policy.Table
	Loader     *decoration.Loader
	Gate       *decoration.Gate
	Compositor *imagepkg.Compositor
	Table      *table.Builder
	Avatars    Avatars
	Banner     *imagepkg.Banner
	Visits     *visits.Flusher
	Cooldown   time.Duration
	Logger     *slog.Logger
}

type Server struct {
	Deps
	logger  *slog.Logger
	metrics *metrics
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Deps: deps, logger: logger, metrics: newMetrics()}
}

const defaultQRSize = 256

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type decorationJSON struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Overlay bool   `json:"overlay"`
	Example string `json:"example"`
	Label   string `json:"label,omitempty"`
}

func (s *Server) listDecorations(c *gin.Context) {
	ds, err := s.Loader.LoadAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]decorationJSON, 0, len(ds))
	for _, d := range ds {
		label, _ := s.Policies.LabelURL(d.Type)
		out = append(out, decorationJSON{
			Name:    d.Name,
			Type:    d.Type,
			Overlay: d.HasOverlay(),
			Example: d.Example,
			Label:   label,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "decorations": out})
}

// decoratedAvatar renders user's avatar with decoration name. The user
// segment may carry a .png suffix so the URL can be embedded as an image.
func (s *Server) decoratedAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")
	user := strings.TrimSuffix(c.Param("user"), ".png")

	img, err := s.render(ctx, name, user)
	if err != nil {
		s.metrics.compositions.WithLabelValues(outcome(err)).Inc()
		s.fail(c, err)
		return
	}
	s.metrics.compositions.WithLabelValues("ok").Inc()
	writePNG(c, img)
}

func (s *Server) render(ctx context.Context, name, user string) (*image.NRGBA, error) {
	d, err := s.Loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, d, user); err != nil {
		return nil, err
	}
	avatar, err := imagepkg.DownloadImage(ctx, s.Avatars.HTTPClient(), s.Avatars.AvatarURL(user))
	if err != nil {
		return nil, err
	}
	defer s.metrics.observeCompose(time.Now())
	return s.Compositor.Compose(ctx, d, avatar)
}

// qrHandler encodes the request link of a decoration as a QR code.
func (s *Server) qrHandler(c *gin.Context) {
	name := c.Param("name")
	ok, err := s.Loader.Registry().Has(c.Request.Context(), name)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "decoration not found"})
		return
	}
	size := defaultQRSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
			return
		}
		size = n
	}
	b, err := imagepkg.LinkQR(s.Table.RedirectURL(name), size)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

func (s *Server) tableHandler(c *gin.Context) {
	ds, err := s.Loader.LoadAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(s.Table.Build(ds).HTML()))
}

// bannerHandler counts the visitor (at most once per cooldown window) and
// draws how many visits came before.
func (s *Server) bannerHandler(c *gin.Context) {
	if s.Banner == nil || s.Visits == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "banner disabled"})
		return
	}
	before := s.Visits.Store().Total()
	if _, counted := s.Visits.RecordIfCooled(c.ClientIP(), s.Cooldown); counted {
		s.metrics.visits.Inc()
	}
	s.metrics.banners.Inc()
	c.Header("Cache-Control", "no-cache, max-age=0")
	writePNG(c, s.Banner.Render(before))
}

func writePNG(c *gin.Context, img image.Image) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, imagepkg.ErrImageNotFound), errors.Is(err, errs.ErrUnknownUser):
		return http.StatusNotFound, "unknown user"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "decoration not found"
	case errors.Is(err, errs.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, errs.ErrUpstreamFetch):
		return http.StatusBadGateway, "upstream fetch failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func outcome(err error) string {
	switch code, _ := statusFor(err); code {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "denied"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		return "error"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code, msg := statusFor(err)
	_ = c.Error(err)
	c.JSON(code, gin.H{"error": msg})
}
