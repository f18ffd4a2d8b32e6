// Package background prepares the optional slide background image.
package background

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
	"github.com/CHuiV123/slidegen/pkg/util"
)

// Image is a transient PNG on disk. Callers must call Cleanup.
type Image struct {
	Path   string
	Width  int
	Height int
}

// DefaultMaxPixels bounds width*height of an accepted image. Decoding and
// the opacity pass each hold a 4-byte-per-pixel copy.
const DefaultMaxPixels = 25_000_000

type Service struct {
	tempDir   string
	maxPixels int64
	now       func() time.Time
	logger    *logger.Logger
}

func New(tempDir string, log *logger.Logger) *Service {
	if tempDir == "" {
		tempDir = "."
	}
	return &Service{
		tempDir:   tempDir,
		maxPixels: DefaultMaxPixels,
		now:       time.Now,
		logger:    log.Named("background"),
	}
}

// WithMaxPixels overrides DefaultMaxPixels. Values below 1 are ignored.
func (s *Service) WithMaxPixels(n int64) *Service {
	if n > 0 {
		s.maxPixels = n
	}
	return s
}

// Prepare decodes a standard base64 image (a data URL prefix is tolerated),
// scales its alpha channel by opacity percent and writes it as a PNG under a
// per-call unique name.
func (s *Service) Prepare(encoded string, opacity int) (*Image, error) {
	if opacity < 0 || opacity > 100 {
		return nil, errors.New(errors.ErrCodeInvalidReq, "opacity must be between 0 and 100")
	}

	// data:image/png;base64,xxxxx
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImage, "failed to decode base64 background image")
	}

	// The header is checked first; decoders allocate from the declared size.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImage, "unsupported background image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > s.maxPixels {
		return nil, errors.New(errors.ErrCodeImage,
			fmt.Sprintf("background image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, s.maxPixels))
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImage, "unsupported background image")
	}

	img := ApplyOpacity(src, opacity)

	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImage, "failed to create temp directory")
	}
	name := fmt.Sprintf("temp_bg_%s_%s.png", util.Timestamp(s.now()), uuid.NewString())
	path := filepath.Join(s.tempDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeImage, "failed to create temp background file")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, errors.ErrCodeImage, "failed to encode background image")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(err, errors.ErrCodeImage, "failed to write background image")
	}

	bounds := img.Bounds()
	s.logger.Debug("background prepared",
		"path", path,
		"source_format", format,
		"opacity", opacity,
		"width", bounds.Dx(),
		"height", bounds.Dy(),
	)
	return &Image{Path: path, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Cleanup removes the transient file. Safe on nil and repeated calls.
func (img *Image) Cleanup() error {
	if img == nil || img.Path == "" {
		return nil
	}
	err := os.Remove(img.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ApplyOpacity returns an NRGBA copy of src with every alpha value multiplied
// by opacity/100.
func ApplyOpacity(src image.Image, opacity int) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	if opacity >= 100 {
		return dst
	}

	for y := 0; y < dst.Rect.Dy(); y++ {
		for x := 0; x < dst.Rect.Dx(); x++ {
			c := dst.NRGBAAt(x, y)
			c.A = uint8(int(c.A) * opacity / 100)
			dst.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	return dst
}
