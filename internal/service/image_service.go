package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"arche/internal/config"
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultImageUploadDir       = "./uploads"
	DefaultImageMaxUploadSizeMB = 10
	// MaxImageSize bounds both sides of a stored image, in pixels.
	MaxImageSize = 2048
	WebPQuality  = 70
	// MediaURLPrefix is where the upload directory is served.
	MediaURLPrefix = "/media/"
)

// imageFormats maps the names registered with image.Decode to the MIME type
// a client should declare for them.
var imageFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

type UploadImageInput struct {
	UserID      string
	Filename    string
	ContentType string
	Content     []byte
}

// UploadedImage is the response of POST /api/images.
type UploadedImage struct {
	URL    string `json:"url"`
	Hash   string `json:"hash"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

type ImageService struct {
	dir      string
	maxBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	s := &ImageService{dir: DefaultImageUploadDir, maxBytes: DefaultImageMaxUploadSizeMB << 20}
	if cfg == nil {
		return s
	}
	if cfg.UploadDir != "" {
		s.dir = cfg.UploadDir
	}
	if cfg.ImageMaxUploadSizeMB > 0 {
		s.maxBytes = int64(cfg.ImageMaxUploadSizeMB) << 20
	}
	return s
}

// UploadDir is the directory served under MediaURLPrefix.
func (s *ImageService) UploadDir() string { return s.dir }

// MaxUploadBytes is the accepted upload size.
func (s *ImageService) MaxUploadBytes() int64 { return s.maxBytes }

// Upload decodes a JPEG, PNG or WebP image, downscales it to fit
// MaxImageSize and stores it as WebP under its content hash. Uploading the
// same image twice yields the same URL.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (_ *UploadedImage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "images", "upload")
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	src, format, err := s.decode(in)
	if err != nil {
		return nil, err
	}

	fitted := fitWithin(src, MaxImageSize)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, fitted, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	encoded := buf.Bytes()

	sum := sha256.Sum256(encoded)
	hash := hex.EncodeToString(sum[:])
	if err := s.store(hash, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	size := fitted.Bounds().Size()
	middleware.Logger.InfoContext(ctx, "image stored",
		slog.String("hash", hash),
		slog.String("source_format", format),
		slog.Int("width", size.X),
		slog.Int("height", size.Y),
	)
	return &UploadedImage{
		URL:    MediaURLPrefix + hash + ".webp",
		Hash:   hash,
		Width:  size.X,
		Height: size.Y,
		Bytes:  len(encoded),
	}, nil
}

// decode sniffs and decodes the upload, checking it against the declared
// content type when the client sent an image/* one.
func (s *ImageService) decode(in UploadImageInput) (image.Image, string, error) {
	switch {
	case len(in.Content) == 0:
		return nil, "", models.NewValidationError("Aucun fichier envoyé")
	case int64(len(in.Content)) > s.maxBytes:
		return nil, "", models.NewValidationError(fmt.Sprintf("Fichier trop volumineux (max %d Mo)", s.maxBytes>>20))
	}

	unsupported := models.NewValidationError("Type d'image non pris en charge")
	if _, ok := formatOfMIME(http.DetectContentType(in.Content)); !ok {
		return nil, "", unsupported
	}
	img, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, "", models.NewValidationError("Fichier image invalide")
	}
	if _, ok := imageFormats[format]; !ok {
		return nil, "", unsupported
	}

	if declared := mediaType(in.ContentType); strings.HasPrefix(declared, "image/") {
		if f, ok := formatOfMIME(declared); !ok || f != format {
			return nil, "", models.NewValidationError("Le type déclaré ne correspond pas à l'image")
		}
	}
	return img, format, nil
}

// store writes data once; an existing file with the same hash is kept.
func (s *ImageService) store(hash string, data []byte) error {
	path := filepath.Join(s.dir, hash+".webp")
	if _, err := os.Stat(path); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Path returns the stored file of a hash, or false for malformed hashes.
func (s *ImageService) Path(hash string) (string, bool) {
	if len(hash) != sha256.Size*2 || strings.Trim(hash, "0123456789abcdef") != "" {
		return "", false
	}
	return filepath.Join(s.dir, hash+".webp"), true
}

// fitWithin scales src down so neither side exceeds limit, keeping its ratio.
func fitWithin(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return src
	}

	nw, nh := limit, h*limit/w
	if h > w {
		nw, nh = w*limit/h, limit
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(nw, 1), max(nh, 1)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// formatOfMIME returns the decoder name for a MIME type. image/jpg is
// accepted as an alias of image/jpeg.
func formatOfMIME(contentType string) (string, bool) {
	mt := mediaType(contentType)
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	for format, m := range imageFormats {
		if m == mt {
			return format, true
		}
	}
	return "", false
}

func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
