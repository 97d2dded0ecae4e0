package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"arche/internal/config"
	"arche/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageServiceUpload(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 5}
	svc := NewImageService(cfg)
	ctx := context.Background()

	content := tinyPNG(t, 300, 200)
	img, err := svc.Upload(ctx, UploadImageInput{UserID: "u1", Filename: "four.png", ContentType: "image/png", Content: content})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.URL, MediaURLPrefix))
	assert.True(t, strings.HasSuffix(img.URL, ".webp"))
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 200, img.Height)

	path, ok := svc.Path(img.Hash)
	require.True(t, ok)
	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, format, err := image.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 300, decoded.Bounds().Dx())

	again, err := svc.Upload(ctx, UploadImageInput{UserID: "u2", Content: content})
	require.NoError(t, err)
	assert.Equal(t, img.URL, again.URL)
}

func TestImageServiceDownscales(t *testing.T) {
	svc := NewImageService(&config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 10})

	img, err := svc.Upload(context.Background(), UploadImageInput{UserID: "u1", Content: tinyPNG(t, 3000, 1000)})
	require.NoError(t, err)
	assert.Equal(t, MaxImageSize, img.Width)
	assert.Equal(t, 682, img.Height)
}

func TestImageServiceRejects(t *testing.T) {
	svc := NewImageService(&config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})
	ctx := context.Background()
	small := tinyPNG(t, 10, 10)

	tests := []struct {
		name string
		in   UploadImageInput
		code string
	}{
		{"anonymous", UploadImageInput{Content: small}, models.CodeUnauthorized},
		{"empty", UploadImageInput{UserID: "u"}, models.CodeValidation},
		{"not an image", UploadImageInput{UserID: "u", Content: []byte("bonjour, ceci est du texte")}, models.CodeValidation},
		{"declared type mismatch", UploadImageInput{UserID: "u", ContentType: "image/jpeg", Content: small}, models.CodeValidation},
		{"too large", UploadImageInput{UserID: "u", Content: make([]byte, 2*1024*1024)}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.in)
			requireCode(t, err, tt.code)
		})
	}
}

func TestImagePath(t *testing.T) {
	svc := NewImageService(&config.Config{UploadDir: "/srv/media"})
	_, ok := svc.Path("../../etc/passwd")
	assert.False(t, ok)
	_, ok = svc.Path(strings.Repeat("a", 64))
	assert.True(t, ok)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{100, 50, 100, 50},
		{4096, 1024, 2048, 512},
		{1000, 4000, 512, 2048},
		{5000, 1, 2048, 1},
	}
	for _, tt := range tests {
		got := fitWithin(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), MaxImageSize).Bounds()
		assert.Equal(t, tt.wantW, got.Dx(), "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, got.Dy(), "%dx%d", tt.w, tt.h)
	}
}

func TestFormatOfMIME(t *testing.T) {
	for mt, want := range map[string]string{
		"image/jpeg":               "jpeg",
		"image/JPG":                "jpeg",
		"image/png; charset=utf-8": "png",
		"image/webp":               "webp",
	} {
		got, ok := formatOfMIME(mt)
		assert.True(t, ok, mt)
		assert.Equal(t, want, got, mt)
	}
	_, ok := formatOfMIME("image/gif")
	assert.False(t, ok)
}
