package client

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

// UploadedImage describes a stored illustration.
type UploadedImage struct {
	URL    string `json:"url"`
	Hash   string `json:"hash"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

// UploadImage sends an image as the multipart field "image". The returned
// URL can be listed in a savoir's images.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (*UploadedImage, error) {
	const fallback = "Impossible d'envoyer l'image"

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filepath.Base(filename)+`"`)
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		header.Set("Content-Type", ct)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: fallback, Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: fallback, Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: fallback, Err: err}
	}

	var out UploadedImage
	err = c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/images",
		body:        &body,
		contentType: w.FormDataContentType(),
		fallback:    fallback,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
