package brctc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"

	"golang.org/x/image/draw"
)

// BlogImagesBucket is the storage bucket for featured images.
const BlogImagesBucket = "blog-images"

const (
	maxImageWidth = 1200
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
)

// ErrImageTooLarge is returned for uploads over the size limit.
var ErrImageTooLarge = fmt.Errorf("image too large (max %d MB)", maxUploadSize>>20)

// processImage downscales jpeg and png images wider than maxImageWidth,
// keeping their format. Anything else, including images it cannot decode,
// is returned untouched.
func processImage(data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || (format != "jpeg" && format != "png") {
		return data
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxImageWidth {
		return data
	}

	newH := h * maxImageWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return data
	}
	return buf.Bytes()
}

// imageKey names an upload "<unix-millis>.<ext>".
func imageKey(filename string, at time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%d.%s", at.UnixMilli(), ext)
}

// UploadImage stores a featured image in the blog images bucket and returns
// its public URL.
func (a *App) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > maxUploadSize {
		return "", ErrImageTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return "", ErrImageTooLarge
	}
	data = processImage(data)

	key := imageKey(file.Filename, a.Store.now())
	return a.Images.Upload(ctx, key, bytes.NewReader(data), http.DetectContentType(data))
}
