// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes product card images uploaded through the
// admin panel: EXIF orientation is applied, oversized images are
// scaled down, and the result is re-encoded without metadata.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/jasim-space/showcase/internal/util"
)

// MaxDimension is the longest edge a stored product image may have.
// Larger uploads are scaled down preserving aspect ratio.
const MaxDimension = 1600

// jpegQuality is the re-encode quality for JPEG output.
const jpegQuality = 85

// ErrUnsupportedFormat indicates the upload is not a processable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Result describes a stored product image.
type Result struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
}

// Processor stores processed uploads under a single uploads directory.
type Processor struct {
	uploadsDir string
}

// NewProcessor creates an image processor writing to uploadsDir.
func NewProcessor(uploadsDir string) *Processor {
	return &Processor{uploadsDir: uploadsDir}
}

// Process reads an uploaded image, normalizes it, and stores it under
// a unique slug-based filename. The returned URL is the public path
// the product's image_url should point at.
func (p *Processor) Process(reader io.Reader, originalName string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Apply EXIF orientation before any resize; pure Go encoders drop
	// the EXIF block, so the rotation must be baked into the pixels.
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
		bounds = img.Bounds()
	}

	processed, ext, err := encodeImage(img, format)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	filename := uniqueFilename(originalName, ext)
	if err := p.save(filename, processed); err != nil {
		return nil, err
	}

	return &Result{
		Filename: filename,
		URL:      "/uploads/" + filename,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     int64(len(processed)),
	}, nil
}

// Delete removes a stored upload by filename.
func (p *Processor) Delete(filename string) error {
	safe := filepath.Base(filename)
	if safe == "." || safe == ".." || safe == "" {
		return fmt.Errorf("invalid filename")
	}
	err := os.Remove(filepath.Join(p.uploadsDir, safe))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}

// uniqueFilename builds a slugged, collision-free filename for an
// upload, e.g. "summer-banner-1f2e3d4c.jpg".
func uniqueFilename(originalName, ext string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	slug := util.Slugify(base)
	if slug == "" {
		slug = "image"
	}
	return slug + "-" + uuid.NewString()[:8] + ext
}

// save writes image data into the uploads directory, refusing any
// filename that would escape it.
func (p *Processor) save(filename string, data []byte) error {
	safe := filepath.Base(filename)
	if safe == "." || safe == ".." || safe == "" {
		return fmt.Errorf("invalid filename")
	}

	absBase, err := filepath.Abs(p.uploadsDir)
	if err != nil {
		return fmt.Errorf("resolving uploads directory: %w", err)
	}
	if err := os.MkdirAll(absBase, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	target := filepath.Join(absBase, safe)
	rel, err := filepath.Rel(absBase, target)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected")
	}

	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	return nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image for storage and returns the data plus
// the file extension it should carry. WebP uploads come back as JPEG;
// pure Go has no WebP encoder.
func encodeImage(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".png", nil
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".gif", nil
	default: // jpeg, webp
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".jpg", nil
	}
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}
