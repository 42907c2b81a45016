package utils

import (
	"bytes"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ProcessImage resizes a pending draft image and re-encodes it as WebP.
// Draft images are held in memory as raw bytes until the media stage runs.
func ProcessImage(data []byte, filename string) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	log.Printf("Processing image: %s (format: %s)", filename, format)

	// Resize if too large (Max Width 2000px)
	bounds := img.Bounds()
	if bounds.Dx() > 2000 {
		img = imaging.Resize(img, 2000, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer

	// Quality 85 is the sweet spot for catalog photography
	err = webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  85,
	})
	if err != nil {
		// If WebP fails, fallback to JPEG
		log.Printf("WebP encoding failed, falling back to JPEG: %v", err)
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		if err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	return buf.Bytes(), "image/webp", nil
}

// IsImage verifies simple content type
func IsImage(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/png" || contentType == "image/webp" || contentType == "image/jpg" || contentType == "image/gif"
}
