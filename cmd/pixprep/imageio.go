package main

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/scanprep/pix"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// readImage decodes any registered format into a pixel buffer.
func readImage(path string) (*pix.Buffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading input: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return pix.FromImage(img), format, nil
}

// writeImage encodes buf in the format implied by the extension of path.
func writeImage(path string, buf *pix.Buffer, quality int) error {
	var out bytes.Buffer
	img := buf.NRGBA()
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(&out, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: quality})
	case ".bmp":
		err = bmp.Encode(&out, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&out, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
