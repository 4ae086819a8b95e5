package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"golang.org/x/image/draw"

	"github.com/docgraph/docgraph/internal/svcctx"
)

// renderPages renders every page to a width-clamped base64 JPEG, filling in
// Page.Image. Individual page failures degrade to an empty image.
func renderPages(ctx context.Context, pdfData []byte, pages []Page, opts Options) error {
	log := svcctx.LoggerFrom(ctx)

	pdfPath, cleanup, err := writeTempPDF(pdfData)
	if err != nil {
		return err
	}
	defer cleanup()

	type result struct {
		index int
		image string
		err   error
	}

	maxWorkers := runtime.NumCPU()
	results := make(chan result, len(pages))
	sem := make(chan struct{}, maxWorkers)

	for i := range pages {
		sem <- struct{}{} // acquire
		go func(index int) {
			defer func() { <-sem }() // release

			img, err := renderPage(pdfPath, index+1, opts)
			results <- result{index: index, image: img, err: err}
		}(i)
	}

	for range pages {
		r := <-results
		if r.err != nil {
			log.Warn("failed to render page", "page", r.index+1, "error", r.err)
			continue
		}
		pages[r.index].Image = r.image
	}

	return nil
}

// renderPage renders a single page using pdftoppm (poppler-utils), clamps its
// width, and returns it as a base64-encoded JPEG.
func renderPage(pdfPath string, pageNum int, opts Options) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docgraph-page-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", pageNum)

	cmd := exec.Command("pdftoppm",
		"-jpeg",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", opts.RenderDPI),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".jpg")
	if err != nil {
		return "", fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode rendered page: %w", err)
	}

	img = ClampWidth(img, opts.MaxImageWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ClampWidth scales an image down to maxWidth, preserving aspect ratio.
// Images at or under the limit are returned unchanged.
func ClampWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	if maxWidth <= 0 || width <= maxWidth {
		return img
	}

	height := bounds.Dy() * maxWidth / width
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
