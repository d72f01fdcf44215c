// Package screenshot captures the primary display and encodes it for the
// frontend.
package screenshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when no active display can be captured.
var ErrNoDisplay = errors.New("no active displays found for screenshot")

// Options controls one capture.
type Options struct {
	// MaxWidth downsizes wider captures, keeping the aspect ratio. 0 disables.
	MaxWidth int
	// ToClipboard also copies the data URL to the clipboard as text.
	ToClipboard bool
}

// Result is an encoded capture.
type Result struct {
	// Base64 holds the PNG bytes, standard encoding without a data URL prefix.
	Base64 string `json:"base64"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DataURL returns the capture as a data:image/png URL.
func (r Result) DataURL() string {
	return "data:image/png;base64," + r.Base64
}

// Capturer grabs the primary display. The zero value is not usable; call New.
type Capturer struct {
	numDisplays    func() int
	displayBounds  func(int) image.Rectangle
	captureRect    func(image.Rectangle) (*image.RGBA, error)
	writeClipboard func(string) error
}

// New returns a Capturer backed by the OS screen and clipboard.
func New() *Capturer {
	return &Capturer{
		numDisplays:    screenshot.NumActiveDisplays,
		displayBounds:  screenshot.GetDisplayBounds,
		captureRect:    screenshot.CaptureRect,
		writeClipboard: clipboard.WriteAll,
	}
}

// CapturePrimary captures display 0 and encodes it per opts. A clipboard
// failure is logged and does not fail the capture.
func (c *Capturer) CapturePrimary(opts Options) (Result, error) {
	if c.numDisplays() <= 0 {
		return Result{}, ErrNoDisplay
	}
	img, err := c.captureRect(c.displayBounds(0))
	if err != nil {
		return Result{}, fmt.Errorf("failed to capture screen: %w", err)
	}

	res, err := Encode(img, opts.MaxWidth)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("[DEBUG-screenshot] captured primary display", "width", res.Width, "height", res.Height)

	if opts.ToClipboard {
		if err := c.writeClipboard(res.DataURL()); err != nil {
			slog.Warn("[WARN-screenshot] failed to copy capture to clipboard", "error", err)
		}
	}
	return res, nil
}

// Encode resizes img to at most maxWidth pixels wide and returns it as
// base64 PNG.
func Encode(img image.Image, maxWidth int) (Result, error) {
	if img == nil || img.Bounds().Empty() {
		return Result{}, errors.New("screenshot image is empty")
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Result{}, fmt.Errorf("failed to encode screenshot to png: %w", err)
	}
	b := img.Bounds()
	return Result{
		Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
