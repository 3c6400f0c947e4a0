// Package qrcode renders registration check-in codes as SVG QR codes.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	// CheckInPath is the route a scanned code points to.
	CheckInPath = "/check-in"
	// CodeParam is the query parameter carrying the registration code.
	CodeParam = "code"

	// DefaultModuleSize is the edge length of one QR module in SVG units.
	DefaultModuleSize = 8
	// QuietZone is the number of blank modules around the symbol.
	QuietZone = 4
)

// ErrEmptyPayload is returned when encoding an empty payload.
var ErrEmptyPayload = errors.New("qr payload is empty")

// Generator produces SVG QR codes for verification URLs.
type Generator struct {
	// BaseURL is the external application URL, without trailing slash.
	BaseURL string
	// ModuleSize is the edge length of one module, DefaultModuleSize when zero.
	ModuleSize int
}

// NewGenerator returns a Generator for baseURL.
func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: strings.TrimRight(baseURL, "/"), ModuleSize: DefaultModuleSize}
}

// VerificationURL returns the URL encoded into the QR code of a registration.
func (g *Generator) VerificationURL(code string) string {
	return VerificationURL(g.BaseURL, code)
}

// ForCode renders the QR code of a registration code.
func (g *Generator) ForCode(code string) ([]byte, error) {
	return g.SVG(g.VerificationURL(code))
}

// SVG renders payload as an SVG document.
func (g *Generator) SVG(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	size := g.ModuleSize
	if size <= 0 {
		size = DefaultModuleSize
	}

	return render(code, size), nil
}

func render(code barcode.Barcode, size int) []byte {
	bounds := code.Bounds()
	modules := bounds.Dx() + 2*QuietZone
	edge := modules * size

	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		edge, edge, edge, edge)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="#ffffff"/>`, edge, edge)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !isDark(code.At(x, y)) {
				continue
			}

			fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="#000000"/>`,
				(x-bounds.Min.X+QuietZone)*size, (y-bounds.Min.Y+QuietZone)*size, size, size)
		}
	}

	buf.WriteString(`</svg>`)

	return buf.Bytes()
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}

// VerificationURL joins baseURL and the check-in route for code.
func VerificationURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + CheckInPath + "?" + CodeParam + "=" + url.QueryEscape(code)
}

// CodeFromPayload reduces a scanned payload to the registration code.
// Verification URLs yield their code parameter, anything else is returned trimmed.
func CodeFromPayload(payload string) string {
	payload = strings.TrimSpace(payload)

	if !strings.Contains(payload, "://") && !strings.HasPrefix(payload, CheckInPath+"?") {
		return payload
	}

	u, err := url.Parse(payload)
	if err != nil {
		return payload
	}

	if code := u.Query().Get(CodeParam); code != "" {
		return strings.TrimSpace(code)
	}

	return payload
}
