package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/GTDGit/pdv_api/internal/models"
)

const (
	ticketWidth  = 1080
	ticketHeight = 1350
	// text is laid out on a canvas this many times smaller and scaled up
	ticketScale = 4
)

var (
	ticketTop      = color.RGBA{0x66, 0x7e, 0xea, 0xff}
	ticketBottom   = color.RGBA{0x76, 0x4b, 0xa2, 0xff}
	ticketCard     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ticketPanel    = color.RGBA{0xf8, 0xf9, 0xfa, 0xff}
	ticketInk      = color.RGBA{0x2c, 0x3e, 0x50, 0xff}
	ticketMuted    = color.RGBA{0x7f, 0x8c, 0x8d, 0xff}
	ticketAccent   = color.RGBA{0xe7, 0x4c, 0x3c, 0xff}
	ticketPositive = color.RGBA{0x27, 0xae, 0x60, 0xff}
)

// TicketRenderer draws the JPEG ticket sent to customers and offered for download.
type TicketRenderer struct {
	title string
	loc   *time.Location
}

// NewTicketRenderer creates a renderer; timestamps are printed in loc.
func NewTicketRenderer(title string, loc *time.Location) *TicketRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketRenderer{title: title, loc: loc}
}

// Render returns the ticket of s encoded as JPEG.
func (r *TicketRenderer) Render(s *models.Sale) ([]byte, error) {
	w, h := ticketWidth/ticketScale, ticketHeight/ticketScale
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		c := blend(ticketTop, ticketBottom, float64(y)/float64(h-1))
		draw.Draw(canvas, image.Rect(0, y, w, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
	fill(canvas, image.Rect(15, 20, w-15, h-20), ticketCard)

	center := func(y int, c color.Color, text string) { drawText(canvas, -1, y, c, text) }
	left := func(y int, c color.Color, text string) { drawText(canvas, 38, y, c, text) }

	center(50, ticketTop, strings.ToUpper(r.title))
	center(68, ticketBottom, "INGRESSO")
	fill(canvas, image.Rect(38, 80, w-38, 81), ticketMuted)
	center(105, ticketAccent, "#"+s.Code)

	left(130, ticketInk, "CLIENTE:")
	left(145, ticketMuted, s.ClientName)
	left(170, ticketInk, "PRODUTO:")
	left(185, ticketMuted, s.ProductName)
	left(210, ticketInk, "PESSOAS:")
	left(225, ticketMuted, strconv.Itoa(s.Quantity))

	fill(canvas, image.Rect(25, 242, w-25, 287), ticketPanel)
	left(256, ticketMuted, "Valor unitario: "+formatBRL(s.UnitPrice))
	left(268, ticketMuted, "Subtotal: "+formatBRL(s.Subtotal))
	if s.Discount.IsPositive() {
		left(280, ticketAccent, "Desconto: "+formatBRL(s.Discount))
	}

	center(305, ticketPositive, "TOTAL: "+formatBRL(s.Total))
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	center(320, ticketMuted, created.In(r.loc).Format("02/01/2006 15:04"))
	if s.OperatorName != "" {
		center(331, ticketMuted, "Vendedor: "+s.OperatorName)
	}

	out := image.NewRGBA(image.Rect(0, 0, ticketWidth, ticketHeight))
	draw.NearestNeighbor.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 92}); err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}
	return buf.Bytes(), nil
}

// drawText writes text with its baseline at y. A negative x centers it.
func drawText(dst *image.RGBA, x, y int, c color.Color, text string) {
	text = FoldAccents(text)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	if x < 0 {
		width := d.MeasureString(text).Ceil()
		x = (dst.Bounds().Dx() - width) / 2
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// formatBRL renders an amount as "R$ 1234,50".
func formatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
