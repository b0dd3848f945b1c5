package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// CornerRadius - радиус скругления углов для стиля round, в пикселях
const CornerRadius = 10

// LogoSettings описывает логотип в центре QR-кода
type LogoSettings struct {
	Source   models.LogoSource
	Width    int
	Height   int
	Excavate bool
}

// QRSpec - все, что нужно для отрисовки QR-кода
type QRSpec struct {
	Payload      string
	Size         int
	Foreground   string
	Background   string
	Level        qr.ErrorCorrectionLevel
	Logo         *LogoSettings
	CornerRadius int
}

// LogoDimensions вычисляет размер логотипа в пикселях как долю размера кода
func LogoDimensions(size, percent int) (int, int) {
	side := size * percent / 100
	return side, side
}

// QRSpecFrom строит описание QR-кода по состоянию формы
func QRSpecFrom(state models.FormState) QRSpec {
	spec := QRSpec{
		Payload:    state.Payload,
		Size:       state.Size,
		Foreground: state.Foreground,
		Background: state.Background,
		Level:      qr.H,
	}
	if state.IncludeLogo && !state.Logo.Empty() {
		w, h := LogoDimensions(state.Size, state.LogoSizePercent)
		spec.Logo = &LogoSettings{
			Source:   state.Logo,
			Width:    w,
			Height:   h,
			Excavate: true,
		}
	}
	if state.CornerStyle == models.CornerRound {
		spec.CornerRadius = CornerRadius
	}
	return spec
}

// QR кодирует spec.Payload и рисует код размером spec.Size x spec.Size.
// logo может быть nil - тогда логотип пропускается даже если он задан в spec.
func QR(spec QRSpec, logo image.Image) (image.Image, error) {
	fg, err := ParseColor(spec.Foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	bg, err := ParseColor(spec.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	code, err := qr.Encode(spec.Payload, spec.Level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	scaled, err := barcode.Scale(code, spec.Size, spec.Size)
	if err != nil {
		return nil, fmt.Errorf("qr scale: %w", err)
	}

	img := colorize(scaled, fg, bg)

	if logo != nil && spec.Logo != nil && spec.Logo.Width > 0 && spec.Logo.Height > 0 {
		drawLogo(img, logo, spec.Logo, bg)
	}

	if spec.CornerRadius > 0 {
		return roundCorners(img, spec.CornerRadius), nil
	}
	return img, nil
}

// colorize перекрашивает черно-белый код в цвета формы
func colorize(src image.Image, fg, bg color.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isDark(src.At(x, y)) {
				dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, fg)
			} else {
				dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, bg)
			}
		}
	}
	return dst
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r+g+b)/3 < 0x8000
}

// drawLogo вырезает модули под логотипом и рисует логотип по центру
func drawLogo(dst *image.NRGBA, logo image.Image, settings *LogoSettings, bg color.NRGBA) {
	b := dst.Bounds()
	x0 := (b.Dx() - settings.Width) / 2
	y0 := (b.Dy() - settings.Height) / 2
	rect := image.Rect(x0, y0, x0+settings.Width, y0+settings.Height)

	if settings.Excavate {
		draw.Draw(dst, rect, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	}
	xdraw.CatmullRom.Scale(dst, rect, logo, logo.Bounds(), draw.Over, nil)
}

func roundCorners(img image.Image, radius int) image.Image {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawRoundedRectangle(0, 0, float64(b.Dx()), float64(b.Dy()), float64(radius))
	dc.Clip()
	dc.DrawImage(img, 0, 0)
	return dc.Image()
}
