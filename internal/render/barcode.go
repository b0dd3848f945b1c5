package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/symbology"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
)

// Геометрия векторного штрихкода
const (
	ModuleWidth = 2
	BarHeight   = 100
	Margin      = 10
)

var ErrUnknownFormat = errors.New("unknown barcode format")

// BarcodeSpec - нормализованный текст и цвета для штрихкода
type BarcodeSpec struct {
	Format     models.BarcodeFormat
	Payload    string
	Foreground string
	Background string
}

// BarcodeSpecFrom строит описание штрихкода; текст нормализуется под формат
func BarcodeSpecFrom(state models.FormState) BarcodeSpec {
	return BarcodeSpec{
		Format:     state.Format,
		Payload:    symbology.Normalize(state.Payload, state.Format),
		Foreground: state.Foreground,
		Background: state.Background,
	}
}

// EncodeBarcode кодирует текст выбранной символикой
func EncodeBarcode(spec BarcodeSpec) (barcode.Barcode, error) {
	switch spec.Format {
	case models.FormatCode128:
		return code128.Encode(spec.Payload)
	case models.FormatEAN13:
		return ean.Encode(spec.Payload)
	case models.FormatUPC:
		// UPC-A - это EAN-13 с ведущим нулем
		return ean.Encode("0" + spec.Payload)
	case models.FormatCode39:
		return code39.Encode(spec.Payload, false, false)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, spec.Format)
}

// BarcodeSVG рисует штрихкод как SVG-разметку и возвращает ее размеры
func BarcodeSVG(spec BarcodeSpec) (string, int, int, error) {
	fg, err := ParseColor(spec.Foreground)
	if err != nil {
		return "", 0, 0, fmt.Errorf("foreground: %w", err)
	}
	bg, err := ParseColor(spec.Background)
	if err != nil {
		return "", 0, 0, fmt.Errorf("background: %w", err)
	}

	code, err := EncodeBarcode(spec)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%s encode: %w", spec.Format, err)
	}

	bounds := code.Bounds()
	modules := bounds.Dx()
	width := modules*ModuleWidth + 2*Margin
	height := BarHeight + 2*Margin

	fgHex, fgOpacity := hexColor(fg)
	bgHex, bgOpacity := hexColor(bg)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s" fill-opacity="%s"/>`,
		width, height, bgHex, bgOpacity)

	// соседние темные модули сливаются в одну полосу
	for x := 0; x < modules; {
		if !isDark(code.At(bounds.Min.X+x, bounds.Min.Y)) {
			x++
			continue
		}
		start := x
		for x < modules && isDark(code.At(bounds.Min.X+x, bounds.Min.Y)) {
			x++
		}
		fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" fill-opacity="%s"/>`,
			Margin+start*ModuleWidth, Margin, (x-start)*ModuleWidth, BarHeight, fgHex, fgOpacity)
	}
	sb.WriteString(`</svg>`)

	return sb.String(), width, height, nil
}
