// Package export превращает отрисованный код в PNG и отдает его на сохранение
// или в буфер обмена.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

var ErrEmptySurface = errors.New("nothing rendered")

// Surface - отрисованный код, который умеет превращаться в растр
type Surface interface {
	Kind() models.SymbolKind
	Filename() string
	Raster() (image.Image, error)
	ToRasterDataURL() (string, error)
}

// Filename возвращает имя файла для выгрузки: qr-code.png или barcode-code.png
func Filename(kind models.SymbolKind) string {
	return fmt.Sprintf("%s-code.png", kind)
}

// CanvasSurface - растровое изображение (QR-код)
type CanvasSurface struct {
	img image.Image
}

func NewCanvasSurface(img image.Image) *CanvasSurface {
	return &CanvasSurface{img: img}
}

func (s *CanvasSurface) Kind() models.SymbolKind { return models.KindQR }

func (s *CanvasSurface) Filename() string { return Filename(s.Kind()) }

func (s *CanvasSurface) Raster() (image.Image, error) {
	if s == nil || s.img == nil {
		return nil, ErrEmptySurface
	}
	return s.img, nil
}

func (s *CanvasSurface) ToRasterDataURL() (string, error) {
	return rasterDataURL(s)
}

// VectorSurface - SVG-разметка штрихкода. Растеризуется на новый холст
// размером с векторный рисунок.
type VectorSurface struct {
	markup string
	width  int
	height int
	urls   *ObjectURLs
}

// NewVectorSurface создает векторную поверхность; urls может быть nil
func NewVectorSurface(markup string, width, height int, urls *ObjectURLs) *VectorSurface {
	return &VectorSurface{markup: markup, width: width, height: height, urls: urls}
}

func (s *VectorSurface) Kind() models.SymbolKind { return models.KindBarcode }

func (s *VectorSurface) Filename() string { return Filename(s.Kind()) }

// Markup возвращает SVG как есть
func (s *VectorSurface) Markup() string { return s.markup }

func (s *VectorSurface) Size() (int, int) { return s.width, s.height }

// ObjectURL публикует разметку как временную ссылку blob:.
// Ссылку освобождает тот, кто ее прочитал, или ObjectURLs.Sweep.
func (s *VectorSurface) ObjectURL() (string, error) {
	if s == nil || s.markup == "" {
		return "", ErrEmptySurface
	}
	if s.urls == nil {
		return "", errors.New("vector surface has no object url registry")
	}
	return s.urls.Create("image/svg+xml", []byte(s.markup)), nil
}

func (s *VectorSurface) Raster() (image.Image, error) {
	if s == nil || s.markup == "" || s.width <= 0 || s.height <= 0 {
		return nil, ErrEmptySurface
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(s.markup))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(s.width), float64(s.height))

	canvas := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	scanner := rasterx.NewScannerGV(s.width, s.height, canvas, canvas.Bounds())
	raster := rasterx.NewDasher(s.width, s.height, scanner)
	icon.Draw(raster, 1.0)

	return canvas, nil
}

func (s *VectorSurface) ToRasterDataURL() (string, error) {
	return rasterDataURL(s)
}

// EncodePNG растеризует поверхность и кодирует ее в PNG
func EncodePNG(s Surface) ([]byte, error) {
	img, err := s.Raster()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

func rasterDataURL(s Surface) (string, error) {
	data, err := EncodePNG(s)
	if err != nil {
		return "", err
	}
	return DataURL("image/png", data), nil
}

// DataURL кодирует данные во встроенную ссылку data:<type>;base64,...
func DataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL разбирает ссылку data:; поддерживается только base64
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data url must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mediaType, data, nil
}
