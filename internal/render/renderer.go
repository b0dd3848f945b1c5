package render

import (
	"context"
	"fmt"
	"image"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
)

// Renderer собирает поверхность для выгрузки по состоянию формы
type Renderer struct {
	logos *LogoLoader
	urls  *export.ObjectURLs
	log   logger.Logger
}

func NewRenderer(logos *LogoLoader, urls *export.ObjectURLs, log logger.Logger) *Renderer {
	return &Renderer{logos: logos, urls: urls, log: log}
}

// ObjectURLs - реестр временных ссылок, который получают векторные поверхности
func (r *Renderer) ObjectURLs() *export.ObjectURLs {
	return r.urls
}

// Surface возвращает текущую поверхность: холст с QR-кодом или векторный
// штрихкод из binding. Для штрихкода binding обязателен.
func (r *Renderer) Surface(ctx context.Context, state models.FormState, binding *Binding) (export.Surface, error) {
	switch state.Kind {
	case models.KindQR:
		spec := QRSpecFrom(state)
		img, err := QR(spec, r.logo(ctx, spec))
		if err != nil {
			return nil, err
		}
		return export.NewCanvasSurface(img), nil
	case models.KindBarcode:
		if binding == nil {
			return nil, fmt.Errorf("barcode surface: no binding")
		}
		markup, width, height, ok := binding.Drawing().Snapshot()
		if !ok {
			return nil, export.ErrEmptySurface
		}
		return export.NewVectorSurface(markup, width, height, r.urls), nil
	}
	return nil, fmt.Errorf("unknown symbol kind %q", state.Kind)
}

// logo загружает логотип; при ошибке код рисуется без логотипа
func (r *Renderer) logo(ctx context.Context, spec QRSpec) image.Image {
	if spec.Logo == nil {
		return nil
	}
	img, err := r.logos.Load(ctx, spec.Logo.Source)
	if err != nil {
		r.log.Errorf("Logo skipped: %v", err)
		return nil
	}
	return img
}
