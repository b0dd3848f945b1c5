package form

import (
	"context"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
)

// Render рисует код по patch на временной форме, не привязанной к клиенту.
// Состояние возвращается вместе с поверхностью даже при ошибке отрисовки.
func Render(ctx context.Context, renderer *render.Renderer, log logger.Logger, p Patch) (export.Surface, models.FormState, error) {
	ctrl := NewController()
	binding := render.NewBinding(log)
	ctrl.OnChange(binding.Handle)
	if err := ctrl.Apply(p); err != nil {
		return nil, ctrl.State(), err
	}

	state := ctrl.State()
	binding.Redraw(state)

	surface, err := renderer.Surface(ctx, state, binding)
	return surface, state, err
}
