package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string)           {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Error(string)          {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debug(string)          {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

func newRenderer() *render.Renderer {
	log := nopLogger{}
	return render.NewRenderer(render.NewLogoLoader(time.Second, 1<<20, log), export.NewObjectURLs(), log)
}

func TestRender(t *testing.T) {
	ctx := context.Background()

	t.Run("qr", func(t *testing.T) {
		surface, state, err := Render(ctx, newRenderer(), nopLogger{}, Patch{Payload: strPtr("hello"), Size: intPtr(150)})
		require.NoError(t, err)
		assert.Equal(t, models.KindQR, surface.Kind())
		assert.Equal(t, 150, state.Size)

		img, err := surface.Raster()
		require.NoError(t, err)
		assert.Equal(t, 150, img.Bounds().Dx())
	})

	t.Run("barcode", func(t *testing.T) {
		surface, state, err := Render(ctx, newRenderer(), nopLogger{}, Patch{
			Kind:    strPtr("barcode"),
			Format:  strPtr("upc"),
			Payload: strPtr("0123"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.KindBarcode, surface.Kind())
		assert.Equal(t, "0123", state.Payload)
	})

	t.Run("rejected patch", func(t *testing.T) {
		_, _, err := Render(ctx, newRenderer(), nopLogger{}, Patch{Kind: strPtr("pdf417")})
		var applyErr *ApplyError
		assert.True(t, errors.As(err, &applyErr))
	})

	t.Run("nothing rendered", func(t *testing.T) {
		_, _, err := Render(ctx, newRenderer(), nopLogger{}, Patch{Kind: strPtr("barcode"), Payload: strPtr("")})
		assert.ErrorIs(t, err, export.ErrEmptySurface)
	})
}
