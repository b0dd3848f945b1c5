package telegrambot

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (mockLogger) Info(msg string)                   {}
func (mockLogger) Infof(format string, args ...any)  {}
func (mockLogger) Error(msg string)                  {}
func (mockLogger) Errorf(format string, args ...any) {}
func (mockLogger) Debug(msg string)                  {}
func (mockLogger) Debugf(format string, args ...any) {}
func (mockLogger) Warnf(format string, args ...any)  {}

type recordingTarget struct {
	links []export.Link
}

func (r *recordingTarget) Activate(_ context.Context, link export.Link) error {
	r.links = append(r.links, link)
	return nil
}

func newTestBot() *CodeBot {
	log := mockLogger{}
	return &CodeBot{
		renderer: render.NewRenderer(render.NewLogoLoader(time.Second, 1<<20, log), export.NewObjectURLs(), log),
		exporter: export.NewExporter(log),
		logger:   log,
		timeout:  time.Second,
	}
}

func TestParseQRCommand(t *testing.T) {
	patch, err := ParseQRCommand("size=300 fg=#ff0000 corner=round hello world")
	require.NoError(t, err)
	assert.Equal(t, "qr", *patch.Kind)
	assert.Equal(t, "hello world", *patch.Payload)
	assert.Equal(t, 300, *patch.Size)
	assert.Equal(t, "#ff0000", *patch.Foreground)
	assert.Equal(t, "round", *patch.CornerStyle)
	assert.Nil(t, patch.Background)

	t.Run("logo turns logo on", func(t *testing.T) {
		patch, err := ParseQRCommand("logo=https://example.com/logo.png logo_size=25 text")
		require.NoError(t, err)
		assert.True(t, *patch.IncludeLogo)
		assert.Equal(t, "https://example.com/logo.png", *patch.LogoURL)
		assert.Equal(t, 25, *patch.LogoSizePercent)
	})

	t.Run("unknown key is part of text", func(t *testing.T) {
		patch, err := ParseQRCommand("a=b c")
		require.NoError(t, err)
		assert.Equal(t, "a=b c", *patch.Payload)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ParseQRCommand("")
		assert.ErrorIs(t, err, ErrEmptyPayload)

		_, err = ParseQRCommand("size=300")
		assert.ErrorIs(t, err, ErrEmptyPayload)

		_, err = ParseQRCommand("size=big text")
		assert.ErrorIs(t, err, ErrBadOption)
	})
}

func TestParseBarcodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  *string
		payload string
	}{
		{"NoFormat", "hello", nil, "hello"},
		{"Format", "EAN13 590123412345", strPtr("EAN13"), "590123412345"},
		{"LowercaseFormat", "code39 abc", strPtr("CODE39"), "abc"},
		{"FormatAndOptions", "UPC bg=#eeeeee 12345", strPtr("UPC"), "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := ParseBarcodeCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "barcode", *patch.Kind)
			assert.Equal(t, tt.format, patch.Format)
			assert.Equal(t, tt.payload, *patch.Payload)
		})
	}

	_, err := ParseBarcodeCommand("EAN13")
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func strPtr(s string) *string { return &s }

func TestCodeBot_Export(t *testing.T) {
	bot := newTestBot()
	ctx := context.Background()

	t.Run("qr", func(t *testing.T) {
		patch, err := ParseQRCommand("size=150 hello")
		require.NoError(t, err)

		target := &recordingTarget{}
		require.NoError(t, bot.Export(ctx, patch, target))
		require.Len(t, target.links, 1)
		assert.Equal(t, "qr-code.png", target.links[0].Filename)

		img, err := png.Decode(bytes.NewReader(target.links[0].Data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 150, 150), img.Bounds())
	})

	t.Run("barcode", func(t *testing.T) {
		patch, err := ParseBarcodeCommand("EAN13 hello world!")
		require.NoError(t, err)

		target := &recordingTarget{}
		require.NoError(t, bot.Export(ctx, patch, target))
		require.Len(t, target.links, 1)
		assert.Equal(t, "barcode-code.png", target.links[0].Filename)
	})

	t.Run("encoder rejects payload", func(t *testing.T) {
		patch, err := ParseBarcodeCommand("EAN13 1234567890123")
		require.NoError(t, err)

		target := &recordingTarget{}
		assert.ErrorIs(t, bot.Export(ctx, patch, target), export.ErrEmptySurface)
		assert.Empty(t, target.links)
	})

	t.Run("invalid color", func(t *testing.T) {
		patch, err := ParseQRCommand("fg=nope hello")
		require.NoError(t, err)
		assert.Error(t, bot.Export(ctx, patch, &recordingTarget{}))
	})
}
