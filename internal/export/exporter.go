package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/MrPunder/codeform/internal/logger"
)

// Link - временная ссылка на готовый файл, которую нужно "нажать"
type Link struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Href возвращает ссылку как data URL
func (l Link) Href() string {
	return DataURL(l.ContentType, l.Data)
}

// LinkActivator сохраняет файл по ссылке (ответ HTTP, файл на диске, сообщение в чат)
type LinkActivator interface {
	Activate(ctx context.Context, link Link) error
}

// Clipboard принимает PNG для записи в буфер обмена
type Clipboard interface {
	WriteImage(ctx context.Context, png []byte) error
}

type Exporter struct {
	log logger.Logger
}

func NewExporter(log logger.Logger) *Exporter {
	return &Exporter{log: log}
}

// Download растеризует поверхность и активирует ссылку с именем qr-code.png / barcode-code.png
func (e *Exporter) Download(ctx context.Context, s Surface, target LinkActivator) error {
	if s == nil {
		return ErrEmptySurface
	}
	data, err := EncodePNG(s)
	if err != nil {
		return fmt.Errorf("export %s: %w", s.Filename(), err)
	}

	link := Link{
		Filename:    s.Filename(),
		ContentType: "image/png",
		Data:        data,
	}
	e.log.Debugf("Activating download link %s (%d bytes)", link.Filename, len(link.Data))
	if err := target.Activate(ctx, link); err != nil {
		return fmt.Errorf("activate %s: %w", link.Filename, err)
	}
	return nil
}

// Copy записывает PNG в буфер обмена. Ошибки только пишутся в лог.
func (e *Exporter) Copy(ctx context.Context, s Surface, clipboard Clipboard) {
	if s == nil {
		e.log.Error("Copy failed: nothing rendered")
		return
	}
	data, err := EncodePNG(s)
	if err != nil {
		e.log.Errorf("Copy failed: rasterize %s: %v", s.Filename(), err)
		return
	}
	if err := clipboard.WriteImage(ctx, data); err != nil {
		e.log.Errorf("Copy failed: clipboard write: %v", err)
		return
	}
	e.log.Debugf("Copied %s to clipboard (%d bytes)", s.Filename(), len(data))
}

// HTTPDownload отдает файл как вложение
type HTTPDownload struct {
	W http.ResponseWriter
}

func (d HTTPDownload) Activate(_ context.Context, link Link) error {
	d.W.Header().Set("Content-Type", link.ContentType)
	d.W.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", link.Filename))
	d.W.WriteHeader(http.StatusOK)
	_, err := d.W.Write(link.Data)
	return err
}

// HTTPClipboard отдает PNG странице, которая сама кладет его в буфер обмена
type HTTPClipboard struct {
	W http.ResponseWriter
}

func (c HTTPClipboard) WriteImage(_ context.Context, png []byte) error {
	c.W.Header().Set("Content-Type", "image/png")
	c.W.Header().Set("Cache-Control", "no-store")
	c.W.WriteHeader(http.StatusOK)
	_, err := c.W.Write(png)
	return err
}

// FileTarget сохраняет файл в каталог Dir
type FileTarget struct {
	Dir string
	// Path заполняется после успешной записи
	Path string
}

func (f *FileTarget) Activate(_ context.Context, link Link) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(f.Dir, link.Filename)
	if err := os.WriteFile(path, link.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	f.Path = path
	return nil
}

// BufferClipboard хранит последнее скопированное изображение в памяти
type BufferClipboard struct {
	buf bytes.Buffer
}

func (b *BufferClipboard) WriteImage(_ context.Context, png []byte) error {
	if len(png) == 0 {
		return errors.New("empty image")
	}
	b.buf.Reset()
	_, err := b.buf.Write(png)
	return err
}

func (b *BufferClipboard) Bytes() []byte {
	return b.buf.Bytes()
}
