// Package form хранит состояние формы кода и оповещает подписчиков об изменениях.
package form

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/MrPunder/codeform/internal/symbology"
)

// ChangeFunc вызывается после каждого изменения с копией состояния
type ChangeFunc func(state models.FormState, changed []models.Field)

// Controller - хранилище параметров формы одного клиента
type Controller struct {
	mu        sync.Mutex
	state     models.FormState
	listeners []ChangeFunc
}

func NewController() *Controller {
	return NewControllerWithState(models.DefaultFormState())
}

func NewControllerWithState(state models.FormState) *Controller {
	return &Controller{state: state}
}

// OnChange добавляет подписчика
func (c *Controller) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State возвращает копию текущего состояния
func (c *Controller) State() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.state)
}

func snapshot(s models.FormState) models.FormState {
	if s.Logo.Upload != nil {
		s.Logo.Upload = append([]byte(nil), s.Logo.Upload...)
	}
	return s
}

// update применяет fn под блокировкой и оповещает подписчиков вне ее.
// Порядок оповещений не гарантирован, снимок несет Revision.
func (c *Controller) update(fn func(s *models.FormState) []models.Field) {
	c.mu.Lock()
	changed := fn(&c.state)
	if len(changed) > 0 {
		c.state.Revision++
	}
	state := snapshot(c.state)
	listeners := append([]ChangeFunc(nil), c.listeners...)
	c.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	for _, l := range listeners {
		l(state, changed)
	}
}

func (c *Controller) SetKind(kind models.SymbolKind) {
	c.update(func(s *models.FormState) []models.Field {
		s.Kind = kind
		return []models.Field{models.FieldKind}
	})
}

// SetFormat меняет формат и сбрасывает текст на значение по умолчанию для формата
func (c *Controller) SetFormat(format models.BarcodeFormat) {
	c.update(func(s *models.FormState) []models.Field {
		s.Format = format
		s.Payload = symbology.DefaultPayload(format, s.Payload)
		return []models.Field{models.FieldFormat, models.FieldPayload}
	})
}

// SetPayload сохраняет текст как есть, без проверки
func (c *Controller) SetPayload(text string) {
	c.update(func(s *models.FormState) []models.Field {
		s.Payload = text
		return []models.Field{models.FieldPayload}
	})
}

func (c *Controller) SetForeground(value string) error {
	if _, err := render.ParseColor(value); err != nil {
		return err
	}
	c.update(func(s *models.FormState) []models.Field {
		s.Foreground = value
		return []models.Field{models.FieldForeground}
	})
	return nil
}

func (c *Controller) SetBackground(value string) error {
	if _, err := render.ParseColor(value); err != nil {
		return err
	}
	c.update(func(s *models.FormState) []models.Field {
		s.Background = value
		return []models.Field{models.FieldBackground}
	})
	return nil
}

// SetSize ограничивает размер диапазоном [100, 400]
func (c *Controller) SetSize(size int) {
	c.update(func(s *models.FormState) []models.Field {
		s.Size = Clamp(size, models.MinSize, models.MaxSize)
		return []models.Field{models.FieldSize}
	})
}

func (c *Controller) SetIncludeLogo(include bool) {
	c.update(func(s *models.FormState) []models.Field {
		s.IncludeLogo = include
		return []models.Field{models.FieldIncludeLogo}
	})
}

// SetLogoUpload сохраняет загруженный файл логотипа
func (c *Controller) SetLogoUpload(data []byte, contentType string) {
	c.update(func(s *models.FormState) []models.Field {
		s.Logo.Upload = append([]byte(nil), data...)
		s.Logo.UploadType = contentType
		return []models.Field{models.FieldLogo}
	})
}

// ClearLogoUpload удаляет загруженный файл, ссылка на логотип снова используется
func (c *Controller) ClearLogoUpload() {
	c.update(func(s *models.FormState) []models.Field {
		if !s.Logo.HasUpload() {
			return nil
		}
		s.Logo.Upload = nil
		s.Logo.UploadType = ""
		return []models.Field{models.FieldLogo}
	})
}

func (c *Controller) SetLogoURL(url string) {
	c.update(func(s *models.FormState) []models.Field {
		s.Logo.URL = strings.TrimSpace(url)
		return []models.Field{models.FieldLogo}
	})
}

// SetLogoSizePercent ограничивает размер логотипа диапазоном [10, 30]
func (c *Controller) SetLogoSizePercent(percent int) {
	c.update(func(s *models.FormState) []models.Field {
		s.LogoSizePercent = Clamp(percent, models.MinLogoSizePercent, models.MaxLogoSizePercent)
		return []models.Field{models.FieldLogoSize}
	})
}

func (c *Controller) SetCornerStyle(style models.CornerStyle) {
	c.update(func(s *models.FormState) []models.Field {
		s.CornerStyle = style
		return []models.Field{models.FieldCornerStyle}
	})
}

// Patch - частичное изменение формы; nil означает "не менять"
type Patch struct {
	Kind            *string `json:"kind,omitempty"`
	Payload         *string `json:"payload,omitempty"`
	Foreground      *string `json:"foreground,omitempty"`
	Background      *string `json:"background,omitempty"`
	Size            *int    `json:"size,omitempty"`
	Format          *string `json:"format,omitempty"`
	IncludeLogo     *bool   `json:"include_logo,omitempty"`
	LogoURL         *string `json:"logo_url,omitempty"`
	LogoSizePercent *int    `json:"logo_size_percent,omitempty"`
	CornerStyle     *string `json:"corner_style,omitempty"`
}

// ApplyError - patch отклонен проверкой, форма не изменилась
type ApplyError struct {
	Err error
}

func (e *ApplyError) Error() string { return e.Err.Error() }

func (e *ApplyError) Unwrap() error { return e.Err }

// Apply проверяет весь patch и применяет его одним изменением.
// Смена формата сбрасывает текст, если в patch нет нового текста.
func (c *Controller) Apply(p Patch) error {
	var (
		kind   models.SymbolKind
		format models.BarcodeFormat
		corner models.CornerStyle
		err    error
	)
	if p.Kind != nil {
		if kind, err = models.ParseSymbolKind(*p.Kind); err != nil {
			return &ApplyError{Err: err}
		}
	}
	if p.Format != nil {
		if format, err = models.ParseBarcodeFormat(*p.Format); err != nil {
			return &ApplyError{Err: err}
		}
	}
	if p.CornerStyle != nil {
		if corner, err = models.ParseCornerStyle(*p.CornerStyle); err != nil {
			return &ApplyError{Err: err}
		}
	}
	if p.Foreground != nil {
		if _, err = render.ParseColor(*p.Foreground); err != nil {
			return &ApplyError{Err: fmt.Errorf("foreground: %w", err)}
		}
	}
	if p.Background != nil {
		if _, err = render.ParseColor(*p.Background); err != nil {
			return &ApplyError{Err: fmt.Errorf("background: %w", err)}
		}
	}

	c.update(func(s *models.FormState) []models.Field {
		var changed []models.Field
		if p.Kind != nil {
			s.Kind = kind
			changed = append(changed, models.FieldKind)
		}
		if p.Format != nil {
			s.Format = format
			s.Payload = symbology.DefaultPayload(format, s.Payload)
			changed = append(changed, models.FieldFormat, models.FieldPayload)
		}
		if p.Payload != nil {
			s.Payload = *p.Payload
			changed = append(changed, models.FieldPayload)
		}
		if p.Foreground != nil {
			s.Foreground = *p.Foreground
			changed = append(changed, models.FieldForeground)
		}
		if p.Background != nil {
			s.Background = *p.Background
			changed = append(changed, models.FieldBackground)
		}
		if p.Size != nil {
			s.Size = Clamp(*p.Size, models.MinSize, models.MaxSize)
			changed = append(changed, models.FieldSize)
		}
		if p.IncludeLogo != nil {
			s.IncludeLogo = *p.IncludeLogo
			changed = append(changed, models.FieldIncludeLogo)
		}
		if p.LogoURL != nil {
			s.Logo.URL = strings.TrimSpace(*p.LogoURL)
			changed = append(changed, models.FieldLogo)
		}
		if p.LogoSizePercent != nil {
			s.LogoSizePercent = Clamp(*p.LogoSizePercent, models.MinLogoSizePercent, models.MaxLogoSizePercent)
			changed = append(changed, models.FieldLogoSize)
		}
		if p.CornerStyle != nil {
			s.CornerStyle = corner
			changed = append(changed, models.FieldCornerStyle)
		}
		return changed
	})
	return nil
}

// Clamp ограничивает v диапазоном [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
