package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SymbolKind выбирает путь отрисовки
type SymbolKind string

const (
	KindQR      SymbolKind = "qr"
	KindBarcode SymbolKind = "barcode"
)

// BarcodeFormat определяет правило нормализации и кодировщик
type BarcodeFormat string

const (
	FormatCode128 BarcodeFormat = "CODE128"
	FormatEAN13   BarcodeFormat = "EAN13"
	FormatUPC     BarcodeFormat = "UPC"
	FormatCode39  BarcodeFormat = "CODE39"
)

type CornerStyle string

const (
	CornerSquare CornerStyle = "square"
	CornerRound  CornerStyle = "round"
)

// Theme - светлая или темная тема страницы
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Границы числовых параметров формы
const (
	MinSize            = 100
	MaxSize            = 400
	MinLogoSizePercent = 10
	MaxLogoSizePercent = 30
)

// LogoSource хранит загруженный файл или ссылку на логотип.
// Загруженный файл имеет приоритет над ссылкой.
type LogoSource struct {
	Upload     []byte `json:"-"`
	UploadType string `json:"upload_type,omitempty"`
	URL        string `json:"url"`
}

// HasUpload сообщает, загружен ли файл логотипа
func (l LogoSource) HasUpload() bool {
	return len(l.Upload) > 0
}

// Empty сообщает, что логотип не задан ни файлом, ни ссылкой
func (l LogoSource) Empty() bool {
	return !l.HasUpload() && strings.TrimSpace(l.URL) == ""
}

// FormState - состояние формы одного клиента
type FormState struct {
	Kind            SymbolKind    `json:"kind"`
	Payload         string        `json:"payload"`
	Foreground      string        `json:"foreground"`
	Background      string        `json:"background"`
	Size            int           `json:"size"`
	Format          BarcodeFormat `json:"format"`
	IncludeLogo     bool          `json:"include_logo"`
	Logo            LogoSource    `json:"logo"`
	LogoSizePercent int           `json:"logo_size_percent"`
	CornerStyle     CornerStyle   `json:"corner_style"`
	// Revision растет при каждом изменении; подписчики по нему отбрасывают устаревшие снимки
	Revision        uint64        `json:"-"`
}

// DefaultFormState возвращает состояние формы при открытии страницы
func DefaultFormState() FormState {
	return FormState{
		Kind:            KindQR,
		Payload:         "https://example.com",
		Foreground:      "#000000",
		Background:      "#ffffff",
		Size:            200,
		Format:          FormatCode128,
		LogoSizePercent: 20,
		CornerStyle:     CornerSquare,
	}
}

func ParseSymbolKind(s string) (SymbolKind, error) {
	switch k := SymbolKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindQR, KindBarcode:
		return k, nil
	}
	return "", fmt.Errorf("unknown symbol kind %q", s)
}

func ParseBarcodeFormat(s string) (BarcodeFormat, error) {
	switch f := BarcodeFormat(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatCode128, FormatEAN13, FormatUPC, FormatCode39:
		return f, nil
	}
	return "", fmt.Errorf("unknown barcode format %q", s)
}

func ParseCornerStyle(s string) (CornerStyle, error) {
	switch c := CornerStyle(strings.ToLower(strings.TrimSpace(s))); c {
	case CornerSquare, CornerRound:
		return c, nil
	}
	return "", fmt.Errorf("unknown corner style %q", s)
}

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Toggle возвращает противоположную тему
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Field - имя поля формы, о котором сообщают подписчикам изменений
type Field string

const (
	FieldKind        Field = "kind"
	FieldPayload     Field = "payload"
	FieldForeground  Field = "foreground"
	FieldBackground  Field = "background"
	FieldSize        Field = "size"
	FieldFormat      Field = "format"
	FieldIncludeLogo Field = "include_logo"
	FieldLogo        Field = "logo"
	FieldLogoSize    Field = "logo_size_percent"
	FieldCornerStyle Field = "corner_style"
)

// Preference - сохраненная настройка клиента
type Preference struct {
	ClientID  uuid.UUID `json:"client_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
