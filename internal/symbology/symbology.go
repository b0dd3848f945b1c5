// Package symbology приводит текст к алфавиту и длине выбранного формата штрихкода.
// Нормализация никогда не возвращает ошибку: недопустимый ввод заменяется
// заведомо корректным значением по умолчанию.
package symbology

import (
	"regexp"
	"strings"

	"github.com/MrPunder/codeform/internal/models"
)

// Значения по умолчанию для форматов фиксированной длины
const (
	DefaultEAN13 = "5901234123457"
	DefaultUPC   = "123456789012"

	ean13Length = 13
	upcLength   = 12
)

var (
	nonDigitRegex  = regexp.MustCompile(`[^0-9]`)
	// только ASCII: (?i) в Go совпадает и с символами вроде U+212A (знак Кельвина)
	nonCode39Regex = regexp.MustCompile(`[^0-9A-Za-z\-. $/+%]`)
)

// Normalize возвращает строку, допустимую для формата format
func Normalize(payload string, format models.BarcodeFormat) string {
	switch format {
	case models.FormatEAN13:
		return fixedDigits(payload, ean13Length, DefaultEAN13)
	case models.FormatUPC:
		return fixedDigits(payload, upcLength, DefaultUPC)
	case models.FormatCode39:
		return strings.ToUpper(nonCode39Regex.ReplaceAllString(payload, ""))
	default:
		return payload
	}
}

// DefaultPayload - текст, который подставляется при смене формата
func DefaultPayload(format models.BarcodeFormat, current string) string {
	switch format {
	case models.FormatEAN13:
		return DefaultEAN13
	case models.FormatUPC:
		return DefaultUPC
	default:
		return current
	}
}

// fixedDigits оставляет первые length цифр и дополняет нулями справа.
// Если цифр нет совсем, дополнять нечего и используется fallback.
func fixedDigits(payload string, length int, fallback string) string {
	digits := nonDigitRegex.ReplaceAllString(payload, "")
	if digits == "" {
		return fallback
	}
	if len(digits) > length {
		digits = digits[:length]
	}
	digits += strings.Repeat("0", length-len(digits))
	if len(digits) != length {
		return fallback
	}
	return digits
}
