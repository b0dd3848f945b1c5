package symbology

import (
	"regexp"
	"testing"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/stretchr/testify/assert"
)

var samples = []string{
	"",
	"hello world!",
	"1234",
	"5901234123457",
	"590123412345799999",
	"  59-01 23 41\t23457 ",
	"abc123def456",
	"Ünïcødé ✓ 42",
	"code-39 $/+% test.",
	"0000000000000000000000000",
	"\x00\x01\x02",
	"\u212A42",
	"\u017Fale",
	"\u0131d",
}

func TestNormalize_EAN13(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"NoDigitsFallsBack", "hello world!", DefaultEAN13},
		{"EmptyFallsBack", "", DefaultEAN13},
		{"ShortIsPadded", "1234", "1234000000000"},
		{"ExactKept", "5901234123457", "5901234123457"},
		{"LongIsTruncated", "590123412345799999", "5901234123457"},
		{"SeparatorsStripped", "590-123-412-3457", "5901234123457"},
		{"MixedKeepsDigits", "abc123def456", "1234560000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, models.FormatEAN13))
		})
	}
}

func TestNormalize_UPC(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"NoDigitsFallsBack", "upc", DefaultUPC},
		{"ShortIsPadded", "42", "420000000000"},
		{"ExactKept", "123456789012", "123456789012"},
		{"LongIsTruncated", "1234567890123456", "123456789012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, models.FormatUPC))
		})
	}
}

func TestNormalize_FixedLengthAlwaysDigits(t *testing.T) {
	digits13 := regexp.MustCompile(`^[0-9]{13}$`)
	digits12 := regexp.MustCompile(`^[0-9]{12}$`)

	for _, s := range samples {
		assert.Regexp(t, digits13, Normalize(s, models.FormatEAN13), "EAN13 for %q", s)
		assert.Regexp(t, digits12, Normalize(s, models.FormatUPC), "UPC for %q", s)
	}
}

func TestNormalize_Code39(t *testing.T) {
	legal := regexp.MustCompile(`^[0-9A-Z\-. $/+%]*$`)

	for _, s := range samples {
		assert.Regexp(t, legal, Normalize(s, models.FormatCode39), "CODE39 for %q", s)
	}

	assert.Equal(t, "CODE-39 $/+% TEST.", Normalize("code-39 $/+% test.", models.FormatCode39))
	assert.Equal(t, "HELLO WORLD", Normalize("hello world!", models.FormatCode39))
	assert.Equal(t, "", Normalize("@#!", models.FormatCode39))
	assert.Equal(t, "42", Normalize("\u212A42", models.FormatCode39))
	assert.Equal(t, "ALE", Normalize("\u017Fale", models.FormatCode39))
}

func FuzzNormalize(f *testing.F) {
	digits13 := regexp.MustCompile(`^[0-9]{13}$`)
	digits12 := regexp.MustCompile(`^[0-9]{12}$`)
	code39 := regexp.MustCompile(`^[0-9A-Z\-. $/+%]*$`)

	for _, s := range samples {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, s string) {
		if got := Normalize(s, models.FormatEAN13); !digits13.MatchString(got) {
			t.Fatalf("EAN13 for %q: %q", s, got)
		}
		if got := Normalize(s, models.FormatUPC); !digits12.MatchString(got) {
			t.Fatalf("UPC for %q: %q", s, got)
		}
		if got := Normalize(s, models.FormatCode39); !code39.MatchString(got) {
			t.Fatalf("CODE39 for %q: %q", s, got)
		}
		if got := Normalize(s, models.FormatCode128); got != s {
			t.Fatalf("CODE128 for %q: %q", s, got)
		}
	})
}

func TestNormalize_Code128Identity(t *testing.T) {
	for _, s := range samples {
		assert.Equal(t, s, Normalize(s, models.FormatCode128))
	}
}

func TestDefaultPayload(t *testing.T) {
	assert.Equal(t, "5901234123457", DefaultPayload(models.FormatEAN13, "anything"))
	assert.Equal(t, "123456789012", DefaultPayload(models.FormatUPC, "anything"))
	assert.Equal(t, "anything", DefaultPayload(models.FormatCode128, "anything"))
	assert.Equal(t, "anything", DefaultPayload(models.FormatCode39, "anything"))
}
