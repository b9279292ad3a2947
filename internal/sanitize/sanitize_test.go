package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	str := "Rua das Flores"
	lat := -8.25

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, ""},
		{"nil string pointer", (*string)(nil), ""},
		{"nil float pointer", (*float64)(nil), ""},
		{"plain ascii", "Centro", "Centro"},
		{"string pointer", &str, "Rua das Flores"},
		{"integer", 42, "42"},
		{"float pointer", &lat, "-8.25"},
		{"en dash", "Centro – Norte", "Centro - Norte"},
		{"curly quotes", "“barulho”", `"barulho"`},
		{"curly apostrophe", "d’água", "d'\xe1gua"},
		{"latin-1 accents kept", "Não", "N\xe3o"},
		{"unsupported rune substituted", "obra 🚧 parada", "obra ? parada"},
		{"euro sign outside latin-1", "R$ 10 €", "R$ 10 ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestText_NoSmartPunctuationSurvives(t *testing.T) {
	out := Text("“A” – B’s")

	for _, glyph := range []string{"“", "”", "–", "’"} {
		assert.NotContains(t, out, glyph)
	}
	assert.Equal(t, `"A" - B's`, out)
}

func TestText_InvalidUTF8ReturnedAsIs(t *testing.T) {
	raw := "caf\xe9"
	assert.Equal(t, raw, Text(raw))
}

func TestToUTF8(t *testing.T) {
	assert.Equal(t, "GEOLOCALIZAÇÃO", ToUTF8(Text("GEOLOCALIZAÇÃO")))
	assert.Equal(t, "Não informada", ToUTF8(Text("Não informada")))
}
