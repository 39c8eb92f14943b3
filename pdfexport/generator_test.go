package pdfexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorLoadsFonts(t *testing.T) {
	gen, err := NewGenerator()

	require.NoError(t, err)
	assert.NotNil(t, gen.regular)
	assert.NotNil(t, gen.bold)
}

func TestStripInlineMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**Coliseo** a las 09:00", "Coliseo a las 09:00"},
		{"*cursiva* y __negrita__", "cursiva y negrita"},
		{"sin marcas", "sin marcas"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripInlineMarkdown(tt.in))
	}
}
