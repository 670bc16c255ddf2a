package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"formatted document", "123.456.789-00", "12345678900"},
		{"company document", "12.345.678/0001-90", "12345678000190"},
		{"surrounding whitespace", "  123 456 789 00\t", "12345678900"},
		{"full-width digits", "１２３.４５６", "123456"},
		{"already clean", "12345678900", "12345678900"},
		{"empty", "", ""},
		{"only punctuation", ".-/ ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestForKind(t *testing.T) {
	assert.Equal(t, "jose.silva", ForKind(KindUsername, "  jose.silva "))
	assert.Equal(t, "ana.lima@example.com", ForKind(KindEmail, " Ana.Lima@Example.com"))
	assert.Equal(t, "12345678900", ForKind(KindDocument, "123.456.789-00"))
	assert.Equal(t, "12345678900", ForKind("", "123.456.789-00"))
}
