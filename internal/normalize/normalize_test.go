package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"supermarket x", "SUPERMARKET X"},
		{"  Café   Ñuñoa  ", "CAFE NUNOA"},
		{"PAGO-TARJ.*1234", "PAGO TARJ 1234"},
		{"Compra\tEN\nLÍNEA", "COMPRA EN LINEA"},
		{"Uber *Trip, São Paulo", "UBER TRIP SAO PAULO"},
		{"ﬁnance ﬀ", "FINANCE FF"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Description(tt.in), "Description(%q)", tt.in)
	}
}

func TestDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"Supermercado Líder #123",
		"TRASPASO A: cta. 0012-3",
		"Ǆemal džungla",
		"Straße 5",
		"  mixed   CASE nbsp ",
	}
	for _, in := range inputs {
		once := Description(in)
		assert.Equal(t, once, Description(once), "not idempotent for %q", in)
	}
}
