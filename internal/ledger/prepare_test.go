package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/cartola/internal/model"
)

func TestIsTransfer(t *testing.T) {
	tests := []struct {
		norm string
		want bool
	}{
		{"TRASPASO A CTA 1234", true},
		{"TRANSFERENCIA DE JUAN", true},
		{"ABONO SUELDO", true},
		{"ABONOS VARIOS", false},
		{"REEMBOLSO COMPRA", true},
		{"REVERSA CARGO", true},
		{"CASHBACK", true},
		{"PAGO TARJETA CREDITO", true},
		{"SUPERMERCADO LIDER", false},
		{"MICROTRANSFER", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransfer(tt.norm), "norm %q", tt.norm)
	}
}

func TestPrepare(t *testing.T) {
	tx := Prepare(model.Row{
		Date:        "2024-01-05 10:30:00",
		Description: "  Supermercado Líder  ",
		Amount:      model.ParseNullDecimal("-45.304"),
	})
	assert.Equal(t, "2024-01-05", tx.Date)
	assert.Equal(t, "Supermercado Líder", tx.Description)
	assert.Equal(t, "SUPERMERCADO LIDER", tx.DescriptionNorm)
	assert.Equal(t, "45.30", tx.AmountStatement.StringFixed(2))
	assert.Equal(t, model.Uncategorized, tx.Category)
	assert.True(t, tx.IsExpense)
	assert.False(t, tx.IsTransfer)
	assert.Len(t, tx.UniqueKey, 18)
}

func TestPrepare_PresetFields(t *testing.T) {
	no := false
	yes := true
	tx := Prepare(model.Row{
		Date:            "2024-01-06",
		Description:     "whatever",
		DescriptionNorm: "pago tarjeta",
		Amount:          model.ParseNullDecimal("-100"),
		Category:        "Transfers",
		IsExpense:       &no,
		IsTransfer:      &yes,
	})
	assert.Equal(t, "PAGO TARJETA", tx.DescriptionNorm)
	assert.Equal(t, "Transfers", tx.Category)
	assert.False(t, tx.IsExpense)
	assert.True(t, tx.IsTransfer)
}

func TestPrepare_SignIndependentKey(t *testing.T) {
	out := Prepare(model.Row{Date: "2024-01-07", Description: "X", Amount: model.ParseNullDecimal("-10")})
	in := Prepare(model.Row{Date: "2024-01-07", Description: "x", Amount: model.ParseNullDecimal("10.00")})
	assert.Equal(t, out.UniqueKey, in.UniqueKey)
	assert.NotEqual(t, out.IsExpense, in.IsExpense)
}
