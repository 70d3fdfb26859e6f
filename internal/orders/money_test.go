package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTax(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"zero", 0, 0},
		{"twenty dollars", 2000, 160}, // $20.00 -> $1.60
		{"rounds down", 56, 4},        // 4.48c -> 4
		{"rounds up", 19, 2},          // 1.52c -> 2
		{"just under a cent", 1, 0},   // 0.08c -> 0
		{"rounds to one", 7, 1},       // 0.56c -> 1
		{"large subtotal", 1999, 160}, // 159.92c -> 160
		{"exact cents", 12500, 1000},  // $125.00 -> $10.00
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tax(tc.subtotal))
		})
	}
}

func TestDraftSubtotal(t *testing.T) {
	d := Draft{Items: []LineItem{
		{ItemID: "p1", UnitPrice: 1000, Quantity: 2},
		{ItemID: "p2", UnitPrice: 350, Quantity: 1},
	}}
	assert.Equal(t, int64(2350), d.Subtotal())
}
