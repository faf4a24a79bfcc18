package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"empty", "", 0},
		{"float passthrough", 1234.56, 1234.56},
		{"int passthrough", 42, 42},
		{"int64 passthrough", int64(9000), 9000},
		{"plain digits", "1500", 1500},
		{"thousands separators", "1.500.000", 1500000},
		{"currency symbol", "$1.500.000", 1500000},
		{"symbol with space", "$ 25.990", 25990},
		{"comma remainder discarded", "$1.234.567,89", 1234567},
		{"comma only", "1500,50", 1500},
		{"padded", "  $3.000  ", 3000},
		{"negative", "-5.000", -5000},
		{"trailing text", "12000 CLP", 12000},
		{"not a number", "pendiente", 0},
		{"leading text", "CLP 12.000", 0},
		{"only symbol", "$", 0},
		{"leading comma", ",99", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

// The comma heuristic is lossy on purpose: decimals after a comma are dropped,
// not interpreted.
func TestParseAmount_LossyCommaContract(t *testing.T) {
	for _, in := range []string{"$1.234.567,89", "1.234.567,01", "$1.234.567,99"} {
		assert.Equal(t, float64(1234567), ParseAmount(in), in)
	}
}

func TestFormatCLP(t *testing.T) {
	assert.Equal(t, "$1.500.000", FormatCLP(1500000))
	assert.Equal(t, "$0", FormatCLP(0))
}
