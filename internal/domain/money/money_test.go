package money

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func TestReais(t *testing.T) {
	if got := Cents(123456).Reais().String(); got != "1234.56" {
		t.Fatalf("Reais = %s", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int64
		want        string
	}{
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{0, 0, "0"},
		{5, 5, "100"},
	}
	for _, tt := range tests {
		got := Percent(decimal.NewFromInt(tt.part), decimal.NewFromInt(tt.whole), 1)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Percent(%d, %d) = %s, want %s", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	tests := map[string]string{
		"0":          "R$ 0,00",
		"5.5":        "R$ 5,50",
		"1234.56":    "R$ 1.234,56",
		"1000000":    "R$ 1.000.000,00",
		"-987.654":   "-R$ 987,65",
		"123456.789": "R$ 123.456,79",
	}
	for in, want := range tests {
		if got := FormatBRL(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatBRL(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestDecimalEncodesAsNumber(t *testing.T) {
	raw, err := json.Marshal(map[string]decimal.Decimal{"v": Cents(1050).Reais()})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"v":10.5}` {
		t.Fatalf("encoded = %s", raw)
	}
}
