package oracle

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

func TestWithinDeviation(t *testing.T) {
	fair := decimal.NewFromInt(100)

	cases := []struct {
		name      string
		execution decimal.Decimal
		threshold int64
		want      bool
	}{
		{"exact", decimal.NewFromInt(100), 150, true},
		{"just inside above", decimal.NewFromFloat(101.4), 150, true},
		{"at threshold", decimal.NewFromFloat(101.5), 150, true},
		{"outside above", decimal.NewFromFloat(101.6), 150, false},
		{"outside below", decimal.NewFromFloat(98.4), 150, false},
		{"inside below", decimal.NewFromFloat(98.6), 150, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WithinDeviation(fair, tc.execution, tc.threshold)
			if got != tc.want {
				t.Fatalf("WithinDeviation(%s, %s, %d): want=%v got=%v",
					fair, tc.execution, tc.threshold, tc.want, got)
			}
		})
	}
}

func TestStaticOracleUnknownAsset(t *testing.T) {
	o := NewStaticOracle(nil, 150)

	_, err := o.GetPrice(context.Background(), "BTC")
	if !vaulterr.IsKind(err, vaulterr.KindValidation) {
		t.Fatalf("kind: want=validation got=%v", err)
	}
}

func TestStaticOracleValidatePrice(t *testing.T) {
	o := NewStaticOracle(map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(100),
	}, 150)

	ok, err := o.ValidatePrice(context.Background(), "BTC", decimal.NewFromInt(101))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatalf("price inside threshold flagged as deviant")
	}

	ok, err = o.ValidatePrice(context.Background(), "BTC", decimal.NewFromInt(103))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Fatalf("price outside threshold passed")
	}
}

func TestStaticOracleSetPrice(t *testing.T) {
	o := NewStaticOracle(map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(100),
	}, 150)
	o.SetPrice("BTC", decimal.NewFromInt(120))

	price, err := o.GetPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	if !price.Price.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("price: want=120 got=%s", price.Price)
	}
}
