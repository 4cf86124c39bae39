package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xtxerr/medallion/config"
)

// ParseMoney parses a non-negative amount with at most config.MoneyScale
// fractional digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", s)
	}
	if !d.Equal(d.Truncate(config.MoneyScale)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d fractional digits", s, config.MoneyScale)
	}
	if _, err := MoneyToUnscaled(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// MoneyToUnscaled returns d as an integer count of 10^-MoneyScale units.
func MoneyToUnscaled(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(config.MoneyScale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s exceeds scale %d", d, config.MoneyScale)
	}
	n := shifted.IntPart()
	if !decimal.NewFromInt(n).Equal(shifted) {
		return 0, fmt.Errorf("amount %s out of range", d)
	}
	return n, nil
}

// MoneyFromUnscaled is the inverse of MoneyToUnscaled.
func MoneyFromUnscaled(n int64) decimal.Decimal {
	return decimal.New(n, -config.MoneyScale)
}

// FormatMoney renders d with exactly MoneyScale fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(config.MoneyScale)
}
