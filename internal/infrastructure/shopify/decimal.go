package shopify

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func decimalFromString(s string) (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return &d, nil
}
