// Package pricing owns the one conversion from a catalog base price to the
// prices shown on product pages and recorded on cart line items.
package pricing

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// DefaultConversionRate is the fixed base-to-display currency multiplier.
var DefaultConversionRate = decimal.RequireFromString("18.5")

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

const pricePlaces = 2

// Input is the slice of a product the normalizer needs.
type Input struct {
	BasePrice       float64
	DiscountPercent *float64
}

// Display is the pair of prices rendered for a product.
type Display struct {
	Original        float64 `json:"original"`
	Final           float64 `json:"final"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Discounted reports whether Final differs from Original.
func (d Display) Discounted() bool {
	return d.DiscountPercent > 0
}

// Normalizer converts base prices. The zero value is not usable; build one with
// New or NewNormalizer.
type Normalizer struct {
	rate                decimal.Decimal
	cartAppliesDiscount bool
}

// New builds a normalizer with an explicit rate.
func New(rate decimal.Decimal, cartAppliesDiscount bool) (*Normalizer, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("conversion rate must be positive, got %s", rate)
	}
	return &Normalizer{rate: rate, cartAppliesDiscount: cartAppliesDiscount}, nil
}

// NewNormalizer builds a normalizer from configuration.
func NewNormalizer(cfg config.PricingConfig) (*Normalizer, error) {
	raw := strings.TrimSpace(cfg.ConversionRate)
	rate := DefaultConversionRate
	if raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing conversion rate %q: %w", raw, err)
		}
		rate = parsed
	}
	return New(rate, cfg.CartAppliesDiscount)
}

// ConversionRate returns the configured multiplier.
func (n *Normalizer) ConversionRate() decimal.Decimal {
	return n.rate
}

// ForDisplay returns the converted price and, when a discount applies, the
// discounted final price.
func (n *Normalizer) ForDisplay(in Input) Display {
	original, final, pct := n.compute(in)
	return Display{
		Original:        original.InexactFloat64(),
		Final:           final.InexactFloat64(),
		DiscountPercent: pct.InexactFloat64(),
	}
}

// ForCart returns the unit price stored on a cart line item. It is derived from
// the same computation as ForDisplay so the two can never disagree.
func (n *Normalizer) ForCart(in Input) float64 {
	original, final, _ := n.compute(in)
	if n.cartAppliesDiscount {
		return final.InexactFloat64()
	}
	return original.InexactFloat64()
}

func (n *Normalizer) compute(in Input) (original, final, pct decimal.Decimal) {
	original = decimal.NewFromFloat(in.BasePrice).Mul(n.rate).Round(pricePlaces)
	pct = clampPercent(in.DiscountPercent)
	if pct.IsZero() {
		return original, original, pct
	}
	factor := one.Sub(pct.Div(hundred))
	final = original.Mul(factor).Round(pricePlaces)
	return original, final, pct
}

func clampPercent(p *float64) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	d := decimal.NewFromFloat(*p)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
