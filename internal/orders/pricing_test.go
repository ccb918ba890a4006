package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pharmacart/pharmacy-api/internal/config"
)

func pricingService() *Service {
	return NewService(nil, config.OrdersConfig{
		TaxRate:         0.05,
		DiscountRate:    0.10,
		DefaultShipping: 10.00,
		ShippingRates: map[string]float64{
			"standard": 10.00,
			"express":  20.00,
		},
	}, zap.NewNop())
}

func TestShippingCost(t *testing.T) {
	s := pricingService()

	assert.InDelta(t, 10.00, s.shippingCost("standard"), 1e-9)
	assert.InDelta(t, 20.00, s.shippingCost("express"), 1e-9)
	assert.InDelta(t, 10.00, s.shippingCost("unknown"), 1e-9)
	assert.InDelta(t, 10.00, s.shippingCost(""), 1e-9)
}

func TestTaxAmount(t *testing.T) {
	s := pricingService()

	assert.InDelta(t, 5.00, s.taxAmount(100.00), 1e-9)
	assert.InDelta(t, 0.00, s.taxAmount(0), 1e-9)
}

func TestDiscountAmount(t *testing.T) {
	s := pricingService()
	code := "SAVE10"
	empty := ""

	// Any non-empty code gets the flat rate; codes are not validated yet.
	assert.InDelta(t, 10.00, s.discountAmount(100.00, &code), 1e-9)
	assert.InDelta(t, 0.00, s.discountAmount(100.00, nil), 1e-9)
	assert.InDelta(t, 0.00, s.discountAmount(100.00, &empty), 1e-9)
}
