package orders

// shippingCost resolves the flat shipping rate for a method from the
// configured lookup table, falling back to the default rate for anything
// unrecognized.
func (s *Service) shippingCost(method string) float64 {
	if rate, ok := s.pricing.ShippingRates[method]; ok {
		return rate
	}
	return s.pricing.DefaultShipping
}

// taxAmount applies the flat tax rate to the items subtotal.
func (s *Service) taxAmount(itemsSubtotal float64) float64 {
	return itemsSubtotal * s.pricing.TaxRate
}

// discountAmount applies the flat discount rate whenever any non-empty code
// is supplied. There is no code catalog or validation; this mirrors the
// observed stub behavior and is deliberately not a discount engine.
func (s *Service) discountAmount(itemsSubtotal float64, discountCode *string) float64 {
	if discountCode == nil || *discountCode == "" {
		return 0
	}
	return itemsSubtotal * s.pricing.DiscountRate
}
