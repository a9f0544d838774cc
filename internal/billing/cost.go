// Package billing prices a visit at registration time from the clinic's own
// price list. There is no card-not-present flow; the till records which
// payment method settled the visit.
package billing

// VisitCost computes the amount due: selected service prices times the visit
// quantity, plus additional services times their own quantity, minus the
// discount, never below zero. Non-billable payment methods (insurance
// contracts and the like) zero the amount regardless.
func VisitCost(servicePrices []int, quantity int, additionalPrices []int, additionalQuantity int, discount int, billable bool) int {
	if !billable {
		return 0
	}
	if quantity <= 0 {
		quantity = 1
	}
	if additionalQuantity <= 0 {
		additionalQuantity = 1
	}

	total := 0
	for _, p := range servicePrices {
		total += p * quantity
	}
	for _, p := range additionalPrices {
		total += p * additionalQuantity
	}
	total -= discount
	if total < 0 {
		return 0
	}
	return total
}
