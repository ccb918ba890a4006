// Package policy centralizes who may do what to an order. Handlers call Can
// with the acting user and the resource instead of scattering role checks.
package policy

import "github.com/pharmacart/pharmacy-api/internal/models"

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
)

// Can reports whether the user may perform the action on the order. For
// ActionCreate the order argument is ignored and may be nil.
func Can(user *models.User, action Action, order *models.Order) bool {
	if user == nil {
		return false
	}

	switch action {
	case ActionView:
		return user.IsAdmin() || (order != nil && user.ID == order.UserID)
	case ActionCreate:
		return user.IsCustomer()
	case ActionUpdate:
		return user.IsAdmin()
	case ActionCancel:
		if user.IsAdmin() {
			return true
		}
		return order != nil &&
			user.IsCustomer() &&
			user.ID == order.UserID &&
			order.Status == models.OrderStatusPending
	}
	return false
}
