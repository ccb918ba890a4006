package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pharmacart/pharmacy-api/internal/models"
)

func TestCanViewOrder(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	owner := &models.User{ID: 2, Role: models.RoleCustomer}
	other := &models.User{ID: 3, Role: models.RoleCustomer}
	order := &models.Order{ID: 10, UserID: 2}

	assert.True(t, Can(admin, ActionView, order))
	assert.True(t, Can(owner, ActionView, order))
	assert.False(t, Can(other, ActionView, order))
	assert.False(t, Can(nil, ActionView, order))
}

func TestCanCreateOrder(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	customer := &models.User{ID: 2, Role: models.RoleCustomer}

	assert.True(t, Can(customer, ActionCreate, nil))
	assert.False(t, Can(admin, ActionCreate, nil))
}

func TestCanCancelOrder(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	owner := &models.User{ID: 2, Role: models.RoleCustomer}
	other := &models.User{ID: 3, Role: models.RoleCustomer}

	pending := &models.Order{ID: 10, UserID: 2, Status: models.OrderStatusPending}
	completed := &models.Order{ID: 11, UserID: 2, Status: models.OrderStatusCompleted}

	assert.True(t, Can(owner, ActionCancel, pending))
	assert.False(t, Can(owner, ActionCancel, completed))
	assert.False(t, Can(other, ActionCancel, pending))

	// Admins may cancel regardless of status.
	assert.True(t, Can(admin, ActionCancel, completed))
}

func TestCanUpdateOrder(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	customer := &models.User{ID: 2, Role: models.RoleCustomer}

	assert.True(t, Can(admin, ActionUpdate, nil))
	assert.False(t, Can(customer, ActionUpdate, nil))
}
