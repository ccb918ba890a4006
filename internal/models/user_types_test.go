package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordSetAndMatch(t *testing.T) {
	var p Password
	require.NoError(t, p.Set("hunter2hunter2"))
	require.NotEmpty(t, p.Hash)
	assert.NotEqual(t, "hunter2hunter2", p.Hash)

	ok, err := p.Matches("hunter2hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches("wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRoles(t *testing.T) {
	admin := User{Role: RoleAdmin}
	customer := User{Role: RoleCustomer}

	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsCustomer())
	assert.True(t, customer.IsCustomer())
	assert.False(t, customer.IsAdmin())
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("shipped"))
	assert.False(t, ValidOrderStatus(""))
	assert.False(t, ValidOrderStatus("Pending"))
}
