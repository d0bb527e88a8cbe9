package account_test

import (
	"testing"

	"github.com/fanari/go-account"
	"github.com/stretchr/testify/assert"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, account.RoleUser.IsValid())
	assert.True(t, account.RoleAdministrator.IsValid())
	assert.False(t, account.Role("superuser").IsValid())
	assert.False(t, account.Role("").IsValid())
}

func TestParseRole(t *testing.T) {
	role, ok := account.ParseRole("administrator")
	assert.True(t, ok)
	assert.Equal(t, account.RoleAdministrator, role)

	_, ok = account.ParseRole("superuser")
	assert.False(t, ok)
}
