package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoleFoldsFrenchNames(t *testing.T) {
	cases := map[string]Role{
		"citizen":        RoleCitizen,
		"Citoyen":        RoleCitizen,
		"ramasseur":      RoleCollector,
		"collector":      RoleCollector,
		"SUPERVISEUR":    RoleSupervisor,
		"coordinateur":   RoleCoordinator,
		"administrateur": RoleAdmin,
		"  admin  ":      RoleAdmin,
		"chef":           "",
		"":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRole(in), "input %q", in)
	}
}

func TestRolePredicates(t *testing.T) {
	assert.False(t, RoleCitizen.IsAgent())
	assert.True(t, RoleCollector.IsAgent())
	assert.True(t, RoleAdmin.IsAgent())

	assert.False(t, RoleCollector.SupervisorTier())
	assert.True(t, RoleSupervisor.SupervisorTier())
	assert.True(t, RoleCoordinator.SupervisorTier())

	assert.False(t, RoleSupervisor.BypassesGeography())
	assert.True(t, RoleCoordinator.BypassesGeography())
	assert.True(t, RoleAdmin.BypassesGeography())
}
