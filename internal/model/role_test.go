package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_LabelAndValue(t *testing.T) {
	tests := []struct {
		role  Role
		label string
		value string
	}{
		{RoleAdmin, "Admin", "admin"},
		{RoleStaff, "Staff", "staff"},
		{RoleResearcher, "Researcher", "researcher"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.label, tt.role.Label())
			assert.Equal(t, tt.value, tt.role.Value())
			assert.Equal(t, string(tt.role), tt.role.Value())
			assert.True(t, tt.role.Valid())
		})
	}
}

func TestRole_Invalid(t *testing.T) {
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Admin").Valid())
	assert.Empty(t, Role("superuser").Label())
}

func TestRoleOptions_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []RoleOption{
		{Label: "Admin", Value: "admin"},
		{Label: "Staff", Value: "staff"},
		{Label: "Researcher", Value: "researcher"},
	}, RoleOptions())
}

func TestUser_HasPhoto(t *testing.T) {
	empty := ""
	path := "storage/profile/a.png"

	assert.False(t, (&User{}).HasPhoto())
	assert.False(t, (&User{Photo: &empty}).HasPhoto())
	assert.True(t, (&User{Photo: &path}).HasPhoto())
}
