package usb

import (
	"testing"

	"github.com/ardnew/usbtap/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_String(t *testing.T) {
	tests := []struct {
		role       Role
		want       string
		peripheral string
	}{
		{RoleTarget, "target", "USB0"},
		{RoleAux, "aux", "USB1"},
		{RoleControl, "control", "USB2"},
		{Role(7), "role(7)", "USB?"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.String())
			assert.Equal(t, tt.peripheral, tt.role.Peripheral())
		})
	}
}

func TestRoles_PriorityOrder(t *testing.T) {
	assert.Equal(t, [NumRoles]Role{RoleTarget, RoleAux, RoleControl}, Roles)
	for _, r := range Roles {
		assert.True(t, r.Valid())
	}
	assert.False(t, Role(NumRoles).Valid())
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"target", RoleTarget, false},
		{"Target", RoleTarget, false},
		{"usb0", RoleTarget, false},
		{" aux ", RoleAux, false},
		{"USB1", RoleAux, false},
		{"control", RoleControl, false},
		{"usb2", RoleControl, false},
		{"host", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, pkg.ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_TextRoundTrip(t *testing.T) {
	for _, r := range Roles {
		text, err := r.MarshalText()
		require.NoError(t, err)

		var got Role
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, r, got)
	}

	_, err := Role(9).MarshalText()
	assert.ErrorIs(t, err, pkg.ErrInvalidRole)
}

func TestValidEndpoint(t *testing.T) {
	assert.True(t, ValidEndpoint(0))
	assert.True(t, ValidEndpoint(15))
	assert.False(t, ValidEndpoint(16))
	assert.False(t, ValidEndpoint(0xFF))
}
