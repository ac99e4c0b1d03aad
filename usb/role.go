package usb

import (
	"fmt"
	"strings"

	"github.com/ardnew/usbtap/pkg"
)

// Role identifies which physical USB controller a peripheral instance plays.
// The set of roles is fixed; the zero value is RoleTarget.
type Role uint8

// Controller roles, in classifier priority order.
const (
	RoleTarget  Role = iota // primary device-mode bus under analysis
	RoleAux                 // secondary, host-capable bus
	RoleControl             // sideband management bus
)

// NumRoles is the number of controller roles.
const NumRoles = 3

// Roles lists every role in classifier priority order.
var Roles = [NumRoles]Role{RoleTarget, RoleAux, RoleControl}

// Valid reports whether r names one of the three controllers.
func (r Role) Valid() bool {
	return r < NumRoles
}

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleTarget:
		return "target"
	case RoleAux:
		return "aux"
	case RoleControl:
		return "control"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Peripheral returns the controller instance name (USB0, USB1, USB2).
func (r Role) Peripheral() string {
	switch r {
	case RoleTarget:
		return "USB0"
	case RoleAux:
		return "USB1"
	case RoleControl:
		return "USB2"
	default:
		return "USB?"
	}
}

// ParseRole converts a role name to a Role, ignoring case.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "target", "usb0":
		return RoleTarget, nil
	case "aux", "usb1":
		return RoleAux, nil
	case "control", "usb2":
		return RoleControl, nil
	default:
		return 0, fmt.Errorf("%w: %q", pkg.ErrInvalidRole, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", pkg.ErrInvalidRole, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	v, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
