package guard

import (
	"fmt"
	"strings"
)

type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RolePharmacist Role = "pharmacist"
)

// Roles lists every known role.
var Roles = []Role{RolePatient, RoleDoctor, RolePharmacist}

// EntryRoute is where unauthenticated users are sent.
const EntryRoute = "/auth/login"

var homeRoutes = map[Role]string{
	RolePatient:    "/patient/home",
	RoleDoctor:     "/doctor/home",
	RolePharmacist: "/pharmacist/home",
}

func (r Role) Valid() bool {
	_, ok := homeRoutes[r]
	return ok
}

// Home returns the landing route of the role, or "" for an unknown role.
func (r Role) Home() string {
	return homeRoutes[r]
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
