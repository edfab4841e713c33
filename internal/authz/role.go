// Package authz decide accesos dentro de un tenant ya resuelto y
// autenticado: jerarquía de roles, rol exacto y ownership de recursos.
// El scoping de tenant NO vive acá; cuando una policy corre, el tenant
// ya está ligado.
package authz

import (
	"fmt"
	"strings"
)

// Role es el rol de un usuario dentro de su tenant. Los roles son
// estrictamente ordenados: un nivel mayor implica todos los permisos de
// los menores.
type Role int

const (
	RoleUnknown Role = 0
	RoleUser    Role = 1
	RoleManager Role = 2
	RoleAdmin   Role = 3
)

var roleNames = map[Role]string{
	RoleUser:    "user",
	RoleManager: "manager",
	RoleAdmin:   "admin",
}

var rolesByName = map[string]Role{
	"user":    RoleUser,
	"manager": RoleManager,
	"admin":   RoleAdmin,
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// Level expone el orden numérico del rol.
func (r Role) Level() int { return int(r) }

// AtLeast indica si r alcanza o supera a min en la jerarquía.
func (r Role) AtLeast(min Role) bool { return r >= min && r != RoleUnknown }

// Valid indica si r es un rol conocido.
func (r Role) Valid() bool { _, ok := roleNames[r]; return ok }

// ParseRole interpreta un nombre de rol (case-insensitive). Un rol no
// reconocido vuelve como error: nunca se mapea en silencio a otro.
func ParseRole(s string) (Role, error) {
	if r, ok := rolesByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return RoleUnknown, fmt.Errorf("authz: unknown role %q", s)
}
