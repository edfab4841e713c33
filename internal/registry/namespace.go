package registry

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Nombre visible del tenant: lo que viaja en el header.
	nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{2,50}$`)
	// Identificador crudo aceptado en resolución (permite largo 1).
	identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
	// Caracteres admitidos en un namespace ya derivado.
	nsStripRe = regexp.MustCompile(`[^a-z0-9_]`)
)

// reservedNamespaces: namespaces que jamás se asignan a un tenant.
// Incluye los schemas propios de Postgres y nombres internos.
var reservedNamespaces = map[string]struct{}{
	"public":             {},
	"information_schema": {},
	"pg_catalog":         {},
	"pg_toast":           {},
	"pg_temp":            {},
	"admin":              {},
	"global":             {},
	"local":              {},
	"system":             {},
	"internal":           {},
	"default":            {},
	"acme_co":            {}, // usado por tooling de QA
	"tenants":            {},
}

// ValidName indica si name es un nombre de tenant válido para crear.
func ValidName(name string) bool { return nameRe.MatchString(name) }

// ValidIdentifier indica si raw es un identificador aceptable en un
// request (header de tenant).
func ValidIdentifier(raw string) bool { return identifierRe.MatchString(raw) }

// DeriveNamespace deriva el namespace de storage a partir del nombre:
// minúsculas, se eliminan los caracteres fuera de [a-z0-9_]. El resultado
// es determinístico e inmutable después de la creación.
func DeriveNamespace(name string) (string, error) {
	ns := nsStripRe.ReplaceAllString(strings.ToLower(name), "")
	if ns == "" {
		return "", fmt.Errorf("%w (name %q)", ErrEmptyNamespace, name)
	}
	if len(ns) > 50 {
		ns = ns[:50]
	}
	if _, ok := reservedNamespaces[ns]; ok {
		return "", fmt.Errorf("%w: %s", ErrReservedNamespace, ns)
	}
	if strings.HasPrefix(ns, "pg_") {
		return "", fmt.Errorf("%w: %s", ErrReservedNamespace, ns)
	}
	return ns, nil
}
