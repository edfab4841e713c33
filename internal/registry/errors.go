package registry

import "errors"

var (
	// ErrInvalidIdentifier: el identificador de tenant no cumple el
	// formato [A-Za-z0-9_-]{1,50} (o el nombre, {2,50} al crear).
	ErrInvalidIdentifier = errors.New("registry: invalid tenant identifier")

	// ErrReservedNamespace: el namespace derivado colisiona con una
	// palabra reservada. Se reporta como conflicto.
	ErrReservedNamespace = errors.New("registry: namespace is a reserved word")

	// ErrEmptyNamespace: el nombre no deja ningún carácter válido al
	// derivar el namespace.
	ErrEmptyNamespace = errors.New("registry: derived namespace is empty")

	// ErrInactive: el tenant existe pero está desactivado.
	ErrInactive = errors.New("registry: tenant is inactive")

	// ErrStorageUnavailable: el liveness probe del namespace falló; el
	// registro y el storage real divergen. No se reintenta acá.
	ErrStorageUnavailable = errors.New("registry: tenant storage unavailable")

	// ErrOrphanedTenant: el namespace fue borrado pero la fila del
	// registro no pudo eliminarse. Requiere intervención manual; nunca
	// se traga en silencio.
	ErrOrphanedTenant = errors.New("registry: tenant orphaned, manual cleanup required")
)
