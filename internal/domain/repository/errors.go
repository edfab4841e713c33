package repository

import "errors"

// Errores sentinela compartidos por todas las implementaciones.
// Las capas superiores los detectan con errors.Is.
var (
	ErrNotFound       = errors.New("repository: not found")
	ErrConflict       = errors.New("repository: conflict")
	ErrNotImplemented = errors.New("repository: not implemented")
)

// IsNotFound indica si el error significa que el recurso no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict indica si el error es un conflicto de unicidad.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
