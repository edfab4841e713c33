package token

import "fmt"

// Kind clasifica las fallas de verificación. El caller decide el status
// HTTP a partir del Kind, nunca parseando mensajes.
type Kind string

const (
	KindMissing        Kind = "missing"
	KindInvalid        Kind = "invalid"
	KindExpired        Kind = "expired"
	KindNotYetValid    Kind = "not_yet_valid"
	KindTenantMismatch Kind = "tenant_mismatch"
)

// TokenError es el error tipado de verificación.
type TokenError struct {
	Kind Kind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("token: %s", e.Kind)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is permite errors.Is contra otro *TokenError del mismo Kind.
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	return ok && t.Kind == e.Kind
}

func newErr(kind Kind, cause error) *TokenError {
	return &TokenError{Kind: kind, Err: cause}
}
