package middlewares

import "net/http"

// Middleware es un decorador de http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h con mws en orden: Chain(h, A, B) ejecuta A -> B -> h,
// o sea A es el más externo. El router la usa para la capa global
// (request id, recover, logging) que corre antes de cualquier ruta.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
