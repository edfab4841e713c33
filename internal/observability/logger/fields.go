package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// TenantID crea un campo para el id del tenant.
func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

// TenantName crea un campo para el nombre del tenant.
func TenantName(v string) zap.Field { return zap.String("tenant", v) }

// Namespace crea un campo para el namespace de storage.
func Namespace(v string) zap.Field { return zap.String("namespace", v) }

// UserID crea un campo para el id del usuario.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Op crea un campo para la operación en curso.
func Op(v string) zap.Field { return zap.String("op", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Any crea un campo genérico.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
