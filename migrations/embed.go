// Package migrations embeds SQL migration files.
package migrations

import "embed"

// RegistryFS contiene el DDL del directorio de tenants (schema public).
//
//go:embed registry/*.sql
var RegistryFS embed.FS

// RegistryDir is the directory within RegistryFS where migrations live.
const RegistryDir = "registry"

// NamespaceFS contiene el DDL base que se aplica a cada namespace nuevo.
//
//go:embed namespace/*.sql
var NamespaceFS embed.FS

// NamespaceDir is the directory within NamespaceFS where migrations live.
const NamespaceDir = "namespace"
