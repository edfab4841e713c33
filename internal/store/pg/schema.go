package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/migrations"
)

// SchemaManager implementa repository.SchemaManager para PostgreSQL:
// un schema por namespace, con el DDL base embebido aplicado al crearlo.
type SchemaManager struct{ store *Store }

func NewSchemaManager(s *Store) *SchemaManager { return &SchemaManager{store: s} }

// Los namespaces ya vienen validados por registry, pero el identificador
// termina interpolado en DDL, así que se re-chequea acá.
var namespaceIdentRe = regexp.MustCompile(`^[a-z0-9_]{1,50}$`)

func (m *SchemaManager) CreateNamespace(ctx context.Context, namespaceID string) error {
	if !namespaceIdentRe.MatchString(namespaceID) {
		return fmt.Errorf("schema: invalid namespace identifier %q", namespaceID)
	}

	tx, err := m.store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA %s`, pgIdentifier(namespaceID))); err != nil {
		return fmt.Errorf("schema: create %s: %w", namespaceID, err)
	}
	// DDL base sin calificar; search_path local a la transacción.
	if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL search_path TO %s`, pgIdentifier(namespaceID))); err != nil {
		return err
	}
	ddl, err := loadDDL(migrations.NamespaceFS, migrations.NamespaceDir)
	if err != nil {
		return err
	}
	for _, stmt := range ddl {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: apply base ddl on %s: %w", namespaceID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Named("pg").Info("namespace created", logger.Namespace(namespaceID))
	return nil
}

func (m *SchemaManager) DropNamespace(ctx context.Context, namespaceID string) error {
	if !namespaceIdentRe.MatchString(namespaceID) {
		return fmt.Errorf("schema: invalid namespace identifier %q", namespaceID)
	}
	_, err := m.store.pool.Exec(ctx,
		fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, pgIdentifier(namespaceID)))
	if err != nil {
		return fmt.Errorf("schema: drop %s: %w", namespaceID, err)
	}
	logger.Named("pg").Info("namespace dropped", logger.Namespace(namespaceID))
	return nil
}

func (m *SchemaManager) NamespaceExists(ctx context.Context, namespaceID string) (bool, error) {
	var exists bool
	err := m.store.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		namespaceID).Scan(&exists)
	return exists, err
}

// EnsureRegistrySchema aplica el DDL del directorio de tenants (idempotente).
// Se llama una vez al arrancar.
func (m *SchemaManager) EnsureRegistrySchema(ctx context.Context) error {
	ddl, err := loadDDL(migrations.RegistryFS, migrations.RegistryDir)
	if err != nil {
		return err
	}
	for _, stmt := range ddl {
		if _, err := m.store.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: registry ddl: %w", err)
		}
	}
	return nil
}

// loadDDL lee los .sql embebidos en orden lexicográfico y separa statements
// por ';' a fin de línea. Suficiente para el DDL propio (sin functions).
func loadDDL(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var stmts []string
	for _, name := range names {
		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, raw := range strings.Split(string(b), ";") {
			stmt := strings.TrimSpace(raw)
			if stmt == "" {
				continue
			}
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// pgIdentifier sanitizes a string to be used as a PostgreSQL identifier.
func pgIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
