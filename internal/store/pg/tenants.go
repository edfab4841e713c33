package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
)

// TenantStore implementa repository.TenantStore sobre la tabla public.tenants.
type TenantStore struct{ store *Store }

// NewTenantStore crea el acceso al directorio de tenants.
func NewTenantStore(s *Store) *TenantStore { return &TenantStore{store: s} }

const tenantCols = `id, name, namespace_id, contact_email, is_active, plan_type, metadata, created_by, created_at, updated_at`

func (ts *TenantStore) GetByName(ctx context.Context, name string) (*repository.Tenant, error) {
	row := ts.store.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE name = $1`, name)
	return scanTenant(row)
}

func (ts *TenantStore) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	row := ts.store.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func (ts *TenantStore) Insert(ctx context.Context, t *repository.Tenant) error {
	var meta []byte
	if len(t.Metadata) > 0 {
		meta, _ = json.Marshal(t.Metadata)
	}
	_, err := ts.store.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, namespace_id, contact_email, is_active, plan_type, metadata, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.Name, t.NamespaceID, nullable(t.ContactEmail), t.IsActive,
		nullable(t.PlanType), meta, nullable(t.CreatedBy), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant %q: %w", t.Name, repository.ErrConflict)
		}
		return err
	}
	return nil
}

func (ts *TenantStore) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := ts.store.pool.Exec(ctx,
		`UPDATE tenants SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (ts *TenantStore) Delete(ctx context.Context, id string) error {
	tag, err := ts.store.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (ts *TenantStore) List(ctx context.Context) ([]repository.Tenant, error) {
	rows, err := ts.store.pool.Query(ctx,
		`SELECT `+tenantCols+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTenant(row rowScanner) (*repository.Tenant, error) {
	var t repository.Tenant
	var contactEmail, planType, createdBy *string
	var meta []byte
	var createdAt, updatedAt time.Time

	err := row.Scan(&t.ID, &t.Name, &t.NamespaceID, &contactEmail, &t.IsActive,
		&planType, &meta, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	t.ContactEmail = deref(contactEmail)
	t.PlanType = deref(planType)
	t.CreatedBy = deref(createdBy)
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &t.Metadata)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
