package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	"github.com/dropDatabas3/workplane/internal/store"
)

// ErrNamespaceMissing: el schema del namespace no existe en storage.
// La construcción del ModelSet falla y el cache NO retiene nada; el
// próximo intento vuelve a construir.
var ErrNamespaceMissing = errors.New("pg: namespace schema does not exist")

// LoadModelSet construye el ModelSet completo de un namespace. Verifica
// primero que el schema exista: nunca se devuelve un set apuntando a un
// namespace fantasma.
func (s *Store) LoadModelSet(ctx context.Context, namespaceID, tenantID string) (*store.ModelSet, error) {
	sm := NewSchemaManager(s)
	exists, err := sm.NamespaceExists(ctx, namespaceID)
	if err != nil {
		return nil, fmt.Errorf("pg: namespace check %s: %w", namespaceID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceMissing, namespaceID)
	}

	schema := pgIdentifier(namespaceID)
	set := store.NewModelSet(
		namespaceID,
		tenantID,
		&employeeRepo{store: s, schema: schema},
		&userRepo{store: s, schema: schema},
		s.namespaceProbe(namespaceID),
	)
	return set, nil
}

// namespaceProbe: existencia del schema vía information_schema. Barato y
// sin tocar datos del tenant.
func (s *Store) namespaceProbe(namespaceID string) store.ProbeFunc {
	return func(ctx context.Context) error {
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
			namespaceID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("pg: probe %s: %w", namespaceID, err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrNamespaceMissing, namespaceID)
		}
		return nil
	}
}

// ─── Employee handle ───

type employeeRepo struct {
	store  *Store
	schema string // pre-quoted
}

const employeeCols = `id, email, full_name, owner_id, created_at, updated_at`

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*repository.Employee, error) {
	row := r.store.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s.employee WHERE id = $1`, employeeCols, r.schema), id)
	return scanEmployee(row)
}

func (r *employeeRepo) Create(ctx context.Context, in repository.CreateEmployeeInput) (*repository.Employee, error) {
	e := &repository.Employee{
		ID:        uuid.NewString(),
		Email:     in.Email,
		FullName:  in.FullName,
		OwnerID:   in.OwnerID,
		CreatedAt: time.Now().UTC(),
	}
	e.UpdatedAt = e.CreatedAt
	_, err := r.store.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s.employee (id, email, full_name, owner_id, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`, r.schema),
		e.ID, e.Email, e.FullName, nullable(e.OwnerID), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *employeeRepo) List(ctx context.Context) ([]repository.Employee, error) {
	rows, err := r.store.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s.employee ORDER BY created_at`, employeeCols, r.schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *employeeRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.store.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s.employee WHERE id = $1`, r.schema), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanEmployee(row rowScanner) (*repository.Employee, error) {
	var e repository.Employee
	var owner *string
	err := row.Scan(&e.ID, &e.Email, &e.FullName, &owner, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	e.OwnerID = deref(owner)
	return &e, nil
}

// ─── User handle ───

type userRepo struct {
	store  *Store
	schema string // pre-quoted
}

const userCols = `id, email, full_name, role, password_hash, created_at, updated_at`

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.store.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s.app_user WHERE email = $1`, userCols, r.schema), email)
	return scanUser(row)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	row := r.store.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s.app_user WHERE id = $1`, userCols, r.schema), id)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FullName:     in.FullName,
		Role:         in.Role,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	u.UpdatedAt = u.CreatedAt
	_, err := r.store.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s.app_user (id, email, full_name, role, password_hash, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.schema),
		u.ID, u.Email, nullable(u.FullName), u.Role, nullable(u.PasswordHash), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", in.Email, repository.ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, id string, in repository.UpdateUserInput) (*repository.User, error) {
	if in.FullName != nil {
		if _, err := r.store.pool.Exec(ctx,
			fmt.Sprintf(`UPDATE %s.app_user SET full_name = $2, updated_at = now() WHERE id = $1`, r.schema),
			id, *in.FullName); err != nil {
			return nil, err
		}
	}
	if in.Role != nil {
		if _, err := r.store.pool.Exec(ctx,
			fmt.Sprintf(`UPDATE %s.app_user SET role = $2, updated_at = now() WHERE id = $1`, r.schema),
			id, *in.Role); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *userRepo) List(ctx context.Context) ([]repository.User, error) {
	rows, err := r.store.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s.app_user ORDER BY created_at`, userCols, r.schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (*repository.User, error) {
	var u repository.User
	var fullName, hash *string
	err := row.Scan(&u.ID, &u.Email, &fullName, &u.Role, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.FullName = deref(fullName)
	u.PasswordHash = deref(hash)
	return &u, nil
}
