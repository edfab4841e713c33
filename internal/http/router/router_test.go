package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	"github.com/dropDatabas3/workplane/internal/http/handlers"
	"github.com/dropDatabas3/workplane/internal/http/router"
	"github.com/dropDatabas3/workplane/internal/registry"
	"github.com/dropDatabas3/workplane/internal/security/password"
	"github.com/dropDatabas3/workplane/internal/store"
	"github.com/dropDatabas3/workplane/internal/token"
)

// ─── Fakes de storage en memoria ───

type memTenantStore struct {
	mu   sync.Mutex
	byID map[string]*repository.Tenant
}

func (f *memTenantStore) GetByName(_ context.Context, name string) (*repository.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *memTenantStore) GetByID(_ context.Context, id string) (*repository.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *memTenantStore) Insert(_ context.Context, t *repository.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.byID {
		if ex.Name == t.Name || ex.NamespaceID == t.NamespaceID {
			return repository.ErrConflict
		}
	}
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *memTenantStore) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsActive = active
	return nil
}

func (f *memTenantStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *memTenantStore) List(_ context.Context) ([]repository.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Tenant, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, *t)
	}
	return out, nil
}

type memSchemas struct {
	mu         sync.Mutex
	namespaces map[string]bool
}

func (f *memSchemas) CreateNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.namespaces[ns] = true
	return nil
}

func (f *memSchemas) DropNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.namespaces, ns)
	return nil
}

func (f *memSchemas) NamespaceExists(_ context.Context, ns string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.namespaces[ns], nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*repository.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]*repository.User{}} }

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == in.Email {
			return nil, repository.ErrConflict
		}
	}
	r.seq++
	u := &repository.User{
		ID:           fmt.Sprintf("u-%d", r.seq),
		Email:        in.Email,
		FullName:     in.FullName,
		Role:         in.Role,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	r.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Update(_ context.Context, id string, in repository.UpdateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) List(_ context.Context) ([]repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

type memEmployeeRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*repository.Employee
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{rows: map[string]*repository.Employee{}}
}

func (r *memEmployeeRepo) GetByID(_ context.Context, id string) (*repository.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memEmployeeRepo) Create(_ context.Context, in repository.CreateEmployeeInput) (*repository.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e := &repository.Employee{
		ID:       fmt.Sprintf("e-%d", r.seq),
		Email:    in.Email,
		FullName: in.FullName,
		OwnerID:  in.OwnerID,
	}
	r.rows[e.ID] = e
	cp := *e
	return &cp, nil
}

func (r *memEmployeeRepo) List(_ context.Context) ([]repository.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Employee, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, *e)
	}
	return out, nil
}

func (r *memEmployeeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// memModelCache construye ModelSets con repos en memoria por namespace.
type memModelCache struct {
	mu    sync.Mutex
	sets  map[string]*store.ModelSet
	users map[string]*memUserRepo
}

func newMemModelCache() *memModelCache {
	return &memModelCache{sets: map[string]*store.ModelSet{}, users: map[string]*memUserRepo{}}
}

func (c *memModelCache) GetOrLoad(_ context.Context, ns, tid string) (*store.ModelSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms, ok := c.sets[ns]; ok {
		return ms, nil
	}
	ur := newMemUserRepo()
	c.users[ns] = ur
	ms := store.NewModelSet(ns, tid, newMemEmployeeRepo(), ur, func(context.Context) error { return nil })
	c.sets[ns] = ms
	return ms, nil
}

func (c *memModelCache) Invalidate(ns string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sets[ns]
	delete(c.sets, ns)
	delete(c.users, ns)
	return ok
}

// ─── Armado del stack ───

type env struct {
	srv    *httptest.Server
	svc    *registry.Service
	tokens *token.Service
	cache  *memModelCache
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cache := newMemModelCache()
	svc, err := registry.New(registry.Config{
		Store:     &memTenantStore{byID: map[string]*repository.Tenant{}},
		Schemas:   &memSchemas{namespaces: map[string]bool{}},
		Models:    cache,
		LookupTTL: time.Minute,
	})
	require.NoError(t, err)

	tokens, err := token.New(token.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "workplane",
		TTL:    time.Hour,
		Leeway: time.Second,
	})
	require.NoError(t, err)

	handler := router.New(router.Deps{
		Resolver:     registry.NewResolver(svc, 200*time.Millisecond),
		Tokens:       tokens,
		TenantHeader: "X-Tenant-ID",
		Auth:         handlers.NewAuthHandler(tokens),
		Tenants:      handlers.NewTenantsHandler(svc, nil),
		Employees:    handlers.NewEmployeesHandler(),
		Users:        handlers.NewUsersHandler(password.Default),
		Health:       handlers.NewHealthHandler(nil),
	})

	e := &env{srv: httptest.NewServer(handler), svc: svc, tokens: tokens, cache: cache}
	t.Cleanup(e.srv.Close)
	return e
}

// seedTenant crea el tenant y un usuario con el rol pedido; devuelve el
// tenant y el id del usuario.
func (e *env) seedTenant(t *testing.T, name, email, pass, role string) (*repository.Tenant, string) {
	t.Helper()
	tenant, err := e.svc.Create(context.Background(), registry.CreateInput{Name: name})
	require.NoError(t, err)

	hash, err := password.Hash(password.Default, pass)
	require.NoError(t, err)
	ur := e.cache.users[tenant.NamespaceID]
	require.NotNil(t, ur)
	u, err := ur.Create(context.Background(), repository.CreateUserInput{
		Email: email, Role: role, PasswordHash: hash,
	})
	require.NoError(t, err)
	return tenant, u.ID
}

func (e *env) do(t *testing.T, method, path, tenant, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (e *env) login(t *testing.T, tenant, email, pass string) string {
	t.Helper()
	resp, out := e.do(t, http.MethodPost, "/v1/auth/login", tenant, "", map[string]string{
		"email": email, "password": pass,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login: %v", out)
	tok, _ := out["access_token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

// ─── Máquina de estados del request ───

func TestMissingTenantHeader(t *testing.T) {
	e := newEnv(t)
	resp, out := e.do(t, http.MethodGet, "/v1/employees", "", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "TENANT_ID_MISSING", out["code"])
}

func TestUnknownTenant(t *testing.T) {
	e := newEnv(t)
	resp, out := e.do(t, http.MethodGet, "/v1/employees", "nadie", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "TENANT_NOT_FOUND", out["code"])
}

func TestInvalidTenantIdentifier(t *testing.T) {
	e := newEnv(t)
	resp, out := e.do(t, http.MethodGet, "/v1/employees", "en tero!", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "TENANT_ID_INVALID", out["code"])
}

func TestInactiveTenantRejected(t *testing.T) {
	e := newEnv(t)
	tenant, _ := e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")
	require.NoError(t, e.svc.Deactivate(context.Background(), tenant.ID))

	resp, out := e.do(t, http.MethodGet, "/v1/employees", "acme-co", "", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "TENANT_INACTIVE", out["code"])
}

func TestBusinessRouteWithoutToken(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")

	resp, out := e.do(t, http.MethodGet, "/v1/employees", "acme-co", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "TOKEN_MISSING", out["code"])
}

func TestCrossTenantTokenRejected(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")
	e.seedTenant(t, "other-co", "bob@other.co", "s3creta!", "user")

	tok := e.login(t, "acme-co", "ana@acme.co", "s3creta!")

	// Token válido de acme-co contra other-co: mismatch obligatorio.
	resp, out := e.do(t, http.MethodGet, "/v1/employees", "other-co", tok, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "TOKEN_TENANT_MISMATCH", out["code"])
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")

	resp, out := e.do(t, http.MethodPost, "/v1/auth/login", "acme-co", "", map[string]string{
		"email": "ana@acme.co", "password": "otra",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "INVALID_CREDENTIALS", out["code"])
}

func TestLoginUnknownEmailSameResponse(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")

	resp, out := e.do(t, http.MethodPost, "/v1/auth/login", "acme-co", "", map[string]string{
		"email": "nadie@acme.co", "password": "s3creta!",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "INVALID_CREDENTIALS", out["code"])
}

// ─── Pipeline completo ───

func TestFullPipelineHappyPath(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "manager")

	tok := e.login(t, "acme-co", "ana@acme.co", "s3creta!")

	resp, out := e.do(t, http.MethodPost, "/v1/employees", "acme-co", tok, map[string]string{
		"email": "emp@acme.co", "fullName": "Empleada Uno",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create: %v", out)

	resp, _ = e.do(t, http.MethodGet, "/v1/employees", "acme-co", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInsufficientRole(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")
	tok := e.login(t, "acme-co", "ana@acme.co", "s3creta!")

	// user puede listar pero no crear (manager+).
	resp, _ := e.do(t, http.MethodGet, "/v1/employees", "acme-co", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := e.do(t, http.MethodPost, "/v1/employees", "acme-co", tok, map[string]string{
		"email": "emp@acme.co", "fullName": "Empleada Uno",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "INSUFFICIENT_ROLE", out["code"])
}

func TestOwnershipOnUserRoutes(t *testing.T) {
	e := newEnv(t)
	_, anaID := e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")
	tok := e.login(t, "acme-co", "ana@acme.co", "s3creta!")

	// Su propio perfil: permitido.
	resp, _ := e.do(t, http.MethodGet, "/v1/users/"+anaID, "acme-co", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// El perfil de otro: denegado.
	resp, out := e.do(t, http.MethodGet, "/v1/users/u-otro", "acme-co", tok, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "INSUFFICIENT_PERMISSIONS", out["code"])
}

func TestAdminSurfaceRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "manager")
	tok := e.login(t, "acme-co", "ana@acme.co", "s3creta!")

	resp, out := e.do(t, http.MethodGet, "/v1/admin/tenants", "acme-co", tok, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "INSUFFICIENT_ROLE", out["code"])
}

func TestAdminCreatesTenantViaAPI(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "root@acme.co", "s3creta!", "admin")
	tok := e.login(t, "acme-co", "root@acme.co", "s3creta!")

	resp, out := e.do(t, http.MethodPost, "/v1/admin/tenants", "acme-co", tok, map[string]string{
		"name": "nueva-co",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create: %v", out)
	require.Equal(t, "nuevaco", out["namespaceId"])

	// Nombre que deriva a un namespace reservado: 409 y sin residuo.
	resp, out = e.do(t, http.MethodPost, "/v1/admin/tenants", "acme-co", tok, map[string]string{
		"name": "acme_co",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "CONFLICT", out["code"])
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, out := e.do(t, http.MethodGet, "/healthz", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", out["status"])
}

func TestExpiredTokenRejected(t *testing.T) {
	e := newEnv(t)
	e.seedTenant(t, "acme-co", "ana@acme.co", "s3creta!", "user")

	// TTL de 1ms: el token ya está vencido cuando llega el request. El
	// leeway del verificador es de 1s, así que hay que superar eso.
	expired, err := token.New(token.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "workplane",
		TTL:    time.Millisecond,
	})
	require.NoError(t, err)
	tenant, err := e.svc.FindByName(context.Background(), "acme-co")
	require.NoError(t, err)
	signed, _, err := expired.Issue(token.IssueInput{
		UserID: "u-1", TenantID: tenant.ID, TenantName: "acme-co",
	})
	require.NoError(t, err)
	time.Sleep(1200 * time.Millisecond)

	resp, out := e.do(t, http.MethodGet, "/v1/employees", "acme-co", signed, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "TOKEN_EXPIRED", out["code"])
}
