package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crmcore/internal/bootstrap"
	"crmcore/internal/config"
	"crmcore/internal/models"
	"crmcore/internal/store"
)

type apiEnv struct {
	db     *gorm.DB
	router http.Handler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Permission{}, &models.Role{}, &models.RolePermission{},
		&models.User{}, &models.RefreshToken{},
		&models.Customer{}, &models.Contact{}, &models.ServiceType{}, &models.Job{},
	))
	cfg := config.Config{
		AccessSecret:       "test-access-secret",
		RefreshSecret:      "test-refresh-secret",
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         72 * time.Hour,
		SuperAdminUsername: "admin",
		SuperAdminPassword: "secret123",
	}
	lg := zap.NewNop().Sugar()
	require.NoError(t, bootstrap.Run(db, cfg, lg))
	return &apiEnv{db: db, router: NewRouter(db, nil, cfg, lg)}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.AccessToken
}

func TestAssignPermissionsRejectsUnknownIDs(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	token := e.login(t, "admin", "secret123")

	rec := e.do(t, http.MethodPost, "/roles", token, map[string]string{"name": "Sales"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/roles/%d/permissions", role.ID), token,
		map[string]any{"permissions": []uint{1, 2, 999}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody struct {
		MissingPermissions []uint `json:"missingPermissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, []uint{999}, errBody.MissingPermissions)

	// Nothing was applied.
	rec = e.do(t, http.MethodGet, fmt.Sprintf("/roles/%d", role.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Permissions)
}

func TestDeleteRoleHeldByOtherUser(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	token := e.login(t, "admin", "secret123")

	rec := e.do(t, http.MethodPost, "/roles", token, map[string]string{"name": "Sales"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))

	rec = e.do(t, http.MethodPost, "/users", token, map[string]any{
		"username": "bob", "password": "pw123456", "role_id": role.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/roles/%d", role.ID), token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody struct {
		AssignedUsers struct {
			Count     int      `json:"count"`
			Usernames []string `json:"usernames"`
		} `json:"assignedUsers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, 1, errBody.AssignedUsers.Count)
	assert.Equal(t, []string{"bob"}, errBody.AssignedUsers.Usernames)

	// Role still exists.
	rec = e.do(t, http.MethodGet, fmt.Sprintf("/roles/%d", role.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteOwnRoleForbidden(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	token := e.login(t, "admin", "secret123")

	var role models.Role
	require.NoError(t, e.db.First(&role, "name = ?", store.SuperAdminRoleName).Error)

	rec := e.do(t, http.MethodDelete, fmt.Sprintf("/roles/%d", role.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionGateDeniesUnauthorizedRole(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin := e.login(t, "admin", "secret123")

	// Role with only CUSTOMER_VIEW.
	rec := e.do(t, http.MethodPost, "/roles", admin, map[string]string{"name": "Viewer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))

	var perm models.Permission
	require.NoError(t, e.db.First(&perm, "code = ?", "CUSTOMER_VIEW").Error)
	rec = e.do(t, http.MethodPost, fmt.Sprintf("/roles/%d/permissions", role.ID), admin,
		map[string]any{"permissions": []uint{perm.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", admin, map[string]any{
		"username": "viewer", "password": "pw123456", "role_id": role.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	viewer := e.login(t, "viewer", "pw123456")

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/customers", viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden,
		e.do(t, http.MethodPost, "/customers", viewer, map[string]string{"name": "Acme"}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/users", viewer, nil).Code)

	// Any authenticated caller may list roles; anonymous may not.
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/roles", viewer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/roles", "", nil).Code)
}

func TestPermissionRevocationAppliesOnNextLogin(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin := e.login(t, "admin", "secret123")

	rec := e.do(t, http.MethodPost, "/roles", admin, map[string]string{"name": "Ops"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))

	var perm models.Permission
	require.NoError(t, e.db.First(&perm, "code = ?", "JOB_VIEW").Error)
	rec = e.do(t, http.MethodPost, fmt.Sprintf("/roles/%d/permissions", role.ID), admin,
		map[string]any{"permissions": []uint{perm.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", admin, map[string]any{
		"username": "ops", "password": "pw123456", "role_id": role.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	ops := e.login(t, "ops", "pw123456")
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/jobs", ops, nil).Code)

	// Clearing the role's permissions takes effect on the very next
	// request; the live store query is the decision point.
	rec = e.do(t, http.MethodPost, fmt.Sprintf("/roles/%d/permissions", role.ID), admin,
		map[string]any{"permissions": []uint{}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/jobs", ops, nil).Code)
}

func TestUpdateContactAndServiceType(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin := e.login(t, "admin", "secret123")

	rec := e.do(t, http.MethodPost, "/customers", admin, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var customer models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customer))

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/customers/%d/contacts", customer.ID), admin,
		map[string]string{"name": "Jo", "position": "Buyer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var contact models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contact))

	rec = e.do(t, http.MethodPut, fmt.Sprintf("/contacts/%d", contact.ID), admin,
		map[string]string{"position": "Manager", "phone": "555-0101"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var gotContact models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gotContact))
	assert.Equal(t, "Jo", gotContact.Name)
	assert.Equal(t, "Manager", gotContact.Position)
	assert.Equal(t, "555-0101", gotContact.Phone)

	rec = e.do(t, http.MethodPost, "/service-types", admin, map[string]string{"name": "Install"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var st models.ServiceType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))

	rec = e.do(t, http.MethodPut, fmt.Sprintf("/service-types/%d", st.ID), admin,
		map[string]string{"description": "On-site install"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var gotST models.ServiceType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gotST))
	assert.Equal(t, "Install", gotST.Name)
	assert.Equal(t, "On-site install", gotST.Description)

	assert.Equal(t, http.StatusNotFound,
		e.do(t, http.MethodPut, "/contacts/9999", admin, map[string]string{"phone": "x"}).Code)
	assert.Equal(t, http.StatusNotFound,
		e.do(t, http.MethodPut, "/service-types/9999", admin, map[string]string{"description": "x"}).Code)
}

func TestUpdateContactAndServiceTypeRequirePermission(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin := e.login(t, "admin", "secret123")

	rec := e.do(t, http.MethodPost, "/roles", admin, map[string]string{"name": "Viewer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var role models.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))

	var perm models.Permission
	require.NoError(t, e.db.First(&perm, "code = ?", "CONTACT_VIEW").Error)
	rec = e.do(t, http.MethodPost, fmt.Sprintf("/roles/%d/permissions", role.ID), admin,
		map[string]any{"permissions": []uint{perm.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", admin, map[string]any{
		"username": "viewer", "password": "pw123456", "role_id": role.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	viewer := e.login(t, "viewer", "pw123456")
	assert.Equal(t, http.StatusForbidden,
		e.do(t, http.MethodPut, "/contacts/1", viewer, map[string]string{"phone": "x"}).Code)
	assert.Equal(t, http.StatusForbidden,
		e.do(t, http.MethodPut, "/service-types/1", viewer, map[string]string{"description": "x"}).Code)
}

func TestSelfDeleteForbidden(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin := e.login(t, "admin", "secret123")

	var u models.User
	require.NoError(t, e.db.First(&u, "username = ?", "admin").Error)
	rec := e.do(t, http.MethodDelete, "/users/"+u.ID, admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
