package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
)

func setupTestApp(t *testing.T, actor models.User) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}, &models.Setting{}))

	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(rbac.CurrentUserKey, actor)
		return c.Next()
	})

	s := &Service{}
	require.NoError(t, s.Init(app, &config.Config{}, db, audit.NewRecorder(db, audit.NewCache(db))))

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, user models.User) models.User {
	t.Helper()

	require.NoError(t, db.Create(&user).Error)

	return user
}

func rootActor(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	return seedUser(t, db, models.User{
		Active:   true,
		Username: models.RootUsername,
		Password: models.HashPassword("rootpass123"),
		Role:     models.RoleRoot,
	})
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return req
}

func lastAuditEntry(t *testing.T, db *gorm.DB) models.AuditLog {
	t.Helper()

	var entry models.AuditLog
	require.NoError(t, db.Order("id DESC").First(&entry).Error)

	return entry
}

func TestAdminRoutesRequireRoot(t *testing.T) {
	app, _ := setupTestApp(t, models.User{ID: 2, Username: "alice", Role: models.RoleAdmin})

	for _, req := range []*http.Request{
		httptest.NewRequest(fiber.MethodGet, Path, nil),
		jsonRequest(fiber.MethodPost, Path, `{}`),
		jsonRequest(fiber.MethodPut, Path+"/2", `{}`),
		httptest.NewRequest(fiber.MethodDelete, Path+"/2", nil),
		jsonRequest(fiber.MethodPut, Path+"/2/password", `{}`),
	} {
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}

func TestCreateUser(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootActor(t, db)

	resp, err := app.Test(jsonRequest(fiber.MethodPost, Path,
		`{"username":"tessa","email":"tessa@example.com","password":"topsecret123","role":"tester","active":true}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.User
	require.NoError(t, db.Where("username = ?", "tessa").First(&created).Error)
	assert.Equal(t, models.RoleTester, created.Role)
	assert.True(t, created.VerifyPassword("topsecret123"))

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "CREATE", entry.Action)
	assert.Equal(t, "USERS", entry.Module)
}

func TestCreateUserRejectsUnknownRoleAndReservedName(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootActor(t, db)

	for _, body := range []string{
		`{"username":"tessa","email":"t@example.com","password":"topsecret123","role":"superuser","active":true}`,
		`{"username":"root","email":"r@example.com","password":"topsecret123","role":"admin","active":true}`,
	} {
		resp, err := app.Test(jsonRequest(fiber.MethodPost, Path, body))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestUpdateUserProtectsRootAccount(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootUser := rootActor(t, db)

	resp, err := app.Test(jsonRequest(fiber.MethodPut, Path+"/1",
		`{"email":"root@example.com","role":"viewer","active":true}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var unchanged models.User
	require.NoError(t, db.First(&unchanged, rootUser.ID).Error)
	assert.Equal(t, models.RoleRoot, unchanged.Role)
}

func TestUpdateUser(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootActor(t, db)
	target := seedUser(t, db, models.User{Active: true, Username: "tessa", Role: models.RoleTester})

	resp, err := app.Test(jsonRequest(fiber.MethodPut, Path+"/2",
		`{"email":"tessa@example.com","role":"support","active":false}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, db.First(&updated, target.ID).Error)
	assert.Equal(t, models.RoleSupport, updated.Role)
	assert.False(t, updated.Active)

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "UPDATE_USER", entry.Action)
}

func TestDeleteUserProtections(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootActor(t, db)
	seedUser(t, db, models.User{Active: true, Username: "tessa", Role: models.RoleTester})

	// root account can never be deleted
	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, Path+"/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// a regular account can
	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, Path+"/2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "DELETE_USER", entry.Action)
}

func TestUpdatePassword(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootActor(t, db)
	target := seedUser(t, db, models.User{Active: true, Username: "tessa", Role: models.RoleTester})

	resp, err := app.Test(jsonRequest(fiber.MethodPut, Path+"/2/password", `{"password":"newsecret456"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, db.First(&updated, target.ID).Error)
	assert.True(t, updated.VerifyPassword("newsecret456"))

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "UPDATE_PASSWORD", entry.Action)
}

func TestProfilePictureSelfService(t *testing.T) {
	actor := models.User{ID: 2, Username: "tessa", Role: models.RoleTester}
	app, db := setupTestApp(t, actor)
	rootActor(t, db)
	seedUser(t, db, models.User{Active: true, Username: "tessa", Role: models.RoleTester})

	resp, err := app.Test(jsonRequest(fiber.MethodPut, ProfilePicturePath,
		`{"profilePicture":"/static/avatars/tessa.png"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, db.First(&updated, actor.ID).Error)
	assert.Equal(t, "/static/avatars/tessa.png", updated.ProfilePicture)

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "UPDATE_PROFILE_PICTURE", entry.Action)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, ProfilePicturePath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&updated, actor.ID).Error)
	assert.Empty(t, updated.ProfilePicture)

	entry = lastAuditEntry(t, db)
	assert.Equal(t, "DELETE_PROFILE_PICTURE", entry.Action)
}

func TestListPaginationAndSearch(t *testing.T) {
	app, db := setupTestApp(t, models.User{ID: 1, Username: models.RootUsername, Role: models.RoleRoot})
	rootActor(t, db)

	for _, name := range []string{"tessa", "tom", "alice"} {
		seedUser(t, db, models.User{Active: true, Username: name, Role: models.RoleViewer})
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, Path+"?search=TES", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Users []models.User `json:"users"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "tessa", out.Users[0].Username)
}
