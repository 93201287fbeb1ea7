package entity

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
	require.NoError(t, db.AutoMigrate(
		&models.Entity{}, &models.AuditLog{}, &models.Setting{}, &models.ModulePermission{}))

	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(rbac.CurrentUserKey, actor)
		return c.Next()
	})

	rbacService := rbac.NewService(db)
	recorder := audit.NewRecorder(db, audit.NewCache(db))
	require.NoError(t, Init(app, &config.Config{}, db, rbacService, recorder))

	return app, db
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return req
}

func tester() models.User {
	return models.User{ID: 2, Username: "tessa", Role: models.RoleTester}
}

func lastAuditEntry(t *testing.T, db *gorm.DB) models.AuditLog {
	t.Helper()

	var entry models.AuditLog
	require.NoError(t, db.Order("id DESC").First(&entry).Error)

	return entry
}

func TestCreateIsGatedPerModule(t *testing.T) {
	// default permissions: testers may use versions but not manuals
	app, db := setupTestApp(t, tester())

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/versions",
		`{"title":"Release 1.2.3","payload":{"notes":"first"}}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/manuals",
		`{"title":"Operator manual"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Entity{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateWritesAuditEntryWithModuleTag(t *testing.T) {
	app, db := setupTestApp(t, tester())

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/versions",
		`{"title":"Release 1.2.3"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "CREATE", entry.Action)
	assert.Equal(t, "VERSIONS", entry.Module)
	assert.Equal(t, "tessa", entry.Username)
	assert.Equal(t, "Release 1.2.3", entry.Details)
}

func TestUpdateAndDelete(t *testing.T) {
	app, db := setupTestApp(t, tester())

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/tests",
		`{"title":"Smoke suite"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodPut, "/api/tests/1",
		`{"title":"Smoke suite v2"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "UPDATE", entry.Action)
	assert.Equal(t, "TEST_PLANS", entry.Module)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/tests/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	entry = lastAuditEntry(t, db)
	assert.Equal(t, "DELETE", entry.Action)

	var count int64
	require.NoError(t, db.Model(&models.Entity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDuplicate(t *testing.T) {
	app, db := setupTestApp(t, tester())

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/builds",
		`{"title":"Build 42","payload":{"artifact":"a.zip"}}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/builds/1/duplicate", ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out struct {
		Entry models.Entity `json:"entry"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Build 42 (copy)", out.Entry.Title)
	assert.JSONEq(t, `{"artifact":"a.zip"}`, string(out.Entry.Payload))

	entry := lastAuditEntry(t, db)
	assert.Equal(t, "DUPLICATE", entry.Action)
	assert.Equal(t, "BUILDS", entry.Module)
}

func TestEntitiesAreScopedToTheirModule(t *testing.T) {
	app, db := setupTestApp(t, tester())

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/versions",
		`{"title":"Release 1.2.3"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// the same entity id is invisible from another module's routes
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/tests/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var stored models.Entity
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, rbac.ModuleVersions, stored.Module)
}
