package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
)

func seedEntries(t *testing.T, db *gorm.DB, entries []models.AuditLog) {
	t.Helper()

	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}
}

func TestQueryPagination(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	// 45 rows, oldest first so descending order is deterministic
	entries := make([]models.AuditLog, 45)
	for i := range entries {
		entries[i] = models.AuditLog{
			Username:   "alice",
			Action:     string(ActionCreate),
			Module:     string(ModuleVersions),
			ResourceID: fmt.Sprintf("%d", i+1),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}
	}
	seedEntries(t, db, entries)

	result, err := service.Query(Filters{Page: 2, Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(45), result.Total)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 3, result.TotalPages)
	require.Len(t, result.Logs, 20)

	// newest first: page 2 holds rows 21..40 of the descending order,
	// which are the entries seeded at positions 25 down to 6
	assert.Equal(t, "25", result.Logs[0].ResourceID)
	assert.Equal(t, "6", result.Logs[19].ResourceID)
}

func TestQueryDefaultsAndCaps(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	seedEntries(t, db, []models.AuditLog{
		{Username: "alice", Action: string(ActionCreate), Module: string(ModuleDocs), Timestamp: time.Now()},
	})

	// page and limit below range fall back to defaults
	result, err := service.Query(Filters{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.TotalPages)

	// limit above the cap is clamped, not rejected
	result, err = service.Query(Filters{Page: 1, Limit: 10_000})
	require.NoError(t, err)
	assert.Len(t, result.Logs, 1)
}

func TestQueryFiltersAreConjunctive(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	now := time.Now()
	seedEntries(t, db, []models.AuditLog{
		{Username: "alice", Action: string(ActionLogin), Module: string(ModuleAuth), Timestamp: now},
		{Username: "alice", Action: string(ActionCreate), Module: string(ModuleVersions), Timestamp: now},
		{Username: "bob", Action: string(ActionLogin), Module: string(ModuleAuth), Timestamp: now},
	})

	result, err := service.Query(Filters{Page: 1, Limit: 20, Module: string(ModuleAuth), Username: "alice"})
	require.NoError(t, err)

	require.Len(t, result.Logs, 1)
	assert.Equal(t, "alice", result.Logs[0].Username)
	assert.Equal(t, string(ModuleAuth), result.Logs[0].Module)
	assert.Equal(t, int64(1), result.Total)
}

func TestQueryUsernamePartialMatchIsCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	seedEntries(t, db, []models.AuditLog{
		{Username: "Alice.Smith", Action: string(ActionCreate), Module: string(ModuleDocs), Timestamp: time.Now()},
		{Username: "bob", Action: string(ActionCreate), Module: string(ModuleDocs), Timestamp: time.Now()},
	})

	result, err := service.Query(Filters{Page: 1, Limit: 20, Username: "ALICE"})
	require.NoError(t, err)

	require.Len(t, result.Logs, 1)
	assert.Equal(t, "Alice.Smith", result.Logs[0].Username)
}

func TestQueryDateRangeIsInclusiveCalendarDates(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	seedEntries(t, db, []models.AuditLog{
		{Username: "a", Action: string(ActionCreate), Module: string(ModuleDocs),
			Timestamp: time.Date(2026, 2, 28, 23, 59, 0, 0, time.Local)},
		{Username: "b", Action: string(ActionCreate), Module: string(ModuleDocs),
			Timestamp: time.Date(2026, 3, 1, 0, 30, 0, 0, time.Local)},
		{Username: "c", Action: string(ActionCreate), Module: string(ModuleDocs),
			Timestamp: time.Date(2026, 3, 2, 23, 30, 0, 0, time.Local)},
		{Username: "d", Action: string(ActionCreate), Module: string(ModuleDocs),
			Timestamp: time.Date(2026, 3, 3, 0, 1, 0, 0, time.Local)},
	})

	result, err := service.Query(Filters{Page: 1, Limit: 20, StartDate: "2026-03-01", EndDate: "2026-03-02"})
	require.NoError(t, err)

	// both boundary days included as whole calendar days
	require.Len(t, result.Logs, 2)
	assert.Equal(t, int64(2), result.Total)
}

func TestQueryRejectsBadDates(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	_, err := service.Query(Filters{Page: 1, Limit: 20, StartDate: "03/01/2026"})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = service.Query(Filters{Page: 1, Limit: 20, EndDate: "yesterday"})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestClearAll(t *testing.T) {
	db := setupTestDB(t)
	service := NewQueryService(db)

	seedEntries(t, db, []models.AuditLog{
		{Username: "alice", Action: string(ActionCreate), Module: string(ModuleDocs), Timestamp: time.Now()},
		{Username: "bob", Action: string(ActionDelete), Module: string(ModuleUsers), Timestamp: time.Now()},
	})

	require.NoError(t, service.ClearAll())

	// table is empty and clearing produced no entry about itself
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}
