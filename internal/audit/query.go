package audit

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
)

const (
	// DefaultPageSize is used when the caller does not provide a limit.
	DefaultPageSize = 20
	// MaxPageSize caps caller-provided limits.
	MaxPageSize = 100

	dateLayout = "2006-01-02"
)

// Filters narrow an audit log query. All filters are conjunctive. Dates are
// calendar dates ("2006-01-02"), inclusive on both ends.
type Filters struct {
	Page      int
	Limit     int
	Module    string
	Action    string
	Username  string
	StartDate string
	EndDate   string
}

// Result is one page of a filtered audit log query. Total and TotalPages
// reflect the filtered count, not the table size.
type Result struct {
	Logs       []models.AuditLog `json:"logs"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// QueryService provides paginated, filtered read access to the audit log
// plus the administrative clear operation.
type QueryService struct {
	db *gorm.DB
}

// NewQueryService creates a new QueryService.
func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

// Query returns one page of entries matching f, newest first.
func (s *QueryService) Query(f Filters) (Result, error) {
	if f.Page < 1 {
		f.Page = 1
	}

	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}

	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	tx := s.db.Model(&models.AuditLog{})

	if f.Module != "" {
		tx = tx.Where("module = ?", f.Module)
	}

	if f.Action != "" {
		tx = tx.Where("action = ?", f.Action)
	}

	if f.Username != "" {
		tx = tx.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(f.Username)+"%")
	}

	if f.StartDate != "" {
		start, err := time.ParseInLocation(dateLayout, f.StartDate, time.Local)
		if err != nil {
			return Result{}, fmt.Errorf("%w: startDate %q", ErrInvalidDate, f.StartDate)
		}

		tx = tx.Where("timestamp >= ?", start)
	}

	if f.EndDate != "" {
		end, err := time.ParseInLocation(dateLayout, f.EndDate, time.Local)
		if err != nil {
			return Result{}, fmt.Errorf("%w: endDate %q", ErrInvalidDate, f.EndDate)
		}

		// inclusive calendar date: anything before the next day counts
		tx = tx.Where("timestamp < ?", end.AddDate(0, 0, 1))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Result{}, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog

	err := tx.Order("timestamp DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&logs).Error
	if err != nil {
		return Result{}, fmt.Errorf("failed to query audit logs: %w", err)
	}

	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))

	return Result{
		Logs:       logs,
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages,
	}, nil
}

// ClearAll irreversibly deletes every audit log row. The operation itself is
// audit-exempt: clearing the log never logs an entry about the clearing.
func (s *QueryService) ClearAll() error {
	if err := s.db.Where("1 = 1").Delete(&models.AuditLog{}).Error; err != nil {
		return fmt.Errorf("failed to clear audit logs: %w", err)
	}

	return nil
}
