// Package user provides root-only user management plus the self-service
// profile picture endpoints.
package user

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler"
)

const (
	// Path is the base path for user administration.
	Path = handler.APIPath + "/admin/users"

	// ProfilePicturePath is the self-service profile picture endpoint.
	ProfilePicturePath = handler.APIPath + "/profile/picture"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25

	// MaxPageSize caps caller-provided page sizes.
	MaxPageSize = 100
)

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	recorder  *audit.Recorder
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, recorder *audit.Recorder) error {
	if app == nil || cfg == nil || db == nil || recorder == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.recorder = recorder
	s.validator = validator.New()

	app.Get(Path, rbac.RequireRoot(), s.List)
	app.Post(Path, rbac.RequireRoot(), s.Create)
	app.Put(Path+"/:id", rbac.RequireRoot(), s.Update)
	app.Delete(Path+"/:id", rbac.RequireRoot(), s.Delete)
	app.Put(Path+"/:id/password", rbac.RequireRoot(), s.UpdatePassword)

	app.Put(ProfilePicturePath, s.UpdateProfilePicture)
	app.Delete(ProfilePicturePath, s.DeleteProfilePicture)

	return nil
}

// List shows users with simple pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	search := c.Query("search")

	var (
		users      []models.User
		totalCount int64
		tx         = s.db.Model(&models.User{})
	)

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like,
		)
	}

	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count users failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load users"})
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * pageSize
	if err := tx.Order("id DESC").Limit(pageSize).Offset(offset).Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("query users failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load users"})
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"total":      totalCount,
		"page":       page,
		"totalPages": totalPages,
	})
}

type createRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Role      string `json:"role" validate:"required"`
	Active    bool   `json:"active"`
}

// Create creates a new user.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user data"})
	}

	role := models.Role(in.Role)
	if !role.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown role"})
	}

	if in.Username == models.RootUsername {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is reserved"})
	}

	user := models.User{
		Active:    in.Active,
		Username:  in.Username,
		Email:     in.Email,
		Password:  models.HashPassword(in.Password),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to create user"})
	}

	s.audit(c, audit.ActionCreate, strconv.FormatUint(user.ID, 10), "created user "+user.Username)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

type updateRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Role      string `json:"role" validate:"required"`
	Active    bool   `json:"active"`
}

// Update updates a user. The root account's role and active flag are
// immutable.
func (s *Service) Update(c *fiber.Ctx) error {
	user, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	var in updateRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user data"})
	}

	role := models.Role(in.Role)
	if !role.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown role"})
	}

	if user.IsRootAccount() && (role != user.Role || !in.Active) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "The root account cannot be demoted or deactivated"})
	}

	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Role = role
	user.Active = in.Active

	if err := s.db.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to update user"})
	}

	s.audit(c, audit.ActionUpdateUser, strconv.FormatUint(user.ID, 10), "updated user "+user.Username)

	return c.JSON(fiber.Map{"user": user})
}

// Delete removes a user. The root account and the acting user are protected.
func (s *Service) Delete(c *fiber.Ctx) error {
	user, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	if user.IsRootAccount() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "The root account cannot be deleted"})
	}

	if current, ok := rbac.CurrentUser(c); ok && current.ID == user.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot delete your own account"})
	}

	if err := s.db.Delete(&models.User{}, user.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	s.audit(c, audit.ActionDeleteUser, strconv.FormatUint(user.ID, 10), "deleted user "+user.Username)

	return c.JSON(fiber.Map{"message": "user deleted"})
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// UpdatePassword replaces a user's password.
func (s *Service) UpdatePassword(c *fiber.Ctx) error {
	user, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	var in passwordRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid password"})
	}

	user.Password = models.HashPassword(in.Password)

	if err := s.db.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}

	s.audit(c, audit.ActionUpdatePassword, strconv.FormatUint(user.ID, 10), "updated password of "+user.Username)

	return c.JSON(fiber.Map{"message": "password updated"})
}

type pictureRequest struct {
	ProfilePicture string `json:"profilePicture" validate:"required,max=512"`
}

// UpdateProfilePicture sets the acting user's own profile picture.
func (s *Service) UpdateProfilePicture(c *fiber.Ctx) error {
	current, ok := rbac.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var in pictureRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid profile picture"})
	}

	err := s.db.Model(&models.User{}).Where("id = ?", current.ID).
		Update("profile_picture", in.ProfilePicture).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile picture"})
	}

	s.audit(c, audit.ActionUpdateProfilePicture, strconv.FormatUint(current.ID, 10), "updated own profile picture")

	return c.JSON(fiber.Map{"message": "profile picture updated"})
}

// DeleteProfilePicture clears the acting user's own profile picture.
func (s *Service) DeleteProfilePicture(c *fiber.Ctx) error {
	current, ok := rbac.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	err := s.db.Model(&models.User{}).Where("id = ?", current.ID).
		Update("profile_picture", "").Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete profile picture"})
	}

	s.audit(c, audit.ActionDeleteProfilePicture, strconv.FormatUint(current.ID, 10), "deleted own profile picture")

	return c.JSON(fiber.Map{"message": "profile picture deleted"})
}

// loadTarget resolves the :id route parameter. On failure it writes the
// response itself and reports ok false.
func (s *Service) loadTarget(c *fiber.Ctx) (models.User, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
		return models.User{}, false
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
			return models.User{}, false
		}

		log.Error().Err(err).Msg("failed to load user")
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})

		return models.User{}, false
	}

	return user, true
}

func (s *Service) audit(c *fiber.Ctx, action audit.Action, resourceID, details string) {
	current, _ := rbac.CurrentUser(c)

	s.recorder.Record(audit.Descriptor{
		ActorID:       &current.ID,
		ActorUsername: current.Username,
		Action:        action,
		Module:        audit.ModuleUsers,
		ResourceID:    resourceID,
		Details:       details,
		IPAddress:     c.IP(),
	})
}
