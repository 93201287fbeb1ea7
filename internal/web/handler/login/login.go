// Package login provides the authentication endpoints: password login and
// self-service registration.
package login

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler"
	"github.com/qadesk-admin/qadesk-admin/internal/web/session"
)

const (
	// Path is the login endpoint.
	Path = handler.APIPath + "/login"

	// RegisterPath is the self-service registration endpoint.
	RegisterPath = handler.APIPath + "/register"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	recorder  *audit.Recorder
	validator *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, recorder *audit.Recorder) error {
	if app == nil || cfg == nil || db == nil || recorder == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.recorder = recorder
	s.validator = validator.New()

	app.Post(Path, s.Login)
	app.Post(RegisterPath, s.Register)

	return nil
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies the credentials, writes a fresh session and sets the session
// cookie. Logging in again after an inactivity expiry resumes with a new
// session; the old entry is removed from storage.
func (s *Service) Login(c *fiber.Ctx) error {
	var in loginRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username and password are required"})
	}

	var dbUser models.User
	if err := s.db.Where("username = ?", in.Username).First(&dbUser).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrInvalidCredentials.Error()})
	}

	if !dbUser.Active {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrAccountInactive.Error()})
	}

	if !dbUser.VerifyPassword(in.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrInvalidCredentials.Error()})
	}

	// drop the previous session, expired or not
	if old := c.Cookies(session.CookieName); old != "" {
		if err := session.Destroy(old); err != nil {
			log.Error().Err(err).Msg("failed to delete previous session")
		}
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	userSession := &session.Data{
		User:         dbUser,
		LastActivity: time.Now(),
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	s.recorder.Record(audit.Descriptor{
		ActorID:       &dbUser.ID,
		ActorUsername: dbUser.Username,
		Action:        audit.ActionLogin,
		Module:        audit.ModuleAuth,
		Details:       "user logged in",
		IPAddress:     c.IP(),
	})

	return c.JSON(fiber.Map{"user": dbUser})
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

// Register creates a new account. Self-registered accounts always start as
// active viewers; only an administrator can assign another role later.
func (s *Service) Register(c *fiber.Ctx) error {
	var in registerRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidRegistration.Error()})
	}

	if in.Username == models.RootUsername {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrUsernameTaken.Error()})
	}

	user := models.User{
		Active:    true,
		Username:  in.Username,
		Email:     in.Email,
		Password:  models.HashPassword(in.Password),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      models.RoleViewer,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrUsernameTaken.Error()})
	}

	s.recorder.Record(audit.Descriptor{
		ActorID:       &user.ID,
		ActorUsername: user.Username,
		Action:        audit.ActionRegister,
		Module:        audit.ModuleAuth,
		Details:       "user registered",
		IPAddress:     c.IP(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}
