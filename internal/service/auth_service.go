package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medibook/mobile-core/internal/auth"
	"github.com/medibook/mobile-core/internal/model"
	"github.com/medibook/mobile-core/internal/repository"
	"github.com/medibook/mobile-core/internal/upstream"
)

// AuthBackend — аутентификация и профиль на бэкенде.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	GetProfile(ctx context.Context, token string) (model.User, error)
}

// AuthService — прокси логина/регистрации и профиль с офлайн-кэшем.
// Пароли нигде не сохраняются, токен живёт у клиента.
type AuthService struct {
	backend AuthBackend
	users   repository.UserCache
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(
	backend AuthBackend,
	users repository.UserCache,
	log zerolog.Logger,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{backend: backend, users: users, log: log, now: now}
}

// RegisterRoutes: public — без токена, protected — за RequireToken.
func (s *AuthService) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/auth/login", s.Login)
	public.POST("/auth/register", s.Register)
	protected.GET("/profile", s.Profile)
	protected.POST("/auth/logout", s.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/login
func (s *AuthService) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	ctx := c.Request().Context()
	token, err := s.backend.Login(ctx, req.Email, req.Password)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			return echo.NewHTTPError(http.StatusUnauthorized, apiErr.Message)
		}
		return echo.NewHTTPError(http.StatusBadGateway, "login failed")
	}

	s.cacheProfile(ctx, token)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "token": token})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/register
func (s *AuthService) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	ctx := c.Request().Context()
	token, err := s.backend.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			return echo.NewHTTPError(http.StatusConflict, apiErr.Message)
		}
		return echo.NewHTTPError(http.StatusBadGateway, "registration failed")
	}

	s.cacheProfile(ctx, token)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "token": token})
}

// GET /profile
func (s *AuthService) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	token := auth.TokenFromContext(c)

	user, err := s.backend.GetProfile(ctx, token)
	if err == nil {
		user.FetchedAt = s.now()
		if cacheErr := s.users.Save(ctx, &user); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Msg("profile cache update failed")
		}
		return c.JSON(http.StatusOK, echo.Map{"user": user, "stale": false})
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		// Бэкенд токен не признал: сбрасываем кэш, клиент разлогинится.
		if clearErr := s.users.Clear(ctx); clearErr != nil {
			s.log.Warn().Err(clearErr).Msg("profile cache clear failed")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, apiErr.Message)
	}

	s.log.Warn().Err(err).Msg("profile fetch failed, serving cache")
	cached, cacheErr := s.users.Get(ctx)
	if cacheErr != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "profile unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": cached, "stale": true})
}

// POST /auth/logout — чисто локальная операция, бэкенд не участвует.
func (s *AuthService) Logout(c echo.Context) error {
	if err := s.users.Clear(c.Request().Context()); err != nil {
		s.log.Warn().Err(err).Msg("profile cache clear failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *AuthService) cacheProfile(ctx context.Context, token string) {
	user, err := s.backend.GetProfile(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Msg("profile fetch after auth failed")
		return
	}
	user.FetchedAt = s.now()
	if err := s.users.Save(ctx, &user); err != nil {
		s.log.Warn().Err(err).Msg("profile cache update failed")
	}
}
