package service

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medibook/mobile-core/internal/assistant"
	"github.com/medibook/mobile-core/internal/repository"
)

// AssistantService — чат с заглушкой симптом-ассистента
// и локальная история действий.
type AssistantService struct {
	responder *assistant.Responder
	events    repository.EventLog
}

func NewAssistantService(responder *assistant.Responder, events repository.EventLog) *AssistantService {
	return &AssistantService{responder: responder, events: events}
}

func (s *AssistantService) RegisterRoutes(g *echo.Group) {
	g.POST("/assistant/messages", s.Chat)
	g.GET("/history", s.History)
}

type chatRequest struct {
	Message string `json:"message"`
}

// POST /assistant/messages
func (s *AssistantService) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"reply": s.responder.Respond(req.Message),
	})
}

// GET /history?limit=
func (s *AssistantService) History(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := s.events.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "history unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}
