package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medibook/mobile-core/internal/auth"
	"github.com/medibook/mobile-core/internal/model"
	"github.com/medibook/mobile-core/internal/reconcile"
	"github.com/medibook/mobile-core/internal/repository"
	"github.com/medibook/mobile-core/internal/schedule"
	"github.com/medibook/mobile-core/internal/upstream"
)

// AppointmentSource — операции бэкенда над записями пользователя.
// Отмена сюда не входит: все отмены идут через реконсилер.
type AppointmentSource interface {
	ListAppointments(ctx context.Context, token string) ([]model.Appointment, error)
	BookAppointment(ctx context.Context, token, doctorID, slotDate, slotTime string) error
}

// Представление записи для UI: снапшот плюс вычисленный статус.
type AppointmentView struct {
	model.Appointment
	Status model.DerivedStatus `json:"status"`
}

// AppointmentService — списки записей с вычисленными статусами,
// бронирование и отмена. Просроченные неоплаченные записи он отменяет
// сам: локально сразу, на сервере — фоновой сверкой.
type AppointmentService struct {
	source     AppointmentSource
	doctors    *DoctorService
	cache      repository.AppointmentCache
	events     repository.EventLog
	reconciler *reconcile.Reconciler
	log        zerolog.Logger
	now        func() time.Time
}

func NewAppointmentService(
	source AppointmentSource,
	doctors *DoctorService,
	cache repository.AppointmentCache,
	events repository.EventLog,
	reconciler *reconcile.Reconciler,
	log zerolog.Logger,
	now func() time.Time,
) *AppointmentService {
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		source:     source,
		doctors:    doctors,
		cache:      cache,
		events:     events,
		reconciler: reconciler,
		log:        log,
		now:        now,
	}
}

func (s *AppointmentService) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments", s.List)
	g.POST("/appointments", s.Book)
	g.POST("/appointments/:id/cancel", s.Cancel)
}

// GET /appointments?filter=upcoming|past|all
func (s *AppointmentService) List(c echo.Context) error {
	filter := schedule.Filter(c.QueryParam("filter"))
	if filter == "" {
		filter = schedule.FilterUpcoming
	}
	switch filter {
	case schedule.FilterUpcoming, schedule.FilterPast, schedule.FilterAll:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown filter")
	}

	ctx := c.Request().Context()
	token := auth.TokenFromContext(c)

	appts, stale, err := s.fetch(ctx, token)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "appointments unavailable")
	}

	now := s.now()

	// Просроченные неоплаченные: сразу отменяем локально, чтобы список
	// был консистентным, и запускаем фоновую сверку с сервером.
	if missed := schedule.FindMissed(appts, now); len(missed) > 0 {
		missedSet := make(map[string]struct{}, len(missed))
		for _, id := range missed {
			missedSet[id] = struct{}{}
		}
		for i := range appts {
			if _, ok := missedSet[appts[i].ID]; ok {
				appts[i].Cancelled = true
			}
		}
		for _, id := range missed {
			if err := s.cache.MarkCancelled(ctx, id); err != nil {
				s.log.Warn().Err(err).Str("appointment_id", id).Msg("local auto-cancel failed")
			}
			if err := s.events.Append(ctx, model.EventTypeAppointmentAutoCancelled, id, "missed unpaid slot"); err != nil {
				s.log.Warn().Err(err).Msg("event log append failed")
			}
		}
		s.reconciler.Dispatch(context.WithoutCancel(ctx), token, missed)
	}

	filtered := schedule.Partition(appts, filter, now)
	views := make([]AppointmentView, 0, len(filtered))
	for _, a := range filtered {
		views = append(views, AppointmentView{Appointment: a, Status: schedule.ResolveStatus(a, now)})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"appointments": views,
		"stale":        stale,
	})
}

type bookRequest struct {
	DoctorID string `json:"doctorId"`
	SlotDate string `json:"slotDate"`
	SlotTime string `json:"slotTime"`
}

// POST /appointments
func (s *AppointmentService) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DoctorID == "" || req.SlotDate == "" || req.SlotTime == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctorId, slotDate and slotTime are required")
	}

	ctx := c.Request().Context()

	doctor, err := s.doctors.lookup(ctx, req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if !doctor.Available {
		return echo.NewHTTPError(http.StatusConflict, "doctor is not available for appointments")
	}

	d, err := schedule.ParseEncodedDate(req.SlotDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slotDate")
	}

	booked := schedule.BookedSlotsIndex(doctor.SlotsBooked.Data())
	if err := schedule.ValidateSelection(d, req.SlotTime, s.now(), booked); err != nil {
		switch {
		case errors.Is(err, schedule.ErrSlotBooked):
			return echo.NewHTTPError(http.StatusConflict, "slot is already booked")
		case errors.Is(err, schedule.ErrSlotInPast):
			return echo.NewHTTPError(http.StatusBadRequest, "slot is in the past")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid slotTime")
		}
	}

	token := auth.TokenFromContext(c)
	if err := s.source.BookAppointment(ctx, token, req.DoctorID, d.String(), req.SlotTime); err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			return echo.NewHTTPError(http.StatusConflict, apiErr.Message)
		}
		return echo.NewHTTPError(http.StatusBadGateway, "booking failed")
	}

	details := fmt.Sprintf("doctor %s, %s %s", req.DoctorID, d.String(), req.SlotTime)
	if err := s.events.Append(ctx, model.EventTypeAppointmentBooked, "", details); err != nil {
		s.log.Warn().Err(err).Msg("event log append failed")
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// POST /appointments/:id/cancel — отмена по инициативе пользователя.
// Пока по записи летит любая отмена, повторная подача блокируется.
func (s *AppointmentService) Cancel(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment id is required")
	}
	ctx := c.Request().Context()
	token := auth.TokenFromContext(c)

	// Слот занятости берём у реконсилера: он один следит за тем, чтобы
	// по записи не летело двух отмен сразу, чья бы она ни была.
	if err := s.reconciler.RunSync(ctx, token, id); err != nil {
		if errors.Is(err, reconcile.ErrAlreadyInFlight) {
			return echo.NewHTTPError(http.StatusConflict, "cancellation already in progress")
		}
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			return echo.NewHTTPError(http.StatusConflict, apiErr.Message)
		}
		return echo.NewHTTPError(http.StatusBadGateway, "cancellation failed")
	}

	if err := s.cache.MarkCancelled(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", id).Msg("local cancel mark failed")
	}
	if err := s.events.Append(ctx, model.EventTypeAppointmentCancelled, id, "cancelled by user"); err != nil {
		s.log.Warn().Err(err).Msg("event log append failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// fetch тянет записи с бэкенда и обновляет кэш; при сетевой ошибке
// отдаёт последний снапшот с признаком stale.
func (s *AppointmentService) fetch(ctx context.Context, token string) ([]model.Appointment, bool, error) {
	appts, err := s.source.ListAppointments(ctx, token)
	if err == nil {
		fetchedAt := s.now()
		for i := range appts {
			appts[i].FetchedAt = fetchedAt
		}
		if cacheErr := s.cache.ReplaceAll(ctx, appts); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Msg("appointment cache update failed")
		}
		return appts, false, nil
	}

	s.log.Warn().Err(err).Msg("appointment fetch failed, serving cache")
	cached, cacheErr := s.cache.List(ctx)
	if cacheErr != nil {
		return nil, false, err
	}
	return cached, true, nil
}
