package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medibook/mobile-core/internal/model"
	"github.com/medibook/mobile-core/internal/repository"
	"github.com/medibook/mobile-core/internal/schedule"
)

// DoctorSource — справочник врачей на бэкенде.
type DoctorSource interface {
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
}

// DoctorService отдаёт справочник врачей и недельную сетку доступности.
// Бэкенд — источник истины, локальный кэш — запасной вариант офлайна.
type DoctorService struct {
	source DoctorSource
	cache  repository.DoctorCache
	log    zerolog.Logger
	now    func() time.Time
}

func NewDoctorService(
	source DoctorSource,
	cache repository.DoctorCache,
	log zerolog.Logger,
	now func() time.Time,
) *DoctorService {
	if now == nil {
		now = time.Now
	}
	return &DoctorService{source: source, cache: cache, log: log, now: now}
}

func (s *DoctorService) RegisterRoutes(g *echo.Group) {
	g.GET("/doctors", s.List)
	g.GET("/doctors/:id", s.Get)
	g.GET("/doctors/:id/availability", s.Availability)
}

// GET /doctors?speciality=&page=&pageSize=
func (s *DoctorService) List(c echo.Context) error {
	doctors, stale, err := s.fetch(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "doctor list unavailable")
	}

	// Сравнение без учёта регистра: клиент шлёт специальность как есть.
	if want := c.QueryParam("speciality"); want != "" {
		filtered := make([]model.Doctor, 0, len(doctors))
		for _, d := range doctors {
			if strings.EqualFold(d.Speciality, want) {
				filtered = append(filtered, d)
			}
		}
		doctors = filtered
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))

	return c.JSON(http.StatusOK, echo.Map{
		"doctors": Paginate(doctors, page, pageSize),
		"stale":   stale,
	})
}

// GET /doctors/:id
func (s *DoctorService) Get(c echo.Context) error {
	doctor, err := s.lookup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doctor)
}

// GET /doctors/:id/availability?date=10_2_2026
// Без date — недельное окно с остатками, с date — ещё и пикер времени дня.
func (s *DoctorService) Availability(c echo.Context) error {
	doctor, err := s.lookup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}

	now := s.now()
	booked := schedule.BookedSlotsIndex(doctor.SlotsBooked.Data())

	days := schedule.GenerateWeek(now, booked)
	defaultDate, _ := schedule.DefaultSelection(days)

	resp := echo.Map{
		"doctorId":    doctor.ID,
		"available":   doctor.Available,
		"days":        days,
		"defaultDate": defaultDate,
	}

	if dateParam := c.QueryParam("date"); dateParam != "" {
		d, err := schedule.ParseEncodedDate(dateParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		resp["times"] = schedule.TimeOptions(d, now, booked[d.String()])
	}

	return c.JSON(http.StatusOK, resp)
}

// lookup ищет врача в свежей выдаче, при офлайне — в кэше.
func (s *DoctorService) lookup(ctx context.Context, id string) (*model.Doctor, error) {
	doctors, _, err := s.fetch(ctx)
	if err == nil {
		for i := range doctors {
			if doctors[i].ID == id {
				return &doctors[i], nil
			}
		}
	}
	return s.cache.GetByID(ctx, id)
}

// fetch тянет справочник с бэкенда и обновляет кэш; при сетевой ошибке
// отдаёт последний снапшот с признаком stale.
func (s *DoctorService) fetch(ctx context.Context) ([]model.Doctor, bool, error) {
	doctors, err := s.source.ListDoctors(ctx)
	if err == nil {
		fetchedAt := s.now()
		for i := range doctors {
			doctors[i].FetchedAt = fetchedAt
		}
		if cacheErr := s.cache.ReplaceAll(ctx, doctors); cacheErr != nil {
			s.log.Warn().Err(cacheErr).Msg("doctor cache update failed")
		}
		return doctors, false, nil
	}

	s.log.Warn().Err(err).Msg("doctor list fetch failed, serving cache")
	cached, cacheErr := s.cache.List(ctx)
	if cacheErr != nil {
		return nil, false, err
	}
	return cached, true, nil
}
