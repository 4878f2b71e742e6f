package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medibook/mobile-core/internal/model"
	"github.com/medibook/mobile-core/internal/reconcile"
	"github.com/medibook/mobile-core/internal/repository"
)

// Сегодня в тестах — 10_2_2026, 09:30.
var testNow = time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC)

type fakeBackend struct {
	mu sync.Mutex

	doctors  []model.Doctor
	appts    []model.Appointment
	listErr  error
	bookErr  error
	cancels  []string
	bookings []string

	// Если заданы, отмена сигналит о входе и ждёт освобождения.
	cancelStarted chan struct{}
	cancelRelease chan struct{}
}

func (f *fakeBackend) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.doctors, nil
}

func (f *fakeBackend) ListAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.appts, nil
}

func (f *fakeBackend) BookAppointment(ctx context.Context, token, doctorID, slotDate, slotTime string) error {
	if f.bookErr != nil {
		return f.bookErr
	}
	f.mu.Lock()
	f.bookings = append(f.bookings, doctorID+"/"+slotDate+"/"+slotTime)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) CancelAppointment(ctx context.Context, token, id string) error {
	if f.cancelStarted != nil {
		f.cancelStarted <- struct{}{}
	}
	if f.cancelRelease != nil {
		<-f.cancelRelease
	}
	f.mu.Lock()
	f.cancels = append(f.cancels, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cancels))
	copy(out, f.cancels)
	return out
}

type testEnv struct {
	db         *gorm.DB
	backend    *fakeBackend
	appts      *AppointmentService
	doctors    *DoctorService
	apptCache  repository.AppointmentCache
	reconciler *reconcile.Reconciler
	events     repository.EventLog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	backend := &fakeBackend{}
	now := func() time.Time { return testNow }
	log := zerolog.Nop()

	doctorCache := repository.NewGormDoctorCache(db)
	apptCache := repository.NewGormAppointmentCache(db)
	events := repository.NewGormEventLog(db, now)
	reconciler := reconcile.NewReconciler(backend, log)

	doctors := NewDoctorService(backend, doctorCache, log, now)
	appts := NewAppointmentService(backend, doctors, apptCache, events, reconciler, log, now)

	return &testEnv{
		db:         db,
		backend:    backend,
		appts:      appts,
		doctors:    doctors,
		apptCache:  apptCache,
		reconciler: reconciler,
		events:     events,
	}
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string, token string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if token != "" {
		c.Set("auth_token", token)
	}
	return rec, handler(c)
}

func TestAppointmentList_AutoCancelsMissed(t *testing.T) {
	env := newTestEnv(t)
	env.backend.appts = []model.Appointment{
		{ID: "missed", SlotDate: "10_2_2026", SlotTime: "09:00"},
		{ID: "upcoming", SlotDate: "10_2_2026", SlotTime: "11:00", Paid: true},
		{ID: "old-done", SlotDate: "1_2_2026", SlotTime: "12:00", IsCompleted: true},
	}

	rec, err := doJSON(t, env.appts.List, http.MethodGet, "/api/appointments?filter=upcoming", "", "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Appointments []AppointmentView `json:"appointments"`
		Stale        bool              `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Просроченная и завершённая записи в upcoming не попадают.
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "upcoming", resp.Appointments[0].ID)
	assert.Equal(t, model.StatusConfirmed, resp.Appointments[0].Status)
	assert.False(t, resp.Stale)

	// Фоновая отмена просроченной должна быть отправлена на бэкенд.
	env.reconciler.Wait()
	assert.Equal(t, []string{"missed"}, env.backend.cancelled())

	// И локально запись уже отменена.
	cached, err := env.apptCache.List(context.Background())
	require.NoError(t, err)
	for _, a := range cached {
		if a.ID == "missed" {
			assert.True(t, a.Cancelled)
		}
	}
}

func TestAppointmentList_PaidPastNeverAutoCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.backend.appts = []model.Appointment{
		{ID: "paid-old", SlotDate: "1_2_2026", SlotTime: "12:00", Paid: true},
	}

	rec, err := doJSON(t, env.appts.List, http.MethodGet, "/api/appointments?filter=all", "", "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	env.reconciler.Wait()
	assert.Empty(t, env.backend.cancelled())
}

func TestAppointmentList_ServesCacheWhenBackendDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.apptCache.ReplaceAll(ctx, []model.Appointment{
		{ID: "cached", SlotDate: "12_2_2026", SlotTime: "10:00"},
	}))
	env.backend.listErr = errors.New("network down")

	rec, err := doJSON(t, env.appts.List, http.MethodGet, "/api/appointments?filter=all", "", "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Appointments []AppointmentView `json:"appointments"`
		Stale        bool              `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "cached", resp.Appointments[0].ID)
	assert.True(t, resp.Stale)
}

func TestAppointmentList_UnknownFilterRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := doJSON(t, env.appts.List, http.MethodGet, "/api/appointments?filter=bogus", "", "tok")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func testDoctor() model.Doctor {
	return model.Doctor{
		ID:        "doc1",
		Name:      "Dr. Sarah Johnson",
		Available: true,
		Fees:      500,
		SlotsBooked: datatypes.NewJSONType(map[string][]string{
			"10_2_2026": {"16:00"},
		}),
	}
}

func TestBook_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.backend.doctors = []model.Doctor{testDoctor()}

	rec, err := doJSON(t, env.appts.Book, http.MethodPost, "/api/appointments",
		`{"doctorId":"doc1","slotDate":"10_2_2026","slotTime":"15:00"}`, "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"doc1/10_2_2026/15:00"}, env.backend.bookings)

	events, err := env.events.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeAppointmentBooked, events[0].EventType)
}

func TestBook_RejectsBookedAndPastSlots(t *testing.T) {
	env := newTestEnv(t)
	env.backend.doctors = []model.Doctor{testDoctor()}

	// Слот занят у врача.
	_, err := doJSON(t, env.appts.Book, http.MethodPost, "/api/appointments",
		`{"doctorId":"doc1","slotDate":"10_2_2026","slotTime":"16:00"}`, "tok")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)

	// Час уже прошёл (сейчас 09:30, слот 09:00).
	_, err = doJSON(t, env.appts.Book, http.MethodPost, "/api/appointments",
		`{"doctorId":"doc1","slotDate":"10_2_2026","slotTime":"09:00"}`, "tok")
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	assert.Empty(t, env.backend.bookings)
}

func TestBook_UnavailableDoctorRejected(t *testing.T) {
	env := newTestEnv(t)
	doc := testDoctor()
	doc.Available = false
	env.backend.doctors = []model.Doctor{doc}

	_, err := doJSON(t, env.appts.Book, http.MethodPost, "/api/appointments",
		`{"doctorId":"doc1","slotDate":"10_2_2026","slotTime":"15:00"}`, "tok")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func cancelRequest(env *testEnv, id string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+id+"/cancel", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("auth_token", "tok")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return rec, env.appts.Cancel(c)
}

func TestCancel_ConcurrentDuplicateSuppressed(t *testing.T) {
	env := newTestEnv(t)
	env.backend.cancelStarted = make(chan struct{}, 1)
	env.backend.cancelRelease = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := cancelRequest(env, "a1")
		firstDone <- err
	}()

	// Первая отмена застряла внутри бэкенда.
	<-env.backend.cancelStarted

	// Повторная подача по той же записи отбивается сразу.
	_, err := cancelRequest(env, "a1")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)

	close(env.backend.cancelRelease)
	require.NoError(t, <-firstDone)

	// До бэкенда дошла ровно одна отмена.
	assert.Equal(t, []string{"a1"}, env.backend.cancelled())
}

func TestCancel_UserInitiated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.apptCache.ReplaceAll(ctx, []model.Appointment{
		{ID: "a1", SlotDate: "12_2_2026", SlotTime: "10:00"},
	}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/appointments/a1/cancel", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("auth_token", "tok")
	c.SetParamNames("id")
	c.SetParamValues("a1")

	require.NoError(t, env.appts.Cancel(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a1"}, env.backend.cancelled())

	cached, err := env.apptCache.List(ctx)
	require.NoError(t, err)
	assert.True(t, cached[0].Cancelled)
}
