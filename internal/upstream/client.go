package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medibook/mobile-core/internal/model"
)

// APIError — отказ бэкенда в его собственном конверте {success, message}.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "backend rejected the request"
	}
	return e.Message
}

// Client — HTTP-клиент REST-бэкенда приложения.
// Авторизация — заголовок "token", как её ждёт бэкенд.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListDoctors забирает справочник врачей вместе с их slots_booked.
func (c *Client) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	var resp struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Doctors []model.Doctor `json:"doctors"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/doctor/list", "", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Message: resp.Message}
	}
	return resp.Doctors, nil
}

// ListAppointments забирает записи текущего пользователя.
func (c *Client) ListAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	var resp struct {
		Success      bool                `json:"success"`
		Message      string              `json:"message"`
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/appointments", token, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Message: resp.Message}
	}
	return resp.Appointments, nil
}

// BookAppointment бронирует слот. Валидность слота проверяет вызывающий,
// окончательное слово в любом случае за сервером.
func (c *Client) BookAppointment(ctx context.Context, token, doctorID, slotDate, slotTime string) error {
	body := map[string]string{
		"docId":    doctorID,
		"slotDate": slotDate,
		"slotTime": slotTime,
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/book-appointment", token, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{Message: resp.Message}
	}
	return nil
}

// CancelAppointment отменяет запись. Используется и пользователем,
// и фоновой сверкой просроченных записей.
func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID string) error {
	body := map[string]string{"appointmentId": appointmentID}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/cancel-appointment", token, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{Message: resp.Message}
	}
	return nil
}

// Login обменивает email/пароль на токен.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authRequest(ctx, "/api/user/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register создаёт пользователя и сразу возвращает токен.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	return c.authRequest(ctx, "/api/user/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// GetProfile забирает профиль владельца токена.
func (c *Client) GetProfile(ctx context.Context, token string) (model.User, error) {
	var resp struct {
		Success bool       `json:"success"`
		Message string     `json:"message"`
		User    model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/get-profile", token, nil, &resp); err != nil {
		return model.User{}, err
	}
	if !resp.Success {
		return model.User{}, &APIError{Message: resp.Message}
	}
	return resp.User, nil
}

func (c *Client) authRequest(ctx context.Context, path string, body map[string]string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Token == "" {
		return "", &APIError{Message: resp.Message}
	}
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("token", token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s %s: backend returned %d", method, path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
