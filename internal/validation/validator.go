package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"cinebook/internal/logger"
	"cinebook/internal/models"
)

const defaultBaseURL = "http://localhost:8080"

// check - ожидаемый ответ одного маршрута
type check struct {
	method   string
	path     string
	status   int
	location string
}

// SmokeValidator - проверка запущенного экземпляра: публичные страницы,
// редиректы защищенных маршрутов и, при наличии учетных данных, вход.
type SmokeValidator struct {
	baseURL  string
	client   *http.Client
	account  string
	password string
}

// NewSmokeValidator создает новый валидатор
func NewSmokeValidator(baseURL string) *SmokeValidator {
	jar, _ := cookiejar.New(nil)
	return &SmokeValidator{
		baseURL: baseURL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// WithCredentials включает проверку входа и профиля.
func (v *SmokeValidator) WithCredentials(account, password string) *SmokeValidator {
	v.account = account
	v.password = password
	return v
}

// ValidateAll проверяет все группы маршрутов
func (v *SmokeValidator) ValidateAll(ctx context.Context) error {
	log := logger.WithFields("base_url", v.baseURL)
	log.Info("Начинаю проверку экземпляра")

	if err := v.run(ctx, "public", []check{
		{method: http.MethodGet, path: "/health", status: http.StatusOK},
		{method: http.MethodGet, path: "/", status: http.StatusOK},
		{method: http.MethodGet, path: "/list-movie", status: http.StatusOK},
		{method: http.MethodGet, path: "/cinemas", status: http.StatusOK},
		{method: http.MethodGet, path: "/news", status: http.StatusOK},
		{method: http.MethodGet, path: "/theme", status: http.StatusOK},
	}); err != nil {
		return fmt.Errorf("public routes: %w", err)
	}

	if err := v.run(ctx, "guards", []check{
		{method: http.MethodGet, path: "/profile", status: http.StatusFound, location: "/login"},
		{method: http.MethodGet, path: "/dat-ve/1", status: http.StatusFound, location: "/login"},
		{method: http.MethodGet, path: "/admin", status: http.StatusFound, location: "/admin/login"},
		{method: http.MethodGet, path: "/admin/films", status: http.StatusFound, location: "/admin/login"},
	}); err != nil {
		return fmt.Errorf("route guards: %w", err)
	}

	if v.account != "" {
		if err := v.validateLogin(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	log.Info("✅ Все проверки пройдены")
	return nil
}

func (v *SmokeValidator) run(ctx context.Context, group string, checks []check) error {
	for _, ch := range checks {
		resp, err := v.makeRequest(ctx, ch.method, ch.path, nil)
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode != ch.status {
			return fmt.Errorf("%s %s: expected %d, got %d", ch.method, ch.path, ch.status, resp.StatusCode)
		}
		if ch.location != "" && resp.Header.Get("Location") != ch.location {
			return fmt.Errorf("%s %s: expected redirect to %s, got %q", ch.method, ch.path, ch.location, resp.Header.Get("Location"))
		}
	}

	logger.Get().Info("✅ Группа маршрутов валидна", "group", group, "checks", len(checks))
	return nil
}

func (v *SmokeValidator) validateLogin(ctx context.Context) error {
	resp, err := v.makeRequest(ctx, http.MethodPost, "/login", models.LoginRequest{Account: v.account, Password: v.password})
	if err != nil {
		return err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /login: expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp, err = v.makeRequest(ctx, http.MethodGet, "/profile", nil)
	if err != nil {
		return err
	}
	var acc models.Account
	err = json.NewDecoder(resp.Body).Decode(&acc)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /profile: expected 200, got %d", resp.StatusCode)
	}
	if err != nil {
		return fmt.Errorf("GET /profile: failed to decode response: %w", err)
	}
	if acc.User.Account != v.account {
		return fmt.Errorf("GET /profile: expected account %s, got %s", v.account, acc.User.Account)
	}

	resp, err = v.makeRequest(ctx, http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /logout: expected 200, got %d", resp.StatusCode)
	}

	logger.Get().Info("✅ Вход и профиль валидны", "account", v.account)
	return nil
}

func (v *SmokeValidator) makeRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// RunValidation запускает проверку экземпляра. Адрес берется из первого
// аргумента или VALIDATE_BASE_URL, учетные данные из VALIDATE_ACCOUNT и
// VALIDATE_PASSWORD.
func RunValidation(args []string) {
	baseURL := os.Getenv("VALIDATE_BASE_URL")
	if len(args) > 0 {
		baseURL = args[0]
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	v := NewSmokeValidator(baseURL)
	if account := os.Getenv("VALIDATE_ACCOUNT"); account != "" {
		v.WithCredentials(account, os.Getenv("VALIDATE_PASSWORD"))
	}

	if err := v.ValidateAll(context.Background()); err != nil {
		logger.Fatal("❌ Проверка не пройдена", "error", err)
	}
}
