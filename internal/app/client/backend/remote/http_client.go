package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

// APIError - ответ сервера со статусом >= 400
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// Is сопоставляет статус с доменными ошибками
func (e *APIError) Is(target error) bool {
	switch target {
	case card.ErrNotFound:
		return e.Status == http.StatusNotFound
	case card.ErrForbidden:
		return e.Status == http.StatusForbidden
	case backend.ErrNoSession:
		return e.Status == http.StatusUnauthorized
	case card.ErrValidation:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// problem - тело ошибки huma (RFC 9457)
type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
}

func (p problem) message() string {
	parts := make([]string, 0, len(p.Errors)+1)
	if p.Detail != "" {
		parts = append(parts, p.Detail)
	} else if p.Title != "" {
		parts = append(parts, p.Title)
	}
	for _, e := range p.Errors {
		if e.Location != "" {
			parts = append(parts, e.Location+": "+e.Message)
			continue
		}
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func newHTTPClient(baseURL string, client *http.Client, log *slog.Logger) *httpClient {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		}
	}

	return &httpClient{
		client:    client,
		log:       log,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "cardkeeper-client/1.0",
	}
}

func (h *httpClient) setToken(token string) {
	h.token = token
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"size", len(body),
	)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var p problem
		if err := json.Unmarshal(body, &p); err == nil {
			apiErr.Message = p.message()
		}
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}

// call объединяет doRequest и parseResponse
func (h *httpClient) call(ctx context.Context, method, path string, body, result any) error {
	resp, err := h.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, result)
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
