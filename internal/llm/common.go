package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"
)

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Stream      bool      `json:"stream"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

func NewChatRequest(model string, req Request) ChatRequest {
	msgs := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, Message{Role: m.Role.String(), Content: m.Content})
	}

	return ChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
		TopP:        req.Params.TopP,
		Stop:        req.Params.Stop,
	}
}

// APIError - ошибка, которую вернул провайдер. Unwrap отдает sentinel,
// по которому failover решает, менять ключ или нет.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: status %d (%s): %s", e.Provider, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "organization_restricted":
		return ErrOrgRestricted
	case e.Code == "rate_limit_exceeded", e.Status == "RESOURCE_EXHAUSTED",
		e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimit
	case e.Code == "invalid_api_key", e.Code == "API_KEY_INVALID",
		e.Status == "UNAUTHENTICATED", e.Status == "PERMISSION_DENIED",
		e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrAuthFailed
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusNotFound,
		e.StatusCode == http.StatusUnprocessableEntity:
		return ErrBadRequest
	default:
		return ErrRequestFailed
	}
}

func HandleHTTPError(apiErr *APIError, body []byte, logger *zap.Logger) error {
	logger.Warn(apiErr.Provider+" request failed",
		zap.Int("status", apiErr.StatusCode),
		zap.String("code", apiErr.Code),
		zap.String("body", truncate(string(body), 512)),
	)
	return apiErr
}

func ParseChatResponse(body []byte) (*ChatResponse, error) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func ExtractContent(resp *ChatResponse) (string, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func DoRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		// ctx ошибки пробрасываем как есть, чтобы failover отличил таймаут попытки
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		if isTimeout(err) {
			return nil, 0, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, resp.StatusCode, ctxErr
		}
		if isTimeout(err) {
			return nil, resp.StatusCode, fmt.Errorf("%w: read response: %v", ErrTimeout, err)
		}
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// isTimeout ловит таймаут самого http.Client, когда ctx запроса еще жив
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// MaskKey оставляет только последние 4 символа ключа для логов.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
