package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/llm"
)

const ProviderName = "groq"

type Config struct {
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3-8b-8192"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type groqResponse struct {
	llm.ChatResponse
	Error *apiError `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (c *Client) Name() string {
	return ProviderName
}

func (c *Client) Complete(ctx context.Context, apiKey string, req llm.Request) (string, error) {
	chatReq := llm.NewChatRequest(c.model, req)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	respBody, statusCode, err := llm.DoRequest(c.client, httpReq)
	if err != nil {
		return "", err
	}

	if statusCode != http.StatusOK {
		return "", llm.HandleHTTPError(parseError(statusCode, respBody), respBody, c.logger)
	}

	var chatResp groqResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	// groq иногда отдает ошибку внутри 200
	if chatResp.Error != nil {
		return "", &llm.APIError{
			Provider:   ProviderName,
			StatusCode: statusCode,
			Code:       chatResp.Error.Code,
			Message:    chatResp.Error.Message,
		}
	}

	return llm.ExtractContent(&chatResp.ChatResponse)
}

func parseError(statusCode int, body []byte) *llm.APIError {
	apiErr := &llm.APIError{Provider: ProviderName, StatusCode: statusCode}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		if apiErr.Code == "" {
			apiErr.Code = env.Error.Type
		}
	}
	return apiErr
}

var _ llm.Provider = (*Client)(nil)
