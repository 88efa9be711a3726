package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/jarvis-bot/internal/llm"
)

// Provider - скриптуемый провайдер для тестов. Ответ и ошибка задаются на ключ.
type Provider struct {
	mu sync.Mutex

	Response string
	Error    error
	Delay    time.Duration

	responses map[string]string
	errors    map[string]error
	delays    map[string]time.Duration

	Calls []Call
}

type Call struct {
	APIKey  string
	Request llm.Request
}

func New() *Provider {
	return &Provider{
		Response:  "This is a mock response.",
		responses: make(map[string]string),
		errors:    make(map[string]error),
		delays:    make(map[string]time.Duration),
	}
}

func (p *Provider) WithResponse(response string) *Provider {
	p.Response = response
	return p
}

func (p *Provider) WithError(err error) *Provider {
	p.Error = err
	return p
}

func (p *Provider) WithDelay(delay time.Duration) *Provider {
	p.Delay = delay
	return p
}

func (p *Provider) WithKeyResponse(key, response string) *Provider {
	p.responses[key] = response
	return p
}

func (p *Provider) WithKeyError(key string, err error) *Provider {
	p.errors[key] = err
	return p
}

func (p *Provider) WithKeyDelay(key string, delay time.Duration) *Provider {
	p.delays[key] = delay
	return p
}

func (p *Provider) Name() string {
	return "mock"
}

func (p *Provider) Complete(ctx context.Context, apiKey string, req llm.Request) (string, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{APIKey: apiKey, Request: req})
	delay, ok := p.delays[apiKey]
	if !ok {
		delay = p.Delay
	}
	err, hasErr := p.errors[apiKey]
	if !hasErr {
		err = p.Error
	}
	resp, hasResp := p.responses[apiKey]
	if !hasResp {
		resp = p.Response
	}
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return "", err
	}
	return resp, nil
}

func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// Keys returns the keys in the order they were tried.
func (p *Provider) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.Calls))
	for _, c := range p.Calls {
		keys = append(keys, c.APIKey)
	}
	return keys
}

func (p *Provider) LastRequest() llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.Calls) == 0 {
		return llm.Request{}
	}
	return p.Calls[len(p.Calls)-1].Request
}

func (p *Provider) Reset() {
	p.mu.Lock()
	p.Calls = nil
	p.mu.Unlock()
}

var _ llm.Provider = (*Provider)(nil)
