package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/failover"
	"github.com/kitbuilder587/jarvis-bot/internal/llm"
	"github.com/kitbuilder587/jarvis-bot/internal/llm/mock"
	"github.com/kitbuilder587/jarvis-bot/internal/repository"
)

type chatFixture struct {
	provider      *mock.Provider
	conversations *repository.MemoryConversationRepository
	profiles      *repository.MemoryProfileRepository
	svc           ChatService
}

func newChatFixture(t *testing.T, p *mock.Provider, keys []string, cfg ChatConfig) *chatFixture {
	t.Helper()

	client, err := failover.New(p, failover.Config{Credentials: keys}, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("failover.New() error = %v", err)
	}

	f := &chatFixture{
		provider:      p,
		conversations: repository.NewMemoryConversationRepository(),
		profiles:      repository.NewMemoryProfileRepository(),
	}
	f.svc = NewChatService(ChatServiceDeps{
		Completer:     client,
		Conversations: f.conversations,
		Profiles:      f.profiles,
		Logger:        zap.NewNop(),
		Config:        cfg,
	})
	return f
}

func TestChatService_Ask(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, mock.New().WithResponse("hello"), []string{"k1"}, ChatConfig{})

	reply, err := f.svc.Ask(ctx, 1, "  hi  ")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Text != "hello" {
		t.Errorf("Ask() text = %q, want hello", reply.Text)
	}

	got, _ := f.conversations.List(ctx, 1, 0)
	want := []domain.Message{domain.UserMessage("hi"), domain.AssistantMessage("hello")}
	if len(got) != len(want) {
		t.Fatalf("history len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestChatService_AskSendsHistory(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{HistoryLimit: 2})

	f.conversations.Append(ctx, 1,
		domain.UserMessage("old q"), domain.AssistantMessage("old a"),
		domain.UserMessage("q"), domain.AssistantMessage("a"),
	)

	if _, err := f.svc.Ask(ctx, 1, "next"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	msgs := f.provider.LastRequest().Messages
	var contents []string
	for _, m := range msgs {
		if m.Role != domain.RoleSystem {
			contents = append(contents, m.Content)
		}
	}
	if strings.Join(contents, ",") != "q,a,next" {
		t.Errorf("sent conversation = %v, want [q a next]", contents)
	}
}

func TestChatService_AskOddHistoryLimit(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{HistoryLimit: 3})

	f.conversations.Append(ctx, 1,
		domain.UserMessage("old q"), domain.AssistantMessage("old a"),
		domain.UserMessage("q"), domain.AssistantMessage("a"),
	)

	if _, err := f.svc.Ask(ctx, 1, "next"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	var sent []domain.Message
	for _, m := range f.provider.LastRequest().Messages {
		if m.Role != domain.RoleSystem {
			sent = append(sent, m)
		}
	}
	if len(sent) == 0 || sent[0].Role != domain.RoleUser {
		t.Fatalf("conversation must start with a user turn, got %+v", sent)
	}
	var contents []string
	for _, m := range sent {
		contents = append(contents, m.Content)
	}
	if strings.Join(contents, ",") != "q,a,next" {
		t.Errorf("sent conversation = %v, want [q a next]", contents)
	}
}

func TestTrimToUserTurn(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.Message
		want    int
	}{
		{"empty", nil, 0},
		{"starts with user", []domain.Message{domain.UserMessage("q"), domain.AssistantMessage("a")}, 2},
		{"starts with assistant", []domain.Message{domain.AssistantMessage("a"), domain.UserMessage("q")}, 1},
		{"only assistant", []domain.Message{domain.AssistantMessage("a")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimToUserTurn(tt.history)
			if len(got) != tt.want {
				t.Errorf("trimToUserTurn() len = %d, want %d", len(got), tt.want)
			}
			if len(got) > 0 && got[0].Role != domain.RoleUser {
				t.Errorf("trimToUserTurn()[0].Role = %v, want user", got[0].Role)
			}
		})
	}
}

func TestChatService_AskUsesProfile(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{})
	f.profiles.Save(ctx, &domain.Profile{ChatID: 1, Name: "John Smith", Age: 42})

	if _, err := f.svc.Ask(ctx, 1, "hi"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	msgs := f.provider.LastRequest().Messages
	if len(msgs) != 2 || msgs[0].Role != domain.RoleSystem {
		t.Fatalf("expected system instruction first, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "John Smith") {
		t.Errorf("instruction does not mention profile name: %q", msgs[0].Content)
	}
}

func TestChatService_DefaultPersona(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{
		RequireProfile: true,
		DefaultPersona: &domain.Profile{Name: "Default Person"},
	})

	if _, err := f.svc.Ask(ctx, 1, "hi"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !strings.Contains(f.provider.LastRequest().Messages[0].Content, "Default Person") {
		t.Error("default persona should be used when chat has no profile")
	}
}

func TestChatService_RequireProfile(t *testing.T) {
	f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{RequireProfile: true})

	_, err := f.svc.Ask(context.Background(), 1, "hi")
	if !errors.Is(err, domain.ErrProfileRequired) {
		t.Errorf("Ask() error = %v, want ErrProfileRequired", err)
	}
	if f.provider.CallCount() != 0 {
		t.Error("provider should not be called without profile")
	}
}

func TestChatService_Validation(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "   ", domain.ErrEmptyMessage},
		{"too long", strings.Repeat("a", domain.MaxMessageLength+1), domain.ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{})
			_, err := f.svc.Ask(context.Background(), 1, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ask() error = %v, want %v", err, tt.wantErr)
			}
			if f.provider.CallCount() != 0 {
				t.Error("provider should not be called")
			}
		})
	}
}

func TestChatService_ExhaustedNotSaved(t *testing.T) {
	ctx := context.Background()
	quota := &llm.APIError{Provider: "mock", StatusCode: http.StatusTooManyRequests}
	f := newChatFixture(t, mock.New().WithError(quota), []string{"k1", "k2"}, ChatConfig{})

	_, err := f.svc.Ask(ctx, 1, "hi")
	if !errors.Is(err, failover.ErrAllCredentialsExhausted) {
		t.Fatalf("Ask() error = %v, want ErrAllCredentialsExhausted", err)
	}
	if f.conversations.Count(1) != 0 {
		t.Error("failed exchange should not be saved")
	}

	report := f.svc.KeyStatus()
	if report.Provider != "mock" || report.Keys != 2 {
		t.Errorf("KeyStatus() = %+v", report)
	}
	if !report.Last.IsExhausted(0) || !report.Last.IsExhausted(1) {
		t.Errorf("KeyStatus().Last = %+v, want both keys exhausted", report.Last)
	}
}

func TestChatService_SaveFailureKeepsAnswer(t *testing.T) {
	f := newChatFixture(t, mock.New().WithResponse("hello"), []string{"k1"}, ChatConfig{})
	f.conversations.AppendErr = errors.New("disk full")

	reply, err := f.svc.Ask(context.Background(), 1, "hi")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Text != "hello" {
		t.Errorf("Ask() text = %q, want hello", reply.Text)
	}
}

func TestChatService_Clear(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, mock.New().WithResponse("ok"), []string{"k1"}, ChatConfig{})

	f.svc.Ask(ctx, 1, "hi")
	if err := f.svc.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if f.conversations.Count(1) != 0 {
		t.Error("Clear() should remove history")
	}
}
