package repository

import (
	"context"
	"testing"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

func TestMemoryConversationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()

	err := repo.Append(ctx, 1,
		domain.UserMessage("q1"), domain.AssistantMessage("a1"),
		domain.UserMessage("q2"), domain.AssistantMessage("a2"),
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	repo.Append(ctx, 2, domain.UserMessage("other chat"))

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"q1", "a1", "q2", "a2"}},
		{"last two", 2, []string{"q2", "a2"}},
		{"limit above size", 10, []string{"q1", "a1", "q2", "a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, 1, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Content != tt.want[i] {
					t.Errorf("List()[%d] = %q, want %q", i, got[i].Content, tt.want[i])
				}
			}
		})
	}

	if err := repo.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if repo.Count(1) != 0 {
		t.Error("Clear() did not remove messages")
	}
	if repo.Count(2) != 1 {
		t.Error("Clear() removed messages of another chat")
	}
}

func TestMemoryConversationRepository_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()
	repo.Append(ctx, 1, domain.UserMessage("q1"))

	got, _ := repo.List(ctx, 1, 0)
	got[0].Content = "changed"

	again, _ := repo.List(ctx, 1, 0)
	if again[0].Content != "q1" {
		t.Error("List() exposes internal slice")
	}
}

func TestMemoryProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository()

	if _, err := repo.Get(ctx, 7); err != domain.ErrProfileNotFound {
		t.Errorf("Get() error = %v, want ErrProfileNotFound", err)
	}

	p := &domain.Profile{ChatID: 7, Name: "John", Children: []domain.Person{{Name: "Tom"}}}
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("Save() should set UpdatedAt")
	}

	p.Children[0].Name = "changed"

	got, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "John" || got.Children[0].Name != "Tom" {
		t.Errorf("Get() = %+v", got)
	}

	if err := repo.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, 7); err != domain.ErrProfileNotFound {
		t.Errorf("Delete() twice error = %v, want ErrProfileNotFound", err)
	}
}
