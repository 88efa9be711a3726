package persona

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

func fullProfile() domain.Profile {
	return domain.Profile{
		Name:          "John Smith",
		Age:           42,
		Gender:        "male",
		Occupation:    "IT manager",
		StreetAddress: "12 Oak St",
		City:          "Austin",
		State:         "TX",
		ZipCode:       "73301",
		Country:       "USA",
		County:        "Travis",
		DMA:           "Austin",
		Region:        "South",
		Spouse:        &domain.Person{Name: "Jane", Age: 40, Gender: "female"},
		Children: []domain.Person{
			{Name: "Tom", Age: 10, Gender: "male"},
			{Name: "Ann", Age: 7, Gender: "female"},
		},
	}
}

func assertContains(t *testing.T, got string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(got, part) {
			t.Errorf("Render() missing %q in:\n%s", part, got)
		}
	}
}

func assertNotContains(t *testing.T, got string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if strings.Contains(got, part) {
			t.Errorf("Render() unexpectedly contains %q in:\n%s", part, got)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	p := fullProfile()
	if Render(p) != Render(p) {
		t.Error("Render() is not deterministic")
	}
}

func TestRender_FullProfile(t *testing.T) {
	got := Render(fullProfile())

	assertContains(t, got,
		"You are John Smith, a 42-year-old male IT manager",
		"living at 12 Oak St, Austin, TX 73301, USA",
		"County: Travis, DMA: Austin, Region: South",
		"married to Jane, a 40-year-old female",
		"Tom (10, male), Ann (7, female)",
		"first person as John Smith",
		"Do not make things up",
	)
	assertNotContains(t, got, NoChildren)
}

func TestRender_Children(t *testing.T) {
	tests := []struct {
		name string
		kids []domain.Person
		want string
	}{
		{"empty slice", []domain.Person{}, "and have no children"},
		{"nil", nil, NoChildren},
		{"blank names", []domain.Person{{Name: "  "}}, NoChildren},
		{"single", []domain.Person{{Name: "Tom"}}, "one child: Tom."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullProfile()
			p.Children = tt.kids
			assertContains(t, Render(p), tt.want)
		})
	}
}

func TestRender_Article(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.Profile
		want    string
	}{
		{"consonant", domain.Profile{Name: "Bo", Occupation: "teacher"}, "You are Bo, a teacher"},
		{"vowel", domain.Profile{Name: "Bo", Occupation: "engineer"}, "You are Bo, an engineer"},
		{"age eight", domain.Profile{Name: "Bo", Age: 8}, "You are Bo, an 8-year-old"},
		{"age eighteen", domain.Profile{Name: "Bo", Age: 18}, "You are Bo, an 18-year-old"},
		{"age eleven", domain.Profile{Name: "Bo", Age: 11}, "You are Bo, an 11-year-old"},
		{"age eighty", domain.Profile{Name: "Bo", Age: 83}, "You are Bo, an 83-year-old"},
		{"age forty", domain.Profile{Name: "Bo", Age: 42, Occupation: "engineer"}, "You are Bo, a 42-year-old engineer"},
		{"age one hundred ten", domain.Profile{Name: "Bo", Age: 110}, "You are Bo, a 110-year-old"},
		{
			"spouse",
			domain.Profile{Name: "Bo", Spouse: &domain.Person{Name: "Al", Age: 80}},
			"married to Al, an 80-year-old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, Render(tt.profile), tt.want)
		})
	}
}

func TestRender_MissingFieldsOmitted(t *testing.T) {
	got := Render(domain.Profile{Name: "Alex"})

	assertContains(t, got, "You are Alex.", "You have no children.")
	assertNotContains(t, got, "living at", "location details", "married", "0-year-old")
}

func TestRender_EmptyProfile(t *testing.T) {
	if got := Render(domain.Profile{}); got == "" {
		t.Error("Render() of empty profile is empty")
	}
}

func TestInstruction(t *testing.T) {
	if got := Instruction(nil, "fallback"); got != "fallback" {
		t.Errorf("Instruction(nil) = %q, want fallback", got)
	}
	if got := Instruction(nil, ""); got != "" {
		t.Errorf("Instruction(nil, \"\") = %q, want empty", got)
	}

	p := fullProfile()
	if got := Instruction(&p, "fallback"); got != Render(p) {
		t.Error("Instruction(profile) should equal Render(profile)")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
name: John Smith
age: 42
gender: male
occupation: IT manager
street_address: 12 Oak St
zip_code: "73301"
spouse:
  name: Jane
  age: 40
children:
  - name: Tom
    age: 10
    gender: male
`)

	p, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Name != "John Smith" || p.StreetAddress != "12 Oak St" || p.ZipCode != "73301" {
		t.Errorf("Parse() = %+v", p)
	}
	if p.Spouse == nil || p.Spouse.Age != 40 {
		t.Errorf("Spouse = %+v, want age 40", p.Spouse)
	}
	if len(p.Children) != 1 || p.Children[0].Name != "Tom" {
		t.Errorf("Children = %+v, want [Tom]", p.Children)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("age: 42\n")); !errors.Is(err, domain.ErrEmptyName) {
		t.Errorf("Parse() error = %v, want ErrEmptyName", err)
	}
	if _, err := Parse([]byte("name: [unclosed")); err == nil {
		t.Error("Parse() expected error for broken yaml")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	if err := os.WriteFile(path, []byte("name: Alex\nage: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if p.Name != "Alex" {
		t.Errorf("Name = %q, want Alex", p.Name)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}
