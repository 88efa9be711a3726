package domain

import (
	"errors"
	"testing"
)

func TestProfile_Set(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		check   func(p *Profile) bool
		wantErr error
	}{
		{"name", "name", "  John Smith ", func(p *Profile) bool { return p.Name == "John Smith" }, nil},
		{"age", "age", "42", func(p *Profile) bool { return p.Age == 42 }, nil},
		{"age uppercase field", "AGE", "30", func(p *Profile) bool { return p.Age == 30 }, nil},
		{"zip alias", "zip_code", "10001", func(p *Profile) bool { return p.ZipCode == "10001" }, nil},
		{"dma", "dma", "New York", func(p *Profile) bool { return p.DMA == "New York" }, nil},
		{"spouse name", "spouse", "Jane", func(p *Profile) bool { return p.Spouse != nil && p.Spouse.Name == "Jane" }, nil},
		{"spouse age", "spouse_age", "40", func(p *Profile) bool { return p.Spouse != nil && p.Spouse.Age == 40 }, nil},
		{"invalid age", "age", "abc", nil, ErrInvalidAge},
		{"negative age", "age", "-1", nil, ErrInvalidAge},
		{"unknown field", "shoe_size", "42", nil, ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{}
			err := p.Set(tt.field, tt.value)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Set() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() unexpected error = %v", err)
			}
			if !tt.check(p) {
				t.Errorf("Set(%q, %q) did not apply, profile = %+v", tt.field, tt.value, p)
			}
		})
	}
}

func TestProfile_SetClearsEmptySpouse(t *testing.T) {
	p := &Profile{}
	if err := p.Set("spouse", "Jane"); err != nil {
		t.Fatal(err)
	}
	if err := p.Set("spouse", ""); err != nil {
		t.Fatal(err)
	}
	if p.Spouse != nil {
		t.Errorf("Spouse = %+v, want nil", p.Spouse)
	}
}

func TestProfile_AddChild(t *testing.T) {
	p := &Profile{Name: "John"}

	if err := p.AddChild(Person{Name: "Tom", Age: 5, Gender: "male"}); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	if len(p.Children) != 1 {
		t.Fatalf("len(Children) = %d, want 1", len(p.Children))
	}

	if err := p.AddChild(Person{Name: " "}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("AddChild(empty) error = %v, want ErrEmptyName", err)
	}

	for len(p.Children) < MaxChildren {
		p.Children = append(p.Children, Person{Name: "x"})
	}
	if err := p.AddChild(Person{Name: "extra"}); !errors.Is(err, ErrTooManyChildren) {
		t.Errorf("AddChild(over limit) error = %v, want ErrTooManyChildren", err)
	}
}

func TestProfile_Validate(t *testing.T) {
	if err := (&Profile{}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Validate() error = %v, want ErrEmptyName", err)
	}
	if err := (&Profile{Name: "A", Age: 200}).Validate(); !errors.Is(err, ErrInvalidAge) {
		t.Errorf("Validate() error = %v, want ErrInvalidAge", err)
	}
	if err := (&Profile{Name: "A", Age: 20}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}

func TestProfile_Clone(t *testing.T) {
	orig := &Profile{
		Name:     "John",
		Spouse:   &Person{Name: "Jane"},
		Children: []Person{{Name: "Tom"}},
	}

	cp := orig.Clone()
	cp.Spouse.Name = "Other"
	cp.Children[0].Name = "Other"

	if orig.Spouse.Name != "Jane" {
		t.Error("Clone() shares spouse with original")
	}
	if orig.Children[0].Name != "Tom" {
		t.Error("Clone() shares children with original")
	}

	var nilProfile *Profile
	if nilProfile.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}
