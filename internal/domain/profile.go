package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MaxChildren = 10

// Profile - персона, от лица которой отвечает ассистент
type Profile struct {
	ChatID int64 `json:"-" yaml:"-"`

	Name          string   `json:"name" yaml:"name"`
	Age           int      `json:"age,omitempty" yaml:"age"`
	Gender        string   `json:"gender,omitempty" yaml:"gender"`
	Occupation    string   `json:"occupation,omitempty" yaml:"occupation"`
	StreetAddress string   `json:"streetAddress,omitempty" yaml:"street_address"`
	City          string   `json:"city,omitempty" yaml:"city"`
	State         string   `json:"state,omitempty" yaml:"state"`
	ZipCode       string   `json:"zipCode,omitempty" yaml:"zip_code"`
	Country       string   `json:"country,omitempty" yaml:"country"`
	County        string   `json:"county,omitempty" yaml:"county"`
	DMA           string   `json:"dma,omitempty" yaml:"dma"`
	Region        string   `json:"region,omitempty" yaml:"region"`
	Spouse        *Person  `json:"spouse,omitempty" yaml:"spouse"`
	Children      []Person `json:"children,omitempty" yaml:"children"`

	UpdatedAt time.Time `json:"-" yaml:"-"`
}

type Person struct {
	Name   string `json:"name" yaml:"name"`
	Age    int    `json:"age,omitempty" yaml:"age"`
	Gender string `json:"gender,omitempty" yaml:"gender"`
}

func (p Person) IsZero() bool {
	return p.Name == "" && p.Age == 0 && p.Gender == ""
}

// ProfileFields - поля, которые можно менять через /set
var ProfileFields = []string{
	"name", "age", "gender", "occupation",
	"street", "city", "state", "zip", "country", "county", "dma", "region",
	"spouse", "spouse_age", "spouse_gender",
}

// Set updates one scalar field by its short name.
func (p *Profile) Set(field, value string) error {
	value = strings.TrimSpace(value)

	switch strings.ToLower(field) {
	case "name":
		p.Name = value
	case "age":
		age, err := parseAge(value)
		if err != nil {
			return err
		}
		p.Age = age
	case "gender":
		p.Gender = value
	case "occupation":
		p.Occupation = value
	case "street", "street_address":
		p.StreetAddress = value
	case "city":
		p.City = value
	case "state":
		p.State = value
	case "zip", "zip_code":
		p.ZipCode = value
	case "country":
		p.Country = value
	case "county":
		p.County = value
	case "dma":
		p.DMA = value
	case "region":
		p.Region = value
	case "spouse":
		p.spouse().Name = value
	case "spouse_age":
		age, err := parseAge(value)
		if err != nil {
			return err
		}
		p.spouse().Age = age
	case "spouse_gender":
		p.spouse().Gender = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if p.Spouse != nil && p.Spouse.IsZero() {
		p.Spouse = nil
	}
	return nil
}

func (p *Profile) AddChild(child Person) error {
	if strings.TrimSpace(child.Name) == "" {
		return ErrEmptyName
	}
	if child.Age < 0 || child.Age > 150 {
		return ErrInvalidAge
	}
	if len(p.Children) >= MaxChildren {
		return ErrTooManyChildren
	}
	p.Children = append(p.Children, child)
	return nil
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Age < 0 || p.Age > 150 {
		return ErrInvalidAge
	}
	if len(p.Children) > MaxChildren {
		return ErrTooManyChildren
	}
	return nil
}

// Clone returns a deep copy so callers can't reach into a stored profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Spouse != nil {
		s := *p.Spouse
		cp.Spouse = &s
	}
	if p.Children != nil {
		cp.Children = append([]Person(nil), p.Children...)
	}
	return &cp
}

func (p *Profile) spouse() *Person {
	if p.Spouse == nil {
		p.Spouse = &Person{}
	}
	return p.Spouse
}

func parseAge(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	age, err := strconv.Atoi(value)
	if err != nil || age < 0 || age > 150 {
		return 0, ErrInvalidAge
	}
	return age, nil
}
