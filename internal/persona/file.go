package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

// LoadFile reads a default persona from a YAML file.
func LoadFile(path string) (*domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*domain.Profile, error) {
	var p domain.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid persona: %w", err)
	}
	return &p, nil
}
