package telegram

import (
	"strconv"
	"strings"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

// ParseSetArgs разбирает "/set field value...". Значение может быть пустым,
// тогда поле очищается.
func ParseSetArgs(args string) (field, value string, ok bool) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", "", false
	}

	parts := strings.SplitN(args, " ", 2)
	field = strings.ToLower(parts[0])
	if len(parts) > 1 {
		value = normalizeSpaces(parts[1])
	}
	return field, value, true
}

// ParseChildArgs разбирает "/child Имя [возраст] [пол]".
// Имя может состоять из нескольких слов, заканчивается на первом числе.
func ParseChildArgs(args string) (domain.Person, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return domain.Person{}, domain.ErrEmptyName
	}

	ageAt := -1
	for i, f := range fields {
		if _, err := strconv.Atoi(f); err == nil {
			ageAt = i
			break
		}
	}

	if ageAt == -1 {
		return domain.Person{Name: strings.Join(fields, " ")}, nil
	}
	if ageAt == 0 {
		return domain.Person{}, domain.ErrEmptyName
	}

	age, _ := strconv.Atoi(fields[ageAt])
	if age < 0 || age > 150 {
		return domain.Person{}, domain.ErrInvalidAge
	}

	return domain.Person{
		Name:   strings.Join(fields[:ageAt], " "),
		Age:    age,
		Gender: strings.Join(fields[ageAt+1:], " "),
	}, nil
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
