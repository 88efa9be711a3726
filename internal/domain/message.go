package domain

import "strings"

const MaxMessageLength = 4000

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

type Message struct {
	Role    Role
	Content string
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ValidateConversation проверяет порядок: system допустим только первым и только один раз.
func ValidateConversation(conv []Message) error {
	if len(conv) == 0 {
		return ErrEmptyConversation
	}
	for i, m := range conv {
		if !m.Role.IsValid() {
			return ErrInvalidRole
		}
		if m.Role == RoleSystem && i != 0 {
			return ErrMisplacedSystem
		}
	}
	return nil
}

// WithSystem returns a copy of conv whose first element is the given system
// instruction. An existing leading system message is replaced.
func WithSystem(conv []Message, instruction string) []Message {
	rest := conv
	if len(rest) > 0 && rest[0].Role == RoleSystem {
		rest = rest[1:]
	}

	out := make([]Message, 0, len(rest)+1)
	out = append(out, SystemMessage(instruction))
	out = append(out, rest...)
	return out
}

func ValidateUserText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}
