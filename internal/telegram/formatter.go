package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/persona"
	"github.com/kitbuilder587/jarvis-bot/internal/service"
)

func FormatReply(text string) string {
	return html.EscapeString(strings.TrimSpace(text))
}

func FormatProfile(p *domain.Profile) string {
	var sb strings.Builder
	sb.WriteString("<b>Your profile:</b>\n\n")

	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", label, html.EscapeString(value)))
	}

	row("Name", p.Name)
	row("Age", ageText(p.Age))
	row("Gender", p.Gender)
	row("Occupation", p.Occupation)
	row("Street", p.StreetAddress)
	row("City", p.City)
	row("State", p.State)
	row("Zip", p.ZipCode)
	row("Country", p.Country)
	row("County", p.County)
	row("DMA", p.DMA)
	row("Region", p.Region)

	if p.Spouse != nil {
		row("Spouse", personText(*p.Spouse))
	} else {
		row("Spouse", "")
	}

	if len(p.Children) == 0 {
		row("Children", persona.NoChildren)
	} else {
		sb.WriteString("Children:\n")
		for i, c := range p.Children {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, html.EscapeString(personText(c))))
		}
	}

	sb.WriteString("\n<b>Instruction:</b>\n")
	sb.WriteString("<i>")
	sb.WriteString(html.EscapeString(persona.Render(*p)))
	sb.WriteString("</i>")

	return sb.String()
}

func FormatKeyStatus(r service.KeyReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>Provider:</b> %s\n", html.EscapeString(r.Provider)))
	sb.WriteString(fmt.Sprintf("<b>API keys:</b> %d\n\n", r.Keys))

	for i := 0; i < r.Keys; i++ {
		state := "ready"
		switch {
		case r.Last.IsExhausted(i):
			state = "exhausted"
		case i == r.Last.CurrentIndex:
			state = "active"
		}
		sb.WriteString(fmt.Sprintf("Key %d: %s\n", i+1, state))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем перевод строки или пробел вне HTML-тега
	for i := maxLen - 1; i > maxLen/2; i-- {
		if isInsideHTMLTag(text, i) {
			continue
		}
		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// не режем посередине utf-8 символа
	i := maxLen
	for i > 0 && !isRuneStart(text[i]) {
		i--
	}
	return i
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}

func personText(p domain.Person) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Age > 0 {
		parts = append(parts, fmt.Sprintf("%d", p.Age))
	}
	if p.Gender != "" {
		parts = append(parts, p.Gender)
	}
	return strings.Join(parts, ", ")
}

func ageText(age int) string {
	if age <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", age)
}
