// Package persona renders a profile into the system instruction the model
// role-plays with.
package persona

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

const DefaultInstruction = "You are Jarvis, a concise and helpful personal assistant. " +
	"Answer clearly, use short sentences and bullet points where they help."

const NoChildren = "no children"

const rules = `
Survey answering rules:
- When a survey question lists options, select all options that apply to you. Assume you know all common real-world brands and services.
- Do not omit any relevant choice.
- If asked about claims or slogans of a company or brand, answer from real-world knowledge. If unsure, say you are not sure. Do not make things up.

Response rules:
- Do not open with phrases like "As an IT manager". Answer the question directly.
- Stay on the question. No extra context or explanations.
- Use simple, concise language and short sentences.
- Organize ideas with bullet points and frequent line breaks.
- Focus on practical insights. Use examples or data only if needed.
- Skip introductions, summaries, notes and warnings.
- No hashtags, emojis or asterisks.`

// Render builds the first-person role-play instruction for p. Missing fields
// are left out of the text.
func Render(p domain.Profile) string {
	var sb strings.Builder

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "the person described below"
	}

	sb.WriteString("You are ")
	sb.WriteString(name)
	if who := describe(p.Age, p.Gender, p.Occupation); who != "" {
		sb.WriteString(", ")
		sb.WriteString(withArticle(who))
	}

	if addr := address(p); addr != "" {
		sb.WriteString(" living at ")
		sb.WriteString(addr)
	}
	sb.WriteString(".")

	if loc := location(p); loc != "" {
		sb.WriteString(" Your location details include ")
		sb.WriteString(loc)
		sb.WriteString(".")
	}

	if p.Spouse != nil && strings.TrimSpace(p.Spouse.Name) != "" {
		sb.WriteString(" You are married to ")
		sb.WriteString(strings.TrimSpace(p.Spouse.Name))
		if who := describe(p.Spouse.Age, p.Spouse.Gender, ""); who != "" {
			sb.WriteString(", ")
			sb.WriteString(withArticle(who))
		}
		sb.WriteString(",")
		sb.WriteString(" and have ")
	} else {
		sb.WriteString(" You have ")
	}
	sb.WriteString(children(p.Children))
	sb.WriteString(".")

	sb.WriteString(" You work full time and often take online surveys.")
	sb.WriteString(" When asked about products or companies, check that they exist before answering.")
	sb.WriteString(" Always answer in first person as ")
	sb.WriteString(name)
	sb.WriteString(" and keep the answers human.\n")
	sb.WriteString(rules)

	return sb.String()
}

// Instruction returns the rendered persona, or fallback when p is nil.
func Instruction(p *domain.Profile, fallback string) string {
	if p == nil {
		return fallback
	}
	return Render(*p)
}

func describe(age int, gender, occupation string) string {
	var parts []string
	if age > 0 {
		parts = append(parts, strconv.Itoa(age)+"-year-old")
	}
	if g := strings.TrimSpace(gender); g != "" {
		parts = append(parts, g)
	}
	if o := strings.TrimSpace(occupation); o != "" {
		parts = append(parts, o)
	}
	return strings.Join(parts, " ")
}

// withArticle ставит "a" или "an" по звучанию первого слова ("an 8-year-old").
func withArticle(phrase string) string {
	if anSound(phrase) {
		return "an " + phrase
	}
	return "a " + phrase
}

func anSound(phrase string) bool {
	if phrase == "" {
		return false
	}
	first := strings.ToLower(phrase[:1])
	if strings.Contains("aeiou", first) {
		return true
	}
	if first < "0" || first > "9" {
		return false
	}

	digits := phrase
	if i := strings.IndexFunc(phrase, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = phrase[:i]
	}
	// числа на 8, а также 11 и 18 читаются с гласной
	return first == "8" || digits == "11" || digits == "18"
}

func address(p domain.Profile) string {
	stateZip := joinNonEmpty(" ", p.State, p.ZipCode)
	return joinNonEmpty(", ", p.StreetAddress, p.City, stateZip, p.Country)
}

func location(p domain.Profile) string {
	var parts []string
	if v := strings.TrimSpace(p.County); v != "" {
		parts = append(parts, "County: "+v)
	}
	if v := strings.TrimSpace(p.DMA); v != "" {
		parts = append(parts, "DMA: "+v)
	}
	if v := strings.TrimSpace(p.Region); v != "" {
		parts = append(parts, "Region: "+v)
	}
	return strings.Join(parts, ", ")
}

func children(kids []domain.Person) string {
	var parts []string
	for _, c := range kids {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if who := joinNonEmpty(", ", ageString(c.Age), c.Gender); who != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, who))
		} else {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return NoChildren
	}

	label := "children"
	if len(parts) == 1 {
		label = "one child"
	}
	return label + ": " + strings.Join(parts, ", ")
}

func ageString(age int) string {
	if age <= 0 {
		return ""
	}
	return strconv.Itoa(age)
}

func joinNonEmpty(sep string, values ...string) string {
	var parts []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
