package telegram

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
	"github.com/kitbuilder587/jarvis-bot/internal/failover"
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

const (
	msgGenericError = "Something went wrong. Please try again later."
	msgLocked       = "This bot is password protected. Send /unlock &lt;password&gt; to continue."
)

var deniedMessages = []string{
	"Access denied! Even my pet robot is laughing at this attempt!",
	"That password is scarier than a programmer without coffee!",
	"BOO! Wrong password! Did I scare you?",
	"Plot twist: that's not the password!",
	"ALERT: password so wrong it triggered a digital volcano!",
	"BRAAAINS... I mean, WROOOONG! Try again, mortal!",
	"By the power of wrong passwords, I banish thee!",
}

// команды, которые доступны без пароля
var openCommands = map[string]bool{
	"start":  true,
	"help":   true,
	"unlock": true,
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}

	h.bot.logger.Info("received message",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if msg.IsCommand() && openCommands[msg.Command()] {
		h.handleCommand(ctx, msg)
		return
	}

	if h.bot.access != nil && !h.bot.access.IsUnlocked(msg.Chat.ID) {
		h.bot.RecordAccessDenied()
		h.bot.Send(msg.Chat.ID, msgLocked)
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
	} else {
		h.handleChat(ctx, msg)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "unlock":
		h.handleUnlock(ctx, msg)
	case "profile":
		h.handleProfile(ctx, msg)
	case "set":
		h.handleSet(ctx, msg)
	case "child":
		h.handleChild(ctx, msg)
	case "nochildren":
		h.handleNoChildren(ctx, msg)
	case "resetprofile":
		h.handleResetProfile(ctx, msg)
	case "clear":
		h.handleClear(ctx, msg)
	case "status":
		h.handleStatus(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	text := "Hello, I'm Jarvis. Send me a message and I'll answer in the voice of your profile.\n\n" +
		"Use /set to fill in your profile and /help to see all commands."
	if h.bot.access != nil && !h.bot.access.IsUnlocked(msg.Chat.ID) {
		text += "\n\n" + msgLocked
	}
	h.bot.Send(msg.Chat.ID, text)
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	helpText := `<b>Commands:</b>

/unlock password - Unlock the bot
/profile - Show your profile and the resulting instruction
/set field value - Set a profile field
/child name age gender - Add a child
/nochildren - Remove all children
/resetprofile - Delete your profile
/clear - Forget the conversation
/status - Show API key status

<b>Profile fields:</b>
` + strings.Join(domain.ProfileFields, ", ") + `

<b>Examples:</b>
/set name John Smith
/set age 42
/set spouse Jane
/child Tom 10 male

Any other text is sent to the assistant.`

	h.bot.Send(msg.Chat.ID, helpText)
}

func (h *Handler) handleUnlock(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if h.bot.access == nil || !h.bot.access.Enabled() {
		h.bot.Send(chatID, "This bot is not password protected.")
		return
	}

	password := strings.TrimSpace(msg.CommandArguments())
	// пароль не должен висеть в истории чата
	if password != "" {
		h.bot.Delete(chatID, msg.MessageID)
	}
	if password == "" {
		h.bot.Send(chatID, "Usage: /unlock password")
		return
	}

	err := h.bot.access.Unlock(chatID, password)
	switch {
	case err == nil:
		h.bot.Send(chatID, "Access granted. Welcome!")
	case errors.Is(err, domain.ErrWrongPassword):
		h.bot.Send(chatID, deniedMessages[rand.IntN(len(deniedMessages))])
	default:
		h.bot.Send(chatID, mapErrorToMessage(err))
	}
}

func (h *Handler) handleProfile(ctx context.Context, msg *tgbotapi.Message) {
	p, err := h.bot.profiles.Get(ctx, msg.Chat.ID)
	if err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}
	h.bot.SendLong(msg.Chat.ID, FormatProfile(p))
}

func (h *Handler) handleSet(ctx context.Context, msg *tgbotapi.Message) {
	field, value, ok := ParseSetArgs(msg.CommandArguments())
	if !ok {
		h.bot.Send(msg.Chat.ID, "Usage: /set field value\nFields: "+strings.Join(domain.ProfileFields, ", "))
		return
	}

	if _, err := h.bot.profiles.SetField(ctx, msg.Chat.ID, field, value); err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	if value == "" {
		h.bot.Send(msg.Chat.ID, fmt.Sprintf("Cleared %s.", escape(field)))
		return
	}
	h.bot.Send(msg.Chat.ID, fmt.Sprintf("Saved %s.", escape(field)))
}

func (h *Handler) handleChild(ctx context.Context, msg *tgbotapi.Message) {
	child, err := ParseChildArgs(msg.CommandArguments())
	if err != nil {
		h.bot.Send(msg.Chat.ID, "Usage: /child name age gender\nExample: /child Tom 10 male")
		return
	}

	p, err := h.bot.profiles.AddChild(ctx, msg.Chat.ID, child)
	if err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	h.bot.Send(msg.Chat.ID, fmt.Sprintf("Added %s. Children: %d.", escape(child.Name), len(p.Children)))
}

func (h *Handler) handleNoChildren(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := h.bot.profiles.ClearChildren(ctx, msg.Chat.ID); err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}
	h.bot.Send(msg.Chat.ID, "Children removed.")
}

func (h *Handler) handleResetProfile(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.bot.profiles.Reset(ctx, msg.Chat.ID); err != nil {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}
	h.bot.Send(msg.Chat.ID, "Profile deleted.")
}

func (h *Handler) handleClear(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.bot.chat.Clear(ctx, msg.Chat.ID); err != nil {
		h.bot.logger.Error("failed to clear conversation", zap.Error(err))
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}
	h.bot.Send(msg.Chat.ID, "Conversation cleared.")
}

func (h *Handler) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, FormatKeyStatus(h.bot.chat.KeyStatus()))
}

func (h *Handler) handleChat(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if !h.bot.rateLimiter.Allow(chatID) {
		retry := h.bot.rateLimiter.RetryAfter(chatID)
		h.bot.logger.Warn("rate limit exceeded",
			zap.Int64("chat_id", chatID),
			zap.Duration("retry_after", retry),
		)
		h.bot.RecordRateLimitHit(chatID)
		h.bot.Send(chatID, "Too many messages. Please wait a minute.")
		return
	}

	h.bot.SendTyping(chatID)

	reply, err := h.bot.chat.Ask(ctx, chatID, msg.Text)
	if err != nil {
		h.bot.logger.Error("chat request failed",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		h.bot.Send(chatID, mapErrorToMessage(err))
		return
	}

	h.bot.SendLong(chatID, FormatReply(reply.Text))
}

func mapErrorToMessage(err error) string {
	var providerErr *failover.ProviderError

	switch {
	case errors.Is(err, failover.ErrAllCredentialsExhausted):
		return "All API quotas have been exhausted. Please try again later."
	case errors.Is(err, failover.ErrNoCredentials):
		return "No API keys are configured."
	case errors.Is(err, domain.ErrProfileRequired):
		return "Please set up your profile in settings before chatting."
	case errors.Is(err, domain.ErrProfileNotFound):
		return "You don't have a profile yet. Use /set field value to create one."
	case errors.Is(err, domain.ErrEmptyMessage):
		return "Empty message. Type your question."
	case errors.Is(err, domain.ErrMessageTooLong):
		return fmt.Sprintf("Message is too long. Maximum is %d characters.", domain.MaxMessageLength)
	case errors.Is(err, domain.ErrUnknownField):
		return "Unknown field. Available: " + strings.Join(domain.ProfileFields, ", ")
	case errors.Is(err, domain.ErrInvalidAge):
		return "Age must be a number between 0 and 150."
	case errors.Is(err, domain.ErrEmptyName):
		return "Name must not be empty."
	case errors.Is(err, domain.ErrTooManyChildren):
		return fmt.Sprintf("Too many children. Maximum is %d.", domain.MaxChildren)
	case errors.Is(err, domain.ErrWrongPassword):
		return "Wrong password."
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many attempts. Please wait and try again."
	case errors.Is(err, domain.ErrLocked):
		return msgLocked
	case errors.Is(err, context.DeadlineExceeded):
		return "The request took too long. Please try again."
	case errors.As(err, &providerErr):
		return "The AI provider could not answer. Please try again later."
	default:
		return msgGenericError
	}
}

func escape(s string) string {
	return FormatReply(s)
}
